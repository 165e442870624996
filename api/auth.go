package api

import (
	"strings"

	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRequest 注册请求，初始余额单位为分
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50" example:"alice"`
	Password    string `json:"password" binding:"required,min=8,max=72" example:"password123"`
	Email       string `json:"email" binding:"omitempty,email,max=100" example:"alice@example.com"`
	InitialBank int64  `json:"initial_bank" binding:"min=0" example:"10000"`
	InitialCash int64  `json:"initial_cash" binding:"min=0" example:"5000"`
}

// LoginRequest 登录请求，支持表单与 JSON
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required" example:"alice"`
	Password string `form:"password" json:"password" binding:"required" example:"password123"`
}

// TokenResponse 登录响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 注册新用户并设置初始银行与现金余额（单位：分）
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} models.User "注册成功"
// @Failure 400 {object} Response "参数错误或用户名已存在"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	// 长度校验作用于去掉首尾空白后的用户名
	req.Username = strings.TrimSpace(req.Username)
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		InitialBank: req.InitialBank,
		InitialCash: req.InitialCash,
	})
	if err != nil {
		handleError(c, err, "Registration failed")
		return
	}

	Created(c, user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名和密码登录，返回 Bearer 令牌
// @Tags 认证
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param username formData string true "用户名"
// @Param password formData string true "密码"
// @Success 200 {object} TokenResponse "登录成功"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 403 {object} Response "用户已停用"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		handleError(c, err, "Login failed")
		return
	}

	OK(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		Unauthorized(c, "Not authenticated")
		return
	}
	OK(c, user)
}
