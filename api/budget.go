package api

import (
	"strings"

	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	budgets *service.BudgetService
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler(budgets *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets}
}

// CreateBudgetRequest 创建预算请求，limit 单位为分
type CreateBudgetRequest struct {
	Category string           `json:"category" binding:"required,min=1,max=50" example:"Food"`
	Limit    *decimal.Decimal `json:"limit" binding:"required" swaggertype:"number" example:"20000"`
}

// Create 创建预算
// @Summary 创建预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBudgetRequest true "预算信息"
// @Success 201 {object} models.BudgetView "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /budget/ [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		BadRequest(c, "category must not be blank")
		return
	}

	budget, err := h.budgets.Create(c.Request.Context(), userID, category, *req.Limit)
	if err != nil {
		handleError(c, err, "Failed to create budget")
		return
	}
	Created(c, budget)
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 返回当前用户全部预算及实时汇总的已用金额
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.BudgetView "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /budget/ [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	budgets, err := h.budgets.ListWithSpent(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Query failed")
		return
	}
	OK(c, budgets)
}
