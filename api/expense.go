package api

import (
	"strconv"
	"strings"

	"expensetracker/ledger"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 收支记录处理器
type ExpenseHandler struct {
	expenses *service.ExpenseService
	currency string
}

// NewExpenseHandler 创建收支记录处理器，currency 用于导出
func NewExpenseHandler(expenses *service.ExpenseService, currency string) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, currency: currency}
}

// CreateExpenseRequest 创建收支记录请求，金额单位为分
type CreateExpenseRequest struct {
	Amount        int64   `json:"amount" binding:"required,gt=0" example:"500"`
	Category      string  `json:"category" binding:"required,min=1,max=50" example:"Food"`
	Description   *string `json:"description" binding:"omitempty,max=200" example:"Lunch"`
	Type          string  `json:"type" binding:"required,oneof=expense income" example:"expense"`
	PaymentMethod string  `json:"payment_method" binding:"omitempty,oneof=cash transfer" example:"cash"`
	BudgetID      *uint   `json:"budget_id" example:"1"`
	Date          string  `json:"date" binding:"required" example:"2024-01-15T12:00:00"`
}

// UpdateExpenseRequest 部分更新请求，budget_id 为 0 时解除预算关联
type UpdateExpenseRequest struct {
	Amount        *int64  `json:"amount" binding:"omitempty,gt=0" example:"600"`
	Category      *string `json:"category" binding:"omitempty,min=1,max=50" example:"Food"`
	Description   *string `json:"description" binding:"omitempty,max=200" example:"Dinner"`
	Type          *string `json:"type" binding:"omitempty,oneof=expense income" example:"expense"`
	PaymentMethod *string `json:"payment_method" binding:"omitempty,oneof=cash transfer" example:"transfer"`
	BudgetID      *uint   `json:"budget_id" example:"1"`
	Date          *string `json:"date" example:"2024-01-16"`
}

// ListExpenseQuery 列表分页参数
type ListExpenseQuery struct {
	Skip  int  `form:"skip" binding:"min=0"`
	Limit *int `form:"limit" binding:"omitempty,min=1"`
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Description 创建支出或收入并同步调整银行（transfer）或现金（cash）余额；余额不足时拒绝
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "收支记录"
// @Success 200 {object} models.Expense "创建成功"
// @Failure 400 {object} Response "参数错误或余额不足"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /expense/ [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		BadRequest(c, "category must not be blank")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), userID, service.ExpenseInput{
		Type:          ledger.EntryType(req.Type),
		Amount:        req.Amount,
		Category:      category,
		Description:   req.Description,
		Date:          date,
		PaymentMethod: ledger.PaymentMethod(req.PaymentMethod),
		BudgetID:      req.BudgetID,
	})
	if err != nil {
		handleError(c, err, "Failed to create expense")
		return
	}

	OK(c, expense)
}

// List 获取收支记录列表
// @Summary 获取收支记录列表
// @Description 按插入顺序分页返回当前用户的记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param skip query int false "跳过条数" default(0)
// @Param limit query int false "返回条数" default(100)
// @Success 200 {array} models.Expense "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /expense/ [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var q ListExpenseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	limit := 0
	if q.Limit != nil {
		limit = *q.Limit
	}
	expenses, err := h.expenses.List(c.Request.Context(), userID, q.Skip, limit)
	if err != nil {
		handleError(c, err, "Query failed")
		return
	}
	OK(c, expenses)
}

// Balance 获取余额
// @Summary 获取余额
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.BalanceView "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /expense/balance [get]
func (h *ExpenseHandler) Balance(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	balances, err := h.expenses.Balances(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Query failed")
		return
	}
	OK(c, balances)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Description 部分更新；先冲回原记录对余额的影响再应用新值，新值余额不足时整体不生效
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Param request body UpdateExpenseRequest true "更新字段"
// @Success 200 {object} models.Expense "更新成功"
// @Failure 400 {object} Response "参数错误或余额不足"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /expense/{id} [patch]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	patch := service.ExpensePatch{
		Amount:      req.Amount,
		Description: req.Description,
		BudgetID:    req.BudgetID,
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			BadRequest(c, "category must not be blank")
			return
		}
		patch.Category = &category
	}
	if req.Type != nil {
		t := ledger.EntryType(*req.Type)
		patch.Type = &t
	}
	if req.PaymentMethod != nil {
		pm := ledger.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &pm
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		patch.Date = &date
	}

	expense, err := h.expenses.Update(c.Request.Context(), id, userID, patch)
	if err != nil {
		handleError(c, err, "Failed to update expense")
		return
	}
	OK(c, expense)
}

// Delete 删除收支记录
// @Summary 删除收支记录
// @Description 删除记录并冲回其对余额的影响
// @Tags 收支记录
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 204 "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /expense/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), id, userID); err != nil {
		handleError(c, err, "Failed to delete expense")
		return
	}
	NoContent(c)
}
