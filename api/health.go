package api

import "github.com/gin-gonic/gin"

// Root 服务存活提示
// @Summary 服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
func Root(c *gin.Context) {
	OK(c, MessageResponse{Message: "Expense Tracker API is running"})
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func Health(c *gin.Context) {
	OK(c, MessageResponse{Status: "healthy"})
}
