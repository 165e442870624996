package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expensetracker/ledger"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet     = "Expenses"
	exportTimeFmt   = "2006-01-02 15:04:05"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{"ID", "Date", "Type", "Category", "Description", "Payment Method", "Amount", "Budget ID"}

// exportRow 单条记录的导出字段
func exportRow(e models.Expense, currency string) ([]string, error) {
	amount, err := ledger.FormatMinor(e.Amount, currency)
	if err != nil {
		return nil, err
	}
	description := ""
	if e.Description != nil {
		description = *e.Description
	}
	budgetID := ""
	if e.BudgetID != nil {
		budgetID = strconv.FormatUint(uint64(*e.BudgetID), 10)
	}
	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		e.Date.UTC().Format(exportTimeFmt),
		string(e.Type),
		e.Category,
		description,
		string(e.PaymentMethod),
		amount,
		budgetID,
	}, nil
}

// Export 导出收支记录
// @Summary 导出收支记录
// @Description 导出当前用户全部记录为 CSV 或 Excel，金额按配置币种格式化
// @Tags 收支记录
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "导出格式" Enums(csv, xlsx) default(csv)
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Response "格式不支持"
// @Failure 401 {object} Response "未授权"
// @Router /expense/export [get]
func (h *ExpenseHandler) Export(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		BadRequest(c, "format must be csv or xlsx")
		return
	}

	expenses, err := h.expenses.All(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Export failed")
		return
	}

	stamp := time.Now().UTC().Format("20060102")
	if format == "xlsx" {
		h.writeXLSX(c, expenses, fmt.Sprintf("expenses_%s.xlsx", stamp))
		return
	}
	h.writeCSV(c, expenses, fmt.Sprintf("expenses_%s.csv", stamp))
}

func (h *ExpenseHandler) writeCSV(c *gin.Context, expenses []models.Expense, filename string) {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		row, err := exportRow(e, h.currency)
		if err != nil {
			handleError(c, err, "Export failed")
			return
		}
		rows = append(rows, row)
	}

	buf := new(bytes.Buffer)
	// BOM 以便 Excel 正确识别 UTF-8
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "Failed to generate CSV")
		return
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, "Failed to generate CSV")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// xlsxRow 单条记录的表格单元格，编号与金额写为数值
func xlsxRow(e models.Expense, currency string) ([]interface{}, error) {
	amount, err := ledger.MinorToFloat(e.Amount, currency)
	if err != nil {
		return nil, err
	}
	var description, budgetID interface{}
	if e.Description != nil {
		description = *e.Description
	}
	if e.BudgetID != nil {
		budgetID = *e.BudgetID
	}
	return []interface{}{
		e.ID,
		e.Date.UTC().Format(exportTimeFmt),
		string(e.Type),
		e.Category,
		description,
		string(e.PaymentMethod),
		amount,
		budgetID,
	}, nil
}

func (h *ExpenseHandler) writeXLSX(c *gin.Context, expenses []models.Expense, filename string) {
	numFmt, err := ledger.NumberFormat(h.currency)
	if err != nil {
		handleError(c, err, "Export failed")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		InternalError(c, "Failed to generate Excel")
		return
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	_ = f.SetColWidth(exportSheet, "B", "B", 20)
	_ = f.SetColWidth(exportSheet, "D", "E", 25)
	_ = f.SetColWidth(exportSheet, "F", "F", 16)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
	}
	_ = f.SetCellStyle(exportSheet, "A1", "H1", headerStyle)

	for r, e := range expenses {
		row, err := xlsxRow(e, h.currency)
		if err != nil {
			handleError(c, err, "Export failed")
			return
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			InternalError(c, "Failed to generate Excel")
			return
		}
	}
	if len(expenses) > 0 {
		amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			InternalError(c, "Failed to generate Excel")
			return
		}
		last, _ := excelize.CoordinatesToCellName(7, len(expenses)+1)
		_ = f.SetCellStyle(exportSheet, "G2", last, amountStyle)
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
