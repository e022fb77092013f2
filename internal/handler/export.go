package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler dumps a user's ledger as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeaders = []string{"Type", "Category", "Amount", "Description", "Date", "Installment"}

// loadTransactions fetches the user's ledger, optionally bounded by
// start/end query parameters (YYYY-MM-DD, inclusive).
func (h *ExportHandler) loadTransactions(c *gin.Context, userID uint) ([]models.Transaction, bool) {
	query := h.DB.Preload("Category").Where("user_id = ?", userID)

	if start := c.Query("start"); start != "" {
		if err := util.ValidateDate(start); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start date")
			return nil, false
		}
		query = query.Where("occurred_at >= ?", start)
	}
	if end := c.Query("end"); end != "" {
		if err := util.ValidateDate(end); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return nil, false
		}
		query = query.Where("occurred_at < date(?, '+1 day')", end)
	}

	var txs []models.Transaction
	if err := query.Order("occurred_at DESC").Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return nil, false
	}
	return txs, true
}

func exportRow(tx *models.Transaction) []string {
	installment := ""
	if tx.InstallmentNumber != nil {
		installment = strconv.Itoa(*tx.InstallmentNumber)
	}
	return []string{
		tx.Type,
		tx.Category.Name,
		tx.Amount.StringFixed(2),
		tx.Description,
		tx.OccurredAt.Format("2006-01-02"),
		installment,
	}
}

// exportFilename tags each download with a short unique suffix so repeated
// exports on the same day do not collide in the user's download folder.
func exportFilename(ext string) string {
	return fmt.Sprintf("transactions_%s_%s.%s",
		time.Now().Format("20060102"), uuid.New().String()[:8], ext)
}

// ExportCSV streams all transactions as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	txs, ok := h.loadTransactions(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("csv")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for i := range txs {
		writer.Write(exportRow(&txs[i]))
	}
}

// ExportXLSX writes all transactions into a spreadsheet.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	txs, ok := h.loadTransactions(c, user.ID)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for idx := range txs {
		row := idx + 2
		for col, value := range exportRow(&txs[idx]) {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("xlsx")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
