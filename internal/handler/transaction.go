package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler serves one-off ledger transactions. Generated
// occurrences of recurring transactions land in the same table but are
// created by the recurrence processor, never through this handler.
type TransactionHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TransactionHandler{DB: db, PageSize: pageSize}
}

type transactionReq struct {
	AccountID     uint            `json:"account_id" binding:"required"`
	CategoryID    uint            `json:"category_id" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Description   string          `json:"description" binding:"required,max=255"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	OccurredAt    string          `json:"occurred_at"`
	TagIDs        []uint          `json:"tag_ids"`
}

// resolveRefs checks that account, category and tags exist and belong to the
// user. Returns the resolved tags.
func (h *TransactionHandler) resolveRefs(c *gin.Context, userID uint, req *transactionReq) ([]models.Tag, bool) {
	var n int64
	if err := h.DB.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", req.AccountID, userID).Count(&n).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query account failed")
		return nil, false
	}
	if n == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		return nil, false
	}
	if err := h.DB.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", req.CategoryID, userID).Count(&n).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
		return nil, false
	}
	if n == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		return nil, false
	}

	var tags []models.Tag
	if len(req.TagIDs) > 0 {
		if err := h.DB.Where("id IN ? AND user_id = ?", req.TagIDs, userID).Find(&tags).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query tags failed")
			return nil, false
		}
		if len(tags) != len(req.TagIDs) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "tag not found")
			return nil, false
		}
	}
	return tags, true
}

func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		t, err := util.ParseDateTime(req.OccurredAt)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid occurred_at")
			return
		}
		occurredAt = t
	}

	tags, ok := h.resolveRefs(c, user.ID, &req)
	if !ok {
		return
	}

	tx := models.Transaction{
		UserID:        user.ID,
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		OccurredAt:    occurredAt,
		Type:          req.Type,
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Tags:          tags,
	}
	if err := h.DB.Create(&tx).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create transaction failed")
		return
	}

	util.Success(c, util.Response{"transaction": tx})
}

// List returns transactions with date range, type and category filters,
// pagination, configurable sort, and income/expense totals computed over the
// same filter set.
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.Transaction{}).Where("user_id = ?", user.ID)

	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start must be YYYY-MM-DD")
			return
		}
		base = base.Where("occurred_at >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end must be YYYY-MM-DD")
			return
		}
		// end date is inclusive: < end+1 day
		base = base.Where("occurred_at < ?", end.Add(24*time.Hour))
	}
	if txType := c.Query("type"); txType == models.TypeIncome || txType == models.TypeExpense {
		base = base.Where("type = ?", txType)
	}
	if catStr := c.Query("category_id"); catStr != "" {
		catID, err := strconv.Atoi(catStr)
		if err != nil || catID <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid category_id")
			return
		}
		base = base.Where("category_id = ?", catID)
	}
	if accStr := c.Query("account_id"); accStr != "" {
		accID, err := strconv.Atoi(accStr)
		if err != nil || accID <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account_id")
			return
		}
		base = base.Where("account_id = ?", accID)
	}

	orderBy := "occurred_at DESC, id DESC"
	switch c.DefaultQuery("sort", "date_desc") {
	case "date_asc":
		orderBy = "occurred_at ASC, id ASC"
	case "amount_desc":
		orderBy = "amount DESC, id DESC"
	case "amount_asc":
		orderBy = "amount ASC, id ASC"
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return
	}

	var txs []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Preload("Tags").
		Order(orderBy).
		Limit(size).
		Offset(offset).
		Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return
	}

	var all []models.Transaction
	if err := base.Session(&gorm.Session{}).Find(&all).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "summarize transactions failed")
		return
	}

	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	for i := range all {
		if all[i].Type == models.TypeIncome {
			totalIncome = totalIncome.Add(all[i].Amount)
		} else {
			totalExpense = totalExpense.Add(all[i].Amount)
		}
	}

	util.Success(c, util.Response{
		"items": txs,
		"total": total,
		"page":  page,
		"size":  size,
		"summary": gin.H{
			"total_income":  totalIncome,
			"total_expense": totalExpense,
			"balance":       totalIncome.Sub(totalExpense),
		},
	})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var tx models.Transaction
	if err := h.DB.Preload("Tags").
		Where("id = ? AND user_id = ?", id, user.ID).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "transaction not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transaction failed")
		}
		return
	}

	util.Success(c, util.Response{"transaction": tx})
}

func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	var tx models.Transaction
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "transaction not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transaction failed")
		}
		return
	}

	tags, ok := h.resolveRefs(c, user.ID, &req)
	if !ok {
		return
	}

	if req.OccurredAt != "" {
		t, err := util.ParseDateTime(req.OccurredAt)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid occurred_at")
			return
		}
		tx.OccurredAt = t
	}

	tx.AccountID = req.AccountID
	tx.CategoryID = req.CategoryID
	tx.Type = req.Type
	tx.Description = strings.TrimSpace(req.Description)
	tx.Amount = req.Amount
	tx.PaymentMethod = req.PaymentMethod

	if err := h.DB.Save(&tx).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update transaction failed")
		return
	}
	if err := h.DB.Model(&tx).Association("Tags").Replace(tags); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update tags failed")
		return
	}

	util.Success(c, util.Response{"transaction": tx})
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Transaction{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete transaction failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "transaction not found")
		return
	}

	util.Success(c, util.Response{"message": "transaction deleted"})
}

// GetMonthlyStats returns per-day and per-category totals for one month.
func (h *TransactionHandler) GetMonthlyStats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	monthStr := c.Query("month")
	if monthStr == "" {
		monthStr = time.Now().Format("2006-01")
	}
	t, err := time.Parse("2006-01", monthStr)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "month must be YYYY-MM")
		return
	}

	startOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0)

	var txs []models.Transaction
	if err := h.DB.Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?",
		user.ID, startOfMonth, endOfMonth).
		Order("occurred_at ASC").
		Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return
	}

	type dailyStat struct {
		Date    string          `json:"date"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}
	type categoryStat struct {
		CategoryID uint            `json:"category_id"`
		Income     decimal.Decimal `json:"income"`
		Expense    decimal.Decimal `json:"expense"`
		Balance    decimal.Decimal `json:"balance"`
	}

	dailyMap := make(map[string]*dailyStat)
	catMap := make(map[uint]*categoryStat)
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero

	for i := range txs {
		tx := &txs[i]
		dateKey := tx.OccurredAt.Format("2006-01-02")

		ds, ok := dailyMap[dateKey]
		if !ok {
			ds = &dailyStat{Date: dateKey, Income: decimal.Zero, Expense: decimal.Zero}
			dailyMap[dateKey] = ds
		}
		cs, ok := catMap[tx.CategoryID]
		if !ok {
			cs = &categoryStat{CategoryID: tx.CategoryID, Income: decimal.Zero, Expense: decimal.Zero}
			catMap[tx.CategoryID] = cs
		}

		if tx.Type == models.TypeIncome {
			ds.Income = ds.Income.Add(tx.Amount)
			cs.Income = cs.Income.Add(tx.Amount)
			totalIncome = totalIncome.Add(tx.Amount)
		} else {
			ds.Expense = ds.Expense.Add(tx.Amount)
			cs.Expense = cs.Expense.Add(tx.Amount)
			totalExpense = totalExpense.Add(tx.Amount)
		}
	}

	dailyList := make([]dailyStat, 0, len(dailyMap))
	for _, ds := range dailyMap {
		ds.Balance = ds.Income.Sub(ds.Expense)
		dailyList = append(dailyList, *ds)
	}
	catList := make([]categoryStat, 0, len(catMap))
	for _, cs := range catMap {
		cs.Balance = cs.Income.Sub(cs.Expense)
		catList = append(catList, *cs)
	}

	util.Success(c, util.Response{
		"month":         monthStr,
		"daily":         dailyList,
		"by_category":   catList,
		"total_income":  totalIncome,
		"total_expense": totalExpense,
		"total_balance": totalIncome.Sub(totalExpense),
	})
}
