package handler

import (
	"net/http"
	"strconv"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/recurrence"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetHandler serves budget CRUD.
type BudgetHandler struct {
	DB *gorm.DB
}

func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{DB: db}
}

type budgetReq struct {
	CategoryID uint            `json:"category_id" binding:"required"`
	Period     string          `json:"period" binding:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	LimitValue decimal.Decimal `json:"limit_value" binding:"required"`
}

func (h *BudgetHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req budgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if !req.LimitValue.IsPositive() || !recurrence.ValidPeriodicity(req.Period) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid budget")
		return
	}

	var n int64
	if err := h.DB.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", req.CategoryID, user.ID).Count(&n).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
		return
	}
	if n == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		return
	}

	budget := models.Budget{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Period:     req.Period,
		LimitValue: req.LimitValue,
	}
	if err := h.DB.Create(&budget).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create budget failed")
		return
	}

	util.Success(c, util.Response{"budget": budget})
}

func (h *BudgetHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var budgets []models.Budget
	if err := h.DB.Where("user_id = ?", user.ID).Order("id ASC").Find(&budgets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query budgets failed")
		return
	}

	util.Success(c, util.Response{"budgets": budgets})
}

func (h *BudgetHandler) Get(c *gin.Context) {
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

	var budget models.Budget
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&budget).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "budget not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query budget failed")
		}
		return
	}

	util.Success(c, util.Response{"budget": budget})
}

func (h *BudgetHandler) Update(c *gin.Context) {
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

	var req budgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if !req.LimitValue.IsPositive() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "limit must be positive")
		return
	}

	var budget models.Budget
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&budget).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "budget not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query budget failed")
		}
		return
	}

	budget.CategoryID = req.CategoryID
	budget.Period = req.Period
	budget.LimitValue = req.LimitValue

	if err := h.DB.Save(&budget).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update budget failed")
		return
	}

	util.Success(c, util.Response{"budget": budget})
}

func (h *BudgetHandler) Delete(c *gin.Context) {
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

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Budget{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete budget failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "budget not found")
		return
	}

	util.Success(c, util.Response{"message": "budget deleted"})
}
