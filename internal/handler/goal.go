package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalHandler serves savings-goal CRUD.
type GoalHandler struct {
	DB *gorm.DB
}

func NewGoalHandler(db *gorm.DB) *GoalHandler {
	return &GoalHandler{DB: db}
}

type goalReq struct {
	Description   string          `json:"description" binding:"required,min=3,max=100"`
	TargetAmount  decimal.Decimal `json:"target_amount" binding:"required"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Status        string          `json:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED CANCELLED"`
}

func (r *goalReq) toModel(userID uint) (*models.Goal, error) {
	goal := &models.Goal{
		UserID:        userID,
		Description:   strings.TrimSpace(r.Description),
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Status:        r.Status,
	}
	if goal.Status == "" {
		goal.Status = models.GoalInProgress
	}
	if r.StartDate != "" {
		t, err := util.ParseDateTime(r.StartDate)
		if err != nil {
			return nil, err
		}
		goal.StartDate = &t
	}
	if r.EndDate != "" {
		t, err := util.ParseDateTime(r.EndDate)
		if err != nil {
			return nil, err
		}
		goal.EndDate = &t
	}
	return goal, nil
}

func (h *GoalHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req goalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if !req.TargetAmount.IsPositive() || req.CurrentAmount.IsNegative() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amounts")
		return
	}

	goal, err := req.toModel(user.ID)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	if err := h.DB.Create(goal).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create goal failed")
		return
	}

	util.Success(c, util.Response{"goal": goal})
}

func (h *GoalHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var goals []models.Goal
	if err := h.DB.Where("user_id = ?", user.ID).Order("id ASC").Find(&goals).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query goals failed")
		return
	}

	util.Success(c, util.Response{"goals": goals})
}

func (h *GoalHandler) Get(c *gin.Context) {
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

	var goal models.Goal
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&goal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "goal not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query goal failed")
		}
		return
	}

	util.Success(c, util.Response{"goal": goal})
}

func (h *GoalHandler) Update(c *gin.Context) {
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

	var req goalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if !req.TargetAmount.IsPositive() || req.CurrentAmount.IsNegative() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amounts")
		return
	}

	var goal models.Goal
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&goal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "goal not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query goal failed")
		}
		return
	}

	in, err := req.toModel(user.ID)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	goal.Description = in.Description
	goal.TargetAmount = in.TargetAmount
	goal.CurrentAmount = in.CurrentAmount
	goal.StartDate = in.StartDate
	goal.EndDate = in.EndDate
	goal.Status = in.Status

	if err := h.DB.Save(&goal).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update goal failed")
		return
	}

	util.Success(c, util.Response{"goal": goal})
}

func (h *GoalHandler) Delete(c *gin.Context) {
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

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Goal{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete goal failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "goal not found")
		return
	}

	util.Success(c, util.Response{"message": "goal deleted"})
}
