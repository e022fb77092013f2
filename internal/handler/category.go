package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

type categoryReq struct {
	Name string `json:"name" binding:"required,min=3,max=50"`
	Type string `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Icon string `json:"icon" binding:"max=255"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	category := models.Category{
		UserID: user.ID,
		Name:   strings.TrimSpace(req.Name),
		Type:   req.Type,
		Icon:   req.Icon,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create category failed")
		return
	}

	util.Success(c, util.Response{"category": category})
}

func (h *CategoryHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)
	if t := c.Query("type"); t == models.TypeIncome || t == models.TypeExpense {
		q = q.Where("type = ?", t)
	}

	var categories []models.Category
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query categories failed")
		return
	}

	util.Success(c, util.Response{"categories": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
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

	var category models.Category
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
		}
		return
	}

	util.Success(c, util.Response{"category": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
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

	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	var category models.Category
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
		}
		return
	}

	category.Name = strings.TrimSpace(req.Name)
	category.Type = req.Type
	category.Icon = req.Icon

	if err := h.DB.Save(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update category failed")
		return
	}

	util.Success(c, util.Response{"category": category})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
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

	// categories referenced by transactions or recurring definitions cannot
	// be removed
	var inUse int64
	if err := h.DB.Model(&models.Transaction{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete category failed")
		return
	}
	if inUse == 0 {
		if err := h.DB.Model(&models.RecurringTransaction{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete category failed")
			return
		}
	}
	if inUse > 0 {
		util.Error(c, http.StatusConflict, util.CodeConflict, "category is in use")
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Category{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete category failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		return
	}

	util.Success(c, util.Response{"message": "category deleted"})
}
