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

// TagHandler serves tag CRUD.
type TagHandler struct {
	DB *gorm.DB
}

func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{DB: db}
}

type tagReq struct {
	Name string `json:"name" binding:"required,max=50"`
}

func (h *TagHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	tag := models.Tag{UserID: user.ID, Name: strings.TrimSpace(req.Name)}
	if err := h.DB.Create(&tag).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create tag failed")
		return
	}

	util.Success(c, util.Response{"tag": tag})
}

func (h *TagHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var tags []models.Tag
	if err := h.DB.Where("user_id = ?", user.ID).Order("name ASC").Find(&tags).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query tags failed")
		return
	}

	util.Success(c, util.Response{"tags": tags})
}

func (h *TagHandler) Update(c *gin.Context) {
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

	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	var tag models.Tag
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&tag).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "tag not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query tag failed")
		}
		return
	}

	tag.Name = strings.TrimSpace(req.Name)
	if err := h.DB.Save(&tag).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update tag failed")
		return
	}

	util.Success(c, util.Response{"tag": tag})
}

func (h *TagHandler) Delete(c *gin.Context) {
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

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Tag{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete tag failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "tag not found")
		return
	}

	util.Success(c, util.Response{"message": "tag deleted"})
}
