package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/middleware"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/recurrence"
	"github.com/matteusmanoel/granaguru-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RecurringHandler serves recurring-transaction CRUD plus the explicit
// catch-up trigger. All scheduling decisions live in the recurrence package;
// this layer only binds requests and maps errors to HTTP responses.
type RecurringHandler struct {
	Service *recurrence.Service
}

func NewRecurringHandler(service *recurrence.Service) *RecurringHandler {
	return &RecurringHandler{Service: service}
}

type recurringReq struct {
	AccountID         uint            `json:"account_id" binding:"required"`
	CategoryID        uint            `json:"category_id" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Type              string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Description       string          `json:"description" binding:"required,max=255"`
	Periodicity       string          `json:"periodicity" binding:"required"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	TotalInstallments *int            `json:"total_installments"`
	FixedExpense      bool            `json:"fixed_expense"`
}

func (r *recurringReq) toModel(userID uint) (*models.RecurringTransaction, error) {
	rec := &models.RecurringTransaction{
		UserID:            userID,
		AccountID:         r.AccountID,
		CategoryID:        r.CategoryID,
		Amount:            r.Amount,
		Type:              r.Type,
		Description:       strings.TrimSpace(r.Description),
		Periodicity:       strings.ToUpper(r.Periodicity),
		TotalInstallments: r.TotalInstallments,
		FixedExpense:      r.FixedExpense,
	}
	if r.StartDate != "" {
		t, err := util.ParseDateTime(r.StartDate)
		if err != nil {
			return nil, err
		}
		rec.StartDate = t
	}
	if r.EndDate != "" {
		t, err := util.ParseDateTime(r.EndDate)
		if err != nil {
			return nil, err
		}
		rec.EndDate = &t
	}
	return rec, nil
}

// serviceError maps recurrence errors onto the response envelope.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recurrence.ErrNotFound),
		errors.Is(err, recurrence.ErrUserNotFound),
		errors.Is(err, recurrence.ErrAccountNotFound),
		errors.Is(err, recurrence.ErrCategoryNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, recurrence.ErrInvalid),
		errors.Is(err, recurrence.ErrUnknownPeriodicity):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
	}
}

func (h *RecurringHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var req recurringReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	rec, err := req.toModel(user.ID)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	if err := h.Service.Create(rec); err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{"recurring_transaction": rec})
}

func (h *RecurringHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	recs, err := h.Service.FindAll(user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{"recurring_transactions": recs})
}

func (h *RecurringHandler) Get(c *gin.Context) {
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

	rec, err := h.Service.FindByID(user.ID, uint(id))
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{"recurring_transaction": rec})
}

func (h *RecurringHandler) Update(c *gin.Context) {
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

	var req recurringReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	in, err := req.toModel(user.ID)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
		return
	}

	rec, err := h.Service.Update(user.ID, uint(id), in)
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{"recurring_transaction": rec})
}

func (h *RecurringHandler) Delete(c *gin.Context) {
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

	if err := h.Service.Delete(user.ID, uint(id)); err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{"message": "recurring transaction deleted"})
}

// Process triggers an immediate catch-up pass over all due definitions.
// Idempotent: repeated calls with no time elapsed create nothing new.
func (h *RecurringHandler) Process(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	processed, err := h.Service.Processor().ProcessAllDue(time.Now())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "catch-up failed")
		return
	}

	util.Success(c, util.Response{"processed": processed})
}
