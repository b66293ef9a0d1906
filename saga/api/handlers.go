// Package api exposes the enrollment saga over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/payment"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

const defaultListLimit = 50

type SagaRunner interface {
	ExecuteEnrollmentSaga(ctx context.Context, userID, courseID int64) saga.Result
}

type StateReader interface {
	GetTransactionState(ctx context.Context, sagaId string) (*saga.Instance, error)
}

type PaymentCreator interface {
	CreatePayment(ctx context.Context, req payment.Request) (payment.Payment, error)
}

type EnrollRequest struct {
	UserID   int64 `json:"userId" binding:"required"`
	CourseID int64 `json:"courseId" binding:"required"`
}

type EnrollResponse struct {
	Success      bool   `json:"success"`
	SagaID       string `json:"sagaId"`
	EnrollmentID string `json:"enrollmentId,omitempty"`
	PaymentID    string `json:"paymentId,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}

type SagaBatch struct {
	Total int             `json:"total"`
	Items []*saga.Instance `json:"items"`
}

type Handler struct {
	runner   SagaRunner
	states   StateReader
	store    saga.Store
	payments PaymentCreator
	logger   log.Logger
}

func NewHandler(runner SagaRunner, states StateReader, store saga.Store, payments PaymentCreator, logger log.Logger) *Handler {
	return &Handler{runner: runner, states: states, store: store, payments: payments, logger: logger}
}

// Enroll runs the orchestrated saga synchronously and answers with its definitive result
func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.runner.ExecuteEnrollmentSaga(c.Request.Context(), req.UserID, req.CourseID)

	if !result.Success {
		h.loggerFor(c).Logf(log.WarnLevel, "enrollment saga %s failed. %s", result.SagaID, result.Message)
		c.JSON(http.StatusInternalServerError, EnrollResponse{SagaID: result.SagaID, Error: result.Message})
		return
	}

	c.JSON(http.StatusOK, EnrollResponse{
		Success:      true,
		SagaID:       result.SagaID,
		EnrollmentID: result.EnrollmentID,
		PaymentID:    result.PaymentID,
		Message:      result.Message,
	})
}

// GetStatus returns the coordinator's projection of a saga
func (h *Handler) GetStatus(c *gin.Context) {
	sagaId := c.Param("sagaId")

	instance, err := h.states.GetTransactionState(c.Request.Context(), sagaId)
	if err != nil {
		if !errors.Is(err, saga.ErrSagaNotFound) {
			h.loggerFor(c).Logf(log.ErrorLevel, "loading state of saga %s. %s", sagaId, err)
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, instance)
}

// List filters projected sagas by status with offset and limit
func (h *Handler) List(c *gin.Context) {
	opts := []saga.FilterOption{}

	for _, s := range c.QueryArray("status") {
		status := saga.Status(s)
		if !status.Valid() {
			writeError(c, NewResponseError(http.StatusBadRequest, errors.Errorf("unknown status '%s'", s)))
			return
		}
		opts = append(opts, saga.WithStatus(status))
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		writeError(c, err)
		return
	}

	total, err := h.store.Count(c.Request.Context(), opts...)
	if err != nil {
		h.loggerFor(c).Logf(log.ErrorLevel, "counting sagas. %s", err)
		writeError(c, err)
		return
	}

	opts = append(opts, saga.WithOffsetAndLimit(offset, limit))

	items, err := h.store.GetByFilter(c.Request.Context(), opts...)
	if err != nil {
		h.loggerFor(c).Logf(log.ErrorLevel, "listing sagas. %s", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SagaBatch{Total: total, Items: items})
}

// CreatePayment starts the choreographed saga, the outcome arrives later as PaymentConfirmed or PaymentFailed
func (h *Handler) CreatePayment(c *gin.Context) {
	var req payment.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.payments.CreatePayment(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			writeError(c, NewResponseError(http.StatusBadRequest, err))
			return
		}

		h.loggerFor(c).Logf(log.ErrorLevel, "creating payment. %s", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, p)
}

func (h *Handler) loggerFor(c *gin.Context) log.Logger {
	return h.logger.WithFields([]log.Field{{Name: "traceId", Val: TraceID(c)}})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, NewResponseError(http.StatusBadRequest, errors.Errorf("query parameter '%s' is expected to be a non negative integer", name))
	}

	return val, nil
}
