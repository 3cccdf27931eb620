package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/service/portfolio"
	"github.com/mamadbah2/caskwarehouse/internal/service/warehouse"
)

// LifecycleKeyHeader carries the shared secret for lifecycle writes.
const LifecycleKeyHeader = "x-lifecycle-key"

var registerJSONNames sync.Once

// LifecycleHandler accepts lifecycle events from custody systems.
type LifecycleHandler struct {
	adapter warehouse.Adapter
	apiKey  string
	logger  *zap.Logger
}

// NewLifecycleHandler constructs the handler. An empty apiKey disables the
// shared-secret check.
func NewLifecycleHandler(adapter warehouse.Adapter, apiKey string, logger *zap.Logger) *LifecycleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerJSONNames.Do(useJSONFieldNames)
	return &LifecycleHandler{adapter: adapter, apiKey: apiKey, logger: logger}
}

// Record appends a lifecycle event to a cask.
func (h *LifecycleHandler) Record(c *gin.Context) {
	if h.apiKey != "" {
		supplied := c.GetHeader(LifecycleKeyHeader)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.apiKey)) != 1 {
			h.logger.Warn("rejected lifecycle event", zap.String("client_ip", c.ClientIP()))
			respondError(c, http.StatusUnauthorized, "unauthorized lifecycle event source")
			return
		}
	}

	var req models.LifecycleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid lifecycle payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:  "invalid payload",
			Issues: ValidationIssues(err),
		})
		return
	}

	event, err := h.adapter.RecordLifecycle(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.LifecyclePostResponse{OK: true, Event: event})
	case errors.Is(err, portfolio.ErrCaskNotFound):
		respondError(c, http.StatusNotFound, "cask not found")
	case errors.Is(err, portfolio.ErrLifecycleValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed recording lifecycle event", zap.Int("cask_id", req.CaskID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to record lifecycle event")
	}
}

// ValidationIssues flattens a binding error into per-field issues.
func ValidationIssues(err error) []models.ValidationIssue {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]models.ValidationIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, models.ValidationIssue{
				Path:    fe.Field(),
				Code:    fe.Tag(),
				Message: issueMessage(fe),
			})
		}
		return issues
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.ValidationIssue{{
			Path:    typeErr.Field,
			Code:    "invalid_type",
			Message: fmt.Sprintf("expected %s, received %s", typeErr.Type, typeErr.Value),
		}}
	}

	return []models.ValidationIssue{{Code: "invalid_json", Message: err.Error()}}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// useJSONFieldNames makes validation errors report JSON field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
