package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/normalizer"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/storage"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  []documents.FieldError `json:"fields,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates domain errors to HTTP status codes and error codes.
func MapError(err error) (status int, apiErr *APIError) {
	var (
		extraction *normalizer.ExtractionError
		malformed  *normalizer.MalformedResponseError
		schemaErr  *documents.SchemaValidationError
	)

	switch {
	case errors.Is(err, storage.ErrUnsupportedExtension):
		return http.StatusBadRequest, &APIError{Code: "UNSUPPORTED_FILE_TYPE", Message: err.Error()}
	case errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest, &APIError{Code: "EMPTY_FILE", Message: "file is empty"}
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, &APIError{Code: "FILE_TOO_LARGE", Message: "file exceeds maximum allowed size"}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity, &APIError{Code: "EXTRACTION_FAILED", Message: err.Error()}
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, &APIError{Code: "SCHEMA_VALIDATION_FAILED", Message: "structured document does not match schema", Fields: schemaErr.Fields}
	case errors.As(err, &malformed):
		return http.StatusBadGateway, &APIError{Code: "MALFORMED_MODEL_RESPONSE", Message: "language model returned malformed JSON"}
	case errors.Is(err, scoring.ErrUnknownStrategy):
		return http.StatusBadRequest, &APIError{Code: "UNKNOWN_STRATEGY", Message: err.Error()}
	case errors.Is(err, scoring.ErrStrategyDisabled):
		return http.StatusConflict, &APIError{Code: "STRATEGY_DISABLED", Message: err.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func (s *Server) HandleError(c *gin.Context, err error) {
	status, apiErr := MapError(err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(c).Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.requestLogger(c).Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, APIResponse{Success: false, Error: apiErr})
}
