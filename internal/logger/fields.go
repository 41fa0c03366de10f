package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider     = "ai_provider"
	FieldModel        = "ai_model"
	FieldRequestID    = "request_id"
	FieldDocumentKind = "document_kind"
	FieldStrategy     = "strategy"
)

// Strings turns alternating key/value pairs into zap string fields. Pairs with
// a blank key or value are dropped and a trailing key without a value is ignored.
func Strings(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// WithFields returns logger.With(fields...), or a no-op logger when logger is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithCommonFields tags every entry with the language model provider and model.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, Strings(FieldProvider, provider, FieldModel, model)...)
}

// WithRequest tags every entry with the HTTP request id and, when known, the
// scoring strategy.
func WithRequest(logger *zap.Logger, requestID, strategy string) *zap.Logger {
	return WithFields(logger, Strings(FieldRequestID, requestID, FieldStrategy, strategy)...)
}
