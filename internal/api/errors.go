// internal/api/errors.go
//
// Error → HTTP status mapping and JSON error bodies.
//
// Context
// -------
// Handlers never choose a status for a failure themselves; they hand the
// error to writeError, which maps domain kinds:
//
//   - validation kinds, unknown dialect  → 400
//   - ErrNotFound                        → 404
//   - ErrDuplicateCode                   → 409
//   - ErrStoreUnavailable, ctx deadline  → 503
//   - anything else                      → 500
//
// Field-level failures carry []ErrorField so a form can highlight the
// exact input.
//
// Notes
// -----
//   - 5xx bodies never echo the cause; it is logged instead.
//   - Oxford commas, two spaces after periods.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/label"
)

// ErrorField describes a single input failure.
type ErrorField struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error  string       `json:"error"`
	Kind   string       `json:"kind"`
	Fields []ErrorField `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status and a short machine kind.
func statusFor(err error) (int, string) {
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsValidation(err), errors.Is(err, label.ErrUnknownDialect):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDuplicateCode):
		return http.StatusConflict, "duplicate_code"
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError renders err as JSON with the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	body := errorBody{Error: err.Error(), Kind: kind, Fields: fieldsOf(err)}

	if status >= 500 {
		zap.L().Error("request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

// fieldsOf flattens domain and validator field errors.
func fieldsOf(err error) []ErrorField {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return []ErrorField{{Field: fe.Field, Message: fe.Message}}
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ErrorField, 0, len(ve))
		for _, e := range ve {
			out = append(out, ErrorField{Field: jsonPath(e.Namespace()), Message: describe(e)})
		}
		return out
	}
	return nil
}

// jsonPath turns "generatePayload.Items[0].Code" into "items[0].code".
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i != -1 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must contain digits only"
	case "len":
		return "must have exactly " + e.Param() + " characters"
	case "max":
		return "cannot exceed " + e.Param() + " characters"
	case "uuid":
		return "must be a record id"
	default:
		return "failed " + e.Tag() + " check"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}
