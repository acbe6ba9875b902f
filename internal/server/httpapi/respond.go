package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"go.opentelemetry.io/otel/trace"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v. Malformed bodies are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", common.ErrorValidation)
		}
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}

type statusRule struct {
	err    error
	status int
}

// statusRules maps sentinel errors to HTTP statuses. The first match wins.
var statusRules = []statusRule{
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
	{common.ErrorForbidden, http.StatusForbidden},
	{common.ErrInvalidSignature, http.StatusForbidden},
	{common.ErrLinkExpired, http.StatusForbidden},
	{common.ErrorPaymentRequired, http.StatusBadRequest},
	{common.ErrorAlreadyReleased, http.StatusBadRequest},
	{common.ErrAlreadyMatched, http.StatusBadRequest},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrNoFileAvailable, http.StatusNotFound},
	{common.ErrNotConfigured, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, rule := range statusRules {
		if errors.Is(err, rule.err) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}. Unknown errors are logged and
// reported as "internal error".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, err, statusFor(err))
}

// writeErrorStatus is writeError with the status already decided, for the
// endpoints where a sentinel maps differently.
func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := err.Error()
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		trace.SpanFromContext(r.Context()).RecordError(err)
		msg = common.ErrorInternal.Error()
	case status == http.StatusForbidden:
		msg = common.ErrorForbidden.Error()
	case status == http.StatusUnauthorized:
		msg = common.ErrorUnauthorized.Error()
	}
	if errors.Is(err, common.ErrNotConfigured) {
		msg = err.Error()
	}
	if errors.Is(err, common.ErrorPaymentRequired) {
		msg = common.ErrorPaymentRequired.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
