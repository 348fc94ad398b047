package web

// errors.go turns service errors into JSON error bodies.
//
// The status and category come from the error type; the code and the
// suggested action come from core.MapError. The technical error is logged
// with the request id, clients only see the message of 4xx errors.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/estates/internal/auth"
	"github.com/JonMunkholm/estates/internal/core"
	"github.com/JonMunkholm/estates/internal/logging"
)

var errRateLimited = errors.New("rate limit exceeded")

// Error categories carried in the "error" field.
const (
	CategoryNotFound    = "not_found"
	CategoryValidation  = "validation_error"
	CategoryIntegrity   = "integrity_violation"
	CategoryAuth        = "unauthorized"
	CategoryConflict    = "conflict"
	CategoryRateLimited = "rate_limited"
	CategoryInternal    = "internal_error"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error      string  `json:"error"`
	Message    string  `json:"message"`
	Code       string  `json:"code"`
	Action     string  `json:"action,omitempty"`
	Field      string  `json:"field,omitempty"`
	ID         *int32  `json:"id,omitempty"`
	MissingIDs []int32 `json:"missing_ids,omitempty"`
}

// classifyError picks the HTTP status and body for err.
func classifyError(err error) (int, ErrorResponse) {
	userMsg := core.MapError(err)
	resp := ErrorResponse{
		Message: err.Error(),
		Code:    userMsg.Code,
		Action:  userMsg.Action,
	}

	var (
		ve *core.ValidationError
		nf *core.NotFoundError
		ie *core.IntegrityError
	)
	switch {
	case errors.As(err, &ve):
		resp.Error = CategoryValidation
		resp.Field = ve.Field
		return http.StatusUnprocessableEntity, resp

	case errors.As(err, &nf):
		resp.Error = CategoryNotFound
		if len(nf.IDs) > 0 {
			resp.MissingIDs = nf.IDs
		} else if nf.Name == "" {
			id := nf.ID
			resp.ID = &id
		}
		return http.StatusNotFound, resp

	case errors.As(err, &ie):
		resp.Error = CategoryIntegrity
		if ie.Hint != "" {
			resp.Action = ie.Hint
		}
		return http.StatusBadRequest, resp

	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		resp.Error = CategoryAuth
		return http.StatusUnauthorized, resp

	case errors.Is(err, core.ErrIngestBusy), errors.Is(err, core.ErrSchedulerStopped),
		errors.Is(err, errIngestDisabled):
		resp.Error = CategoryConflict
		return http.StatusConflict, resp

	case errors.Is(err, errRateLimited):
		resp.Error = CategoryRateLimited
		return http.StatusTooManyRequests, resp
	}

	// Never leak internal error text.
	resp.Error = CategoryInternal
	resp.Message = userMsg.Message
	return http.StatusInternalServerError, resp
}

// respondError logs err and writes its JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classifyError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", resp.Code,
		"error", err.Error(),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error")
	} else {
		logger.Warn("request rejected")
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	writeJSON(w, r, status, resp)
}
