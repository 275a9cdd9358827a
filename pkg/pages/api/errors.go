package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-pages/pkg/pages"
)

// ErrorResponse is the body written for failed requests
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failure
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps page errors onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	var integrity *pages.IntegrityError
	var identType *pages.IdentifierTypeError
	switch {
	case errors.As(err, &integrity):
		return http.StatusInternalServerError, "integrity_error"
	case errors.Is(err, pages.ErrPageNotFound):
		return http.StatusNotFound, "page_not_found"
	case errors.Is(err, pages.ErrDuplicatePage):
		return http.StatusConflict, "duplicate_page"
	case errors.Is(err, pages.ErrPageHasChildren):
		return http.StatusConflict, "page_has_children"
	case errors.Is(err, pages.ErrInvalidPage), errors.Is(err, pages.ErrCyclicHierarchy):
		return http.StatusBadRequest, "invalid_page"
	case errors.Is(err, pages.ErrUnknownContentType):
		return http.StatusBadRequest, "unknown_content_type"
	case errors.As(err, &identType), errors.Is(err, errRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	requestID, _ := r.Context().Value(RequestIDKey).(string)

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: msg, RequestID: requestID}})
}
