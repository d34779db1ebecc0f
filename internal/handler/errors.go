package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler knows what was looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a recipient validation failure.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err, domain.ErrValidation)}}
}

// invalidOfferBody returns an ErrorResponse for a malformed donation offer.
func invalidOfferBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "invalid_offer", Message: unwrapMessage(err, domain.ErrInvalidOffer)}}
}

// requestBody returns an ErrorResponse for a request rejected before reaching
// the service layer (e.g. a required field missing from the body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

func badRequestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: message}}
}

// unwrapMessage extracts the human-readable part that follows sentinel in a
// wrapped error.
// e.g. "service.RecipientService.Create: validation error: name is required" → "name is required"
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// writeDecodeError maps a JSON body decoding failure onto 413 or 400.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code:    "request_too_large",
			Message: "request body too large",
		}})
		return
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		writeJSON(w, http.StatusBadRequest, badRequestBody("field "+typeErr.Field+" has the wrong type"))
	case errors.As(err, &syntax), errors.Is(err, errEmptyBody):
		writeJSON(w, http.StatusBadRequest, badRequestBody("request body must be a JSON object"))
	default:
		writeJSON(w, http.StatusBadRequest, badRequestBody("malformed request body"))
	}
}

// writeInternalError logs err and writes an opaque 500.
func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "internal_error",
		Message: "internal server error",
	}})
}
