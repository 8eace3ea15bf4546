package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/session"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// applied is the response of commands that may be silent no-ops.
type applied struct {
	Applied bool `json:"applied"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) {
		err = errs.Wrap(errs.ErrCodeNotFound, err, "session %q", chi.URLParam(r, "id"))
	}
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errs.UserMessage(err)}})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidDocument, errs.ErrCodeInvalidNodeType, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeConflict:
		return http.StatusConflict
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errs.ErrCodeLayoutFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes the JSON request body into v. Unknown fields are
// rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
