package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/kinboard/pkg/errors"
)

// maxBody caps request bodies; a member with a long bio is a few KB.
const maxBody = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps an error code to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusOf(code)
	if errors.IsNotFound(err) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: code})
}

func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeMemberNotFound, errors.ErrCodeConnectionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidID, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// localized reports whether the request asks for localized names, falling
// back to def.
func localized(r *http.Request, def bool) bool {
	v := r.URL.Query().Get("zh")
	if v == "" {
		return def
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return on
}
