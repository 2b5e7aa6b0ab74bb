package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultBodyLimit bounds JSON request bodies. Design documents with an
// embedded preview data URL are large, so the limit is generous.
const DefaultBodyLimit int64 = 8 << 20

var (
	// ErrBodyTooLarge is returned when the request body exceeds the limit.
	ErrBodyTooLarge = errors.New("httpx: request body too large")
	// ErrEmptyBody is returned when a JSON body is required but missing.
	ErrEmptyBody = errors.New("httpx: request body is empty")
)

// DecodeJSON reads at most limit bytes from r.Body and decodes them into dst.
// Unknown fields are rejected.
func DecodeJSON(r *http.Request, limit int64, dst any) error {
	if r == nil || r.Body == nil {
		return ErrEmptyBody
	}
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return ErrBodyTooLarge
	}
	if len(data) == 0 {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// WriteDecodeError maps DecodeJSON failures onto the error envelope.
func WriteDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		WriteError(r.Context(), w, NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
	case errors.Is(err, ErrEmptyBody):
		WriteError(r.Context(), w, BadRequest("invalid_request", "request body is required"))
	default:
		WriteError(r.Context(), w, BadRequest("invalid_json", err.Error()))
	}
}
