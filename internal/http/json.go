package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

const maxBodyBytes = 1 << 20

// DecodeJSONObject decodes an optional JSON object body. An empty body yields an empty map.
func DecodeJSONObject(r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "request body must be a JSON object")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}
