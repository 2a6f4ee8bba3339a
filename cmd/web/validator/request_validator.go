package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrInvalidJSON = errors.New("invalid json")

const defaultMaxBodyBytes = 1 << 20

// JSON decodes request bodies strictly: unknown fields, trailing data and
// oversized bodies are all rejected, so a typoed field name fails loudly
// instead of silently defaulting.
type JSON struct {
	MaxBytes int64
}

func NewJSON() *JSON {
	return &JSON{MaxBytes: defaultMaxBodyBytes}
}

func (v *JSON) Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := v.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return nil
}
