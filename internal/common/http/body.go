package http

import (
	"errors"
	"io"
)

// ErrBodyTooLarge is returned by ReadLimited when r holds more than limit bytes.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// ReadLimited reads all of r, failing with ErrBodyTooLarge instead of
// truncating. limit <= 0 reads without a cap.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
