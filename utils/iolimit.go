package utils

import (
	"errors"
	"io"
)

var ErrIOLimitReached = errors.New("read size limit reached")

// ReadAllLimit reads at most n bytes. If r has more than that, the first n
// bytes are returned along with ErrIOLimitReached.
func ReadAllLimit(r io.Reader, n int64) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, n+1))
	if err != nil {
		return buf, err
	}
	if int64(len(buf)) > n {
		return buf[:n], ErrIOLimitReached
	}
	return buf, nil
}
