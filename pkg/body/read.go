package body

import (
	"errors"
	"fmt"
	"io"
)

// MinChunk is the allocation used when the caller passes an empty buffer.
const MinChunk = 64

// Reader errors.
var (
	ErrEmpty    = errors.New("nothing to read")
	ErrRead     = errors.New("read failed")
	ErrTooLarge = errors.New("payload exceeds limit")
)

// Read reads r until the stream ends and leaves exactly the bytes read in
// *buf. The buffer is doubled whenever a read fills it.
func Read(r io.Reader, buf *[]byte) (int, error) {
	return read(r, buf, 0)
}

// ReadLimit is Read with an upper bound on the payload size. It fails with
// ErrTooLarge as soon as more than limit bytes have arrived. A limit <= 0
// means no bound.
func ReadLimit(r io.Reader, buf *[]byte, limit int) (int, error) {
	return read(r, buf, limit)
}

func read(r io.Reader, buf *[]byte, limit int) (int, error) {
	b := *buf
	if len(b) == 0 {
		b = make([]byte, MinChunk)
	}
	if limit > 0 && len(b) > limit+1 {
		b = b[:limit+1]
	}

	total := 0
	for {
		n, err := r.Read(b[total:])
		total += n

		if limit > 0 && total > limit {
			*buf = b[:0]
			return total, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
		}
		if n > 0 && total == len(b) {
			b = grow(b, limit)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			*buf = b[:total]
			return total, fmt.Errorf("%w after %d bytes: %w", ErrRead, total, err)
		}
		if n == 0 {
			break
		}
	}

	if total == 0 {
		*buf = b[:0]
		return 0, ErrEmpty
	}

	*buf = b[:total]
	return total, nil
}

// grow doubles b with zero-filled bytes. With a limit the new length never
// exceeds limit+1, which is enough to detect an oversized payload.
func grow(b []byte, limit int) []byte {
	extra := len(b)
	if limit > 0 && len(b)+extra > limit+1 {
		extra = limit + 1 - len(b)
	}
	return append(b, make([]byte, extra)...)
}
