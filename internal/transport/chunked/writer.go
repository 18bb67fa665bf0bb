package chunked

import (
	"fmt"
	"io"
)

// NewChunkedWriter is taken from golang src/net/http/internal/chunked.go
func NewChunkedWriter(w io.Writer) *chunkedWriter {
	return &chunkedWriter{Wire: w}
}

type chunkedWriter struct {
	Wire io.Writer
	err  error
}

func (cw *chunkedWriter) Write(data []byte) (n int, err error) {
	// Don't send 0-length data. It looks like EOF for chunked encoding.
	if len(data) == 0 {
		return 0, nil
	}
	defer func() {
		if err != nil {
			cw.err = err
		}
	}()

	if _, err = fmt.Fprintf(cw.Wire, "%x\r\n", len(data)); err != nil {
		return 0, err
	}
	if n, err = cw.Wire.Write(data); err != nil {
		return
	}
	if n != len(data) {
		err = io.ErrShortWrite
		return
	}
	_, err = io.WriteString(cw.Wire, "\r\n")
	return
}

// Close writes the last chunk. It does nothing once a write failed, the
// stream is broken and must be dropped by the caller.
func (cw *chunkedWriter) Close() error {
	if cw.err != nil {
		return nil
	}
	n, err := io.WriteString(cw.Wire, "0\r\n\r\n")
	if err == nil && n != 5 {
		return io.ErrShortWrite
	}
	cw.err = io.ErrClosedPipe
	return err
}
