package loaders

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

const readChunkSize = 32 * 1024

// ReadAll reads r until EOF. It is the first half of every load: nothing is
// parsed until the whole buffer is available. Cancelling ctx between chunks
// aborts the read and yields no data.
func ReadAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, &resources.IOError{Op: "read", Err: errors.New("nil reader")}
	}

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &resources.IOError{Op: "read", Err: err}
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, &resources.IOError{Op: "read", Err: err}
		}
	}
}
