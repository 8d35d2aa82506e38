package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OpenFile opens path on disk. A missing file is reported as ok == false.
func OpenFile(ctx context.Context, path string) (io.ReadCloser, bool, error) {
	if path == "" {
		return nil, false, errors.New("source: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, err
	}

	f, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}
