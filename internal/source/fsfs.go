package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
)

// OpenFS opens name inside files. A missing entry, or one that is a
// directory, is reported as ok == false.
func OpenFS(ctx context.Context, files fs.FS, name string) (io.ReadCloser, bool, error) {
	if files == nil {
		return nil, false, errors.New("source: fs is nil")
	}
	if name == "" {
		return nil, false, errors.New("source: fs path is required")
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	if !fs.ValidPath(name) {
		return nil, false, nil
	}

	f, err := files.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, false, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, false, nil
	}
	return f, true, nil
}
