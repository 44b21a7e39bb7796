// Package storage moves Ogg files and packet dumps between the CLI and
// where they live: the local filesystem or an S3-compatible bucket.
//
// Locations are given as URIs. "s3://bucket/some/key.ogg" names an object;
// anything else is a local path.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidPath is returned for empty paths. Leading ".." elements are
// dropped, so a path never resolves outside the store root.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileStore is a minimal file-oriented store.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations are safe for concurrent use.
type FileStore interface {
	// Read opens the named file. A missing file yields an error wrapping
	// os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or truncates the named file. Data becomes visible
	// once the returned writer is closed without error.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Stat returns the size of the named file. A missing file yields an
	// error wrapping os.ErrNotExist.
	Stat(ctx context.Context, path string) (int64, error)
}

// Exists reports whether the named file exists in fs.
func Exists(ctx context.Context, fs FileStore, name string) (bool, error) {
	_, err := fs.Stat(ctx, name)
	if err == nil {
		return true, nil
	}
	if isNotExist(err) {
		return false, nil
	}
	return false, err
}

// cleanPath normalizes a store-relative path.
func cleanPath(p string) (string, error) {
	c := path.Clean("/" + strings.TrimSpace(p))[1:]
	if c == "" || c == "." {
		return "", ErrInvalidPath
	}
	return c, nil
}

// ContentType returns the media type recorded for objects written under
// name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".opus":
		return "audio/ogg; codecs=opus"
	case ".ogv":
		return "video/ogg"
	case ".oggpk":
		return "application/x-msgpack"
	default:
		return "application/octet-stream"
	}
}
