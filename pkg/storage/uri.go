package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location is a parsed storage URI.
type Location struct {
	// Bucket is set for s3:// URIs.
	Bucket string

	// Path is the object key for S3, or the file path for local URIs.
	Path string
}

// IsS3 reports whether the location names an S3 object.
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// ParseURI parses "s3://bucket/key" or a local path. "file://" prefixes
// are stripped.
func ParseURI(uri string) (Location, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("storage: invalid s3 uri %q: want s3://bucket/key", uri)
		}
		return Location{Bucket: bucket, Path: key}, nil
	case strings.HasPrefix(uri, "file://"):
		uri = strings.TrimPrefix(uri, "file://")
	}
	if uri == "" {
		return Location{}, ErrInvalidPath
	}
	return Location{Path: uri}, nil
}

// Resolver opens FileStores for URIs.
type Resolver struct {
	// S3 builds clients for s3:// URIs. Nil rejects them.
	S3 func(bucket string) S3Client

	// Root anchors relative local paths. Empty means the working
	// directory.
	Root string
}

// Resolve returns the store holding uri and the path of uri inside it.
func (r *Resolver) Resolve(uri string) (FileStore, string, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, "", err
	}
	if loc.IsS3() {
		if r.S3 == nil {
			return nil, "", fmt.Errorf("storage: %s: s3 is not configured", uri)
		}
		return NewS3(r.S3(loc.Bucket), loc.Bucket, ""), loc.Path, nil
	}

	p := loc.Path
	if !filepath.IsAbs(p) && r.Root != "" {
		p = filepath.Join(r.Root, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, "", err
	}
	local, err := NewLocal(filepath.Dir(abs))
	if err != nil {
		return nil, "", err
	}
	return local, filepath.Base(abs), nil
}
