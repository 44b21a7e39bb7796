package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/haivivi/oggmux/pkg/buffer"
	"github.com/haivivi/oggmux/pkg/catalog"
	"github.com/haivivi/oggmux/pkg/cli"
	"github.com/haivivi/oggmux/pkg/kv"
	"github.com/haivivi/oggmux/pkg/storage"
)

// prefetchSize bounds how far input reads run ahead of the page scanner.
const prefetchSize = 256 << 10

func resolver(c *cli.Context) *storage.Resolver {
	r := &storage.Resolver{}
	if c.Storage == nil {
		return r
	}
	r.Root = c.Storage.Root
	if s := c.Storage.S3; s != nil {
		client := storage.NewS3Client(storage.S3Config{
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			PathStyle: s.PathStyle,
		})
		r.S3 = func(string) storage.S3Client { return client }
	}
	return r
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// openInput opens uri for reading; "-" is standard input. Reads are
// prefetched in the background.
func openInput(ctx context.Context, c *cli.Context, uri string) (io.ReadCloser, error) {
	var src io.ReadCloser
	if uri == "-" {
		src = io.NopCloser(os.Stdin)
	} else {
		fs, name, err := resolver(c).Resolve(uri)
		if err != nil {
			return nil, err
		}
		if src, err = fs.Read(ctx, name); err != nil {
			return nil, fmt.Errorf("open %s: %w", uri, err)
		}
	}
	bb := buffer.Prefetch(ctx, src, prefetchSize)
	return readCloser{
		Reader: bb,
		close: func() error {
			bb.Close()
			return src.Close()
		},
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createOutput opens uri for writing; "" and "-" are standard output.
// Existing files are kept unless --force is set. The data is committed
// on Close.
func createOutput(ctx context.Context, c *cli.Context, uri string) (io.WriteCloser, error) {
	if uri == "" || uri == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	fs, name, err := resolver(c).Resolve(uri)
	if err != nil {
		return nil, err
	}
	if !force {
		exists, err := storage.Exists(ctx, fs, name)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", uri, err)
		}
		if exists {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite)", uri)
		}
	}
	w, err := fs.Write(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", uri, err)
	}
	return w, nil
}

// joinURI appends name to a local directory or an s3:// prefix.
func joinURI(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// openCatalog opens the catalog database of c. The returned function
// closes it.
func openCatalog(c *cli.Context) (*catalog.Catalog, func() error, error) {
	store, err := kv.NewBadger(kv.BadgerOptions{
		Dir:    catalogDir(c),
		Logger: slog.Default(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	return catalog.New(store), store.Close, nil
}
