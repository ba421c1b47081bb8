package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore writes objects under a directory that the HTTP server exposes
// at URLPrefix (see api.Router's /uploads route).
type LocalStore struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

func NewLocalStore(dir, urlPrefix string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
	}, nil
}

func (l *LocalStore) Dir() string { return l.dir }

func (l *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	dst := filepath.Join(l.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write object: %w", err)
	}

	l.logger.Info("local upload stored",
		zap.String("object_name", clean),
		zap.Int64("size", written),
		zap.String("content_type", contentType),
	)
	return l.urlPrefix + "/" + clean, nil
}
