package filestore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

type localConfig struct {
	Dir       string `json:"dir"`
	PublicURL string `json:"public_url"`
}

type localStore struct {
	dir       string
	publicURL string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if config.PublicURL == "" {
		return nil, fmt.Errorf("local store public_url is required")
	}
	return NewLocalStore(config.Dir, config.PublicURL), nil
}

// NewLocalStore keeps blobs under dir; URLs are publicURL/<key>, served by the files handler.
func NewLocalStore(dir, publicURL string) Store {
	return &localStore{dir: dir, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) URL(key string) string {
	return joinURL(s.publicURL, key)
}

func (s *localStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_ = ctx
	_ = contentType
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	if size >= 0 && written != size {
		_ = os.Remove(path)
		return "", fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	return s.URL(key), nil
}

func (s *localStore) Delete(ctx context.Context, keyOrURL string) error {
	_ = ctx
	key := ResolveKey(keyOrURL, s.publicURL)
	if key == "" {
		return nil
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *localStore) List(ctx context.Context) ([]Object, error) {
	items := make([]Object, 0)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.dir {
				return fs.SkipDir
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		items = append(items, Object{Key: key, URL: s.URL(key), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *localStore) path(key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid file key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid file key")
		}
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}
