package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	PublicURL string `json:"public_url"`
}

type minioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func init() {
	Register("minio", createMinioStore)
}

func createMinioStore(args interface{}) (Store, error) {
	config := &minioConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Endpoint == "" || config.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint/bucket are required")
	}
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, config.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	publicURL := strings.TrimSuffix(config.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if config.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + strings.TrimSuffix(config.Endpoint, "/") + "/" + config.Bucket
	}
	return &minioStore{client: client, bucket: config.Bucket, publicURL: publicURL}, nil
}

func (s *minioStore) Type() string {
	return "minio"
}

func (s *minioStore) URL(key string) string {
	return joinURL(s.publicURL, key)
}

func (s *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key is required")
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *minioStore) Delete(ctx context.Context, keyOrURL string) error {
	key := ResolveKey(keyOrURL, s.publicURL)
	if key == "" {
		return nil
	}
	key = strings.TrimPrefix(key, s.bucket+"/")
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *minioStore) List(ctx context.Context) ([]Object, error) {
	items := make([]Object, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: keyRoot + "/", Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		items = append(items, Object{Key: info.Key, URL: s.URL(info.Key), ModTime: info.LastModified})
	}
	return items, nil
}
