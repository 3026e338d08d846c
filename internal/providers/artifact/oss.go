package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSConfig addresses an Aliyun OSS bucket.
type OSSConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string
	Bucket        string
	Prefix        string
	PublicBase    string
}

// OSSStore keeps artifacts in an OSS bucket.
type OSSStore struct {
	bucket     *oss.Bucket
	prefix     string
	publicBase string
}

func NewOSSStore(cfg OSSConfig) (*OSSStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("oss endpoint, access key, secret key and bucket are required")
	}

	var opts []oss.ClientOption
	if cfg.SecurityToken != "" {
		opts = append(opts, oss.SecurityToken(cfg.SecurityToken))
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket: %w", err)
	}

	publicBase := cfg.PublicBase
	if publicBase == "" {
		endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		publicBase = fmt.Sprintf("https://%s.%s", cfg.Bucket, endpoint)
	}

	return &OSSStore{
		bucket:     bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: publicBase,
	}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err = s.bucket.PutObject(objectKey, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
	)
	if err != nil {
		return "", err
	}
	return s.Locator(key), nil
}

func (s *OSSStore) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	body, err := s.bucket.GetObject(objectKey, oss.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	return s.bucket.DeleteObject(objectKey, oss.WithContext(ctx))
}

func (s *OSSStore) Locator(key string) string {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return ""
	}
	return joinURL(s.publicBase, objectKey)
}

func (s *OSSStore) objectKey(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return s.prefix + "/" + key, nil
}

func isNotFound(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	return false
}
