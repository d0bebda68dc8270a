package msgraph

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SecretResolver turns an opaque secret reference into the credential it
// points at. Implementations must never log the resolved value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// minioSecretResolver reads client secrets stored as objects in a private
// bucket. Resolved values are cached for the process lifetime; secrets
// rotate out-of-band and processes are short-lived.
type minioSecretResolver struct {
	client *minio.Client
	bucket string

	mu    sync.RWMutex
	cache map[string]string
}

func NewMinioSecretResolver(endpoint, accessKey, secretKey, bucket string, useSSL bool) (SecretResolver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioSecretResolver{
		client: client,
		bucket: bucket,
		cache:  make(map[string]string),
	}, nil
}

func (r *minioSecretResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrSecretUnavailable)
	}

	r.mu.RLock()
	value, ok := r.cache[ref]
	r.mu.RUnlock()
	if ok {
		return value, nil
	}

	obj, err := r.client.GetObject(ctx, r.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSecretUnavailable, ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSecretUnavailable, ref, err)
	}

	value = strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%w: %s: empty secret", ErrSecretUnavailable, ref)
	}

	r.mu.Lock()
	r.cache[ref] = value
	r.mu.Unlock()

	return value, nil
}

// StaticSecretResolver resolves references from a fixed map. Used in tests
// and for environment-provided secrets in development.
type StaticSecretResolver map[string]string

func (s StaticSecretResolver) Resolve(_ context.Context, ref string) (string, error) {
	value, ok := s[ref]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretUnavailable, ref)
	}
	return value, nil
}
