package fetch

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

// ObjectStoreConfig configures an S3-compatible mirror of repository
// content. Objects are keyed "username/repository/branch/path".
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

// ObjectStore reads repository files from an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the configured bucket. No request is made
// until the first fetch.
func NewObjectStore(cfg ObjectStoreConfig) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.NewValidation("endpoint", "object store endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.NewValidation("bucket", "object store bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	var creds *credentials.Credentials
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: bucket}, nil
}

func objectPrefix(req Request) string {
	return req.Username + "/" + req.Repository + "/" + req.Branch + "/"
}

func objectKey(req Request) string {
	return objectPrefix(req) + strings.TrimLeft(req.Path, "/")
}

// GetFile reads one object.
func (o *ObjectStore) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	obj, err := o.client.GetObject(ctx, o.bucket, objectKey(req), minio.GetObjectOptions{})
	if err != nil {
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
		}
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	return string(data), nil
}

// ListFiles lists the objects under the repository branch prefix.
func (o *ObjectStore) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	prefix := objectPrefix(req)
	var paths []string
	for obj := range o.client.ListObjects(ctx, o.bucket, minio.ListObjectsOptions{
		Prefix:    prefix + req.Path,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, obj.Err)
		}
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		paths = append(paths, strings.TrimPrefix(obj.Key, prefix))
	}
	if len(paths) == 0 && req.Path == "" {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, errors.NewNotFound("repository", req.Repository))
	}
	sort.Strings(paths)
	return paths, nil
}
