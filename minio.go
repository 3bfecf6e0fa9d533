package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioClient struct {
	Client *minio.Client
	Bucket string
}

// minioEndpoint splits a configured endpoint URL into the host minio.New
// expects and whether TLS is used. A bare host defaults to TLS.
func minioEndpoint(endpoint string) (string, bool, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, true, nil
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	default:
		return "", false, &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
}

func NewMinioBucketClient(appConfig AppConfig) (BucketClient, error) {
	host, secure, err := minioEndpoint(appConfig.Endpoint)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(appConfig.AccessKey, appConfig.SecretKey, ""),
		Secure: secure,
		Region: appConfig.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioClient{Client: client, Bucket: appConfig.Bucket}, nil
}

func (m *MinioClient) PutObject(ctx context.Context, input PutObjectInput) (PutObjectOutput, error) {
	info, err := m.Client.PutObject(ctx, m.Bucket, input.Key, input.Body, input.Size, minio.PutObjectOptions{
		StorageClass: input.StorageClass,
	})
	if err != nil {
		return PutObjectOutput{}, err
	}
	return PutObjectOutput{ETag: info.ETag}, nil
}

func (m *MinioClient) DeleteObject(ctx context.Context, input DeleteObjectInput) (DeleteObjectOutput, error) {
	err := m.Client.RemoveObject(ctx, m.Bucket, input.Key, minio.RemoveObjectOptions{})
	return DeleteObjectOutput{}, err
}

// ListObjects reads one page from the recursive listing channel, using the
// last key as the StartAfter token of the next page. One extra object is
// read to learn whether the listing continues.
func (m *MinioClient) ListObjects(ctx context.Context, input ListObjectsInput) (ListObjectsOutput, error) {
	pageSize := int(input.PageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	listCtx, cancel := context.WithCancel(ctx)

	opts := minio.ListObjectsOptions{
		Prefix:     input.Prefix,
		Recursive:  true,
		MaxKeys:    pageSize,
		StartAfter: input.PageToken,
	}

	objectCh := m.Client.ListObjects(listCtx, m.Bucket, opts)
	defer func() {
		cancel()
		// the lister goroutine only exits once its channel is drained
		for range objectCh {
		}
	}()

	out := ListObjectsOutput{Objects: make([]ObjectInfo, 0, pageSize)}
	for object := range objectCh {
		if object.Err != nil {
			return ListObjectsOutput{}, object.Err
		}
		if len(out.Objects) == pageSize {
			out.IsTruncated = true
			out.NextPageToken = out.Objects[pageSize-1].Key
			break
		}
		out.Objects = append(out.Objects, ObjectInfo{Key: object.Key, Size: object.Size})
	}

	return out, nil
}
