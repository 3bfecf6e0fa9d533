package main

import (
	"context"
	"io"
	"time"
)

const defaultPageSize = 1000

// BucketClient is the storage gateway the sync driver talks to. Bucket and
// region are bound when the client is built.
type BucketClient interface {
	PutObject(ctx context.Context, input PutObjectInput) (PutObjectOutput, error)
	DeleteObject(ctx context.Context, input DeleteObjectInput) (DeleteObjectOutput, error)
	ListObjects(ctx context.Context, input ListObjectsInput) (ListObjectsOutput, error)
}

type PutObjectInput struct {
	Key          string
	Body         io.Reader
	Size         int64
	StorageClass string
}

type PutObjectOutput struct {
	ETag string
}

type DeleteObjectInput struct {
	Key string
}

type DeleteObjectOutput struct{}

type ListObjectsInput struct {
	Prefix    string
	PageToken string
	PageSize  int32
}

// ListObjectsOutput is one page of a listing. Gateways translate whatever
// their backend uses to signal more results into IsTruncated.
type ListObjectsOutput struct {
	Objects       []ObjectInfo
	NextPageToken string
	IsTruncated   bool
}

type ObjectInfo struct {
	Key  string
	Size int64
}

// timeoutClient bounds every call on the wrapped client by a deadline.
type timeoutClient struct {
	client  BucketClient
	timeout time.Duration
}

// withTimeout returns client unchanged when timeout is not positive.
func withTimeout(client BucketClient, timeout time.Duration) BucketClient {
	if timeout <= 0 {
		return client
	}
	return &timeoutClient{client: client, timeout: timeout}
}

func (c *timeoutClient) PutObject(ctx context.Context, input PutObjectInput) (PutObjectOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.PutObject(ctx, input)
}

func (c *timeoutClient) DeleteObject(ctx context.Context, input DeleteObjectInput) (DeleteObjectOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.DeleteObject(ctx, input)
}

func (c *timeoutClient) ListObjects(ctx context.Context, input ListObjectsInput) (ListObjectsOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.ListObjects(ctx, input)
}
