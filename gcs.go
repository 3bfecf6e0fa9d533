package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSClient struct {
	Client *storage.Client
	Bucket string
}

func NewGCSBucketClient(ctx context.Context, appConfig AppConfig) (BucketClient, error) {
	opts := make([]option.ClientOption, 0, 1)
	if appConfig.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(appConfig.GCSCredentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating gcs client: %w", err)
	}

	return &GCSClient{Client: client, Bucket: appConfig.Bucket}, nil
}

func (s *GCSClient) ListObjects(ctx context.Context, input ListObjectsInput) (ListObjectsOutput, error) {
	query := &storage.Query{Prefix: input.Prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size"}); err != nil {
		return ListObjectsOutput{}, err
	}

	pageSize := int(input.PageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	objIter := s.Client.Bucket(s.Bucket).Objects(ctx, query)
	pager := iterator.NewPager(objIter, pageSize, input.PageToken)

	var attrs []*storage.ObjectAttrs
	nextToken, err := pager.NextPage(&attrs)
	if err != nil {
		return ListObjectsOutput{}, fmt.Errorf("Bucket(%q).Objects: %w", s.Bucket, err)
	}

	objects := make([]ObjectInfo, 0, len(attrs))
	for _, attr := range attrs {
		objects = append(objects, ObjectInfo{Key: attr.Name, Size: attr.Size})
	}

	return ListObjectsOutput{
		Objects:       objects,
		NextPageToken: nextToken,
		IsTruncated:   nextToken != "",
	}, nil
}

func (s *GCSClient) PutObject(ctx context.Context, input PutObjectInput) (PutObjectOutput, error) {
	object := s.Client.Bucket(s.Bucket).Object(input.Key)
	objWriter := object.NewWriter(ctx)
	if input.StorageClass != "" {
		objWriter.StorageClass = input.StorageClass
	}
	if _, uploadErr := io.Copy(objWriter, input.Body); uploadErr != nil {
		objWriter.Close()
		return PutObjectOutput{}, uploadErr
	}
	if closeErr := objWriter.Close(); closeErr != nil {
		return PutObjectOutput{}, closeErr
	}

	return PutObjectOutput{ETag: objWriter.Attrs().Etag}, nil
}

// DeleteObject treats a missing object as already deleted.
func (s *GCSClient) DeleteObject(ctx context.Context, input DeleteObjectInput) (DeleteObjectOutput, error) {
	object := s.Client.Bucket(s.Bucket).Object(input.Key)

	if err := object.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return DeleteObjectOutput{}, err
	}

	return DeleteObjectOutput{}, nil
}
