package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureClient maps the bucket onto a blob container.
type AzureClient struct {
	Client    *azblob.Client
	Container string
}

func azureEndpoint(appConfig AppConfig) string {
	if appConfig.Endpoint != "" {
		return strings.TrimRight(appConfig.Endpoint, "/") + "/"
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", appConfig.Azure.Account)
}

// NewAzureBucketClient picks credentials in order: SAS token, shared key,
// then DefaultAzureCredential.
func NewAzureBucketClient(appConfig AppConfig) (BucketClient, error) {
	endpoint := azureEndpoint(appConfig)

	var client *azblob.Client
	var err error
	switch {
	case strings.TrimSpace(appConfig.Azure.SASToken) != "":
		sas := strings.TrimPrefix(strings.TrimSpace(appConfig.Azure.SASToken), "?")
		client, err = azblob.NewClientWithNoCredential(endpoint+"?"+sas, nil)
	case appConfig.Azure.Key != "":
		cred, credErr := azblob.NewSharedKeyCredential(appConfig.Azure.Account, appConfig.Azure.Key)
		if credErr != nil {
			return nil, credErr
		}
		client, err = azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	default:
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, credErr
		}
		client, err = azblob.NewClient(endpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("Error creating azure client: %w", err)
	}

	return &AzureClient{Client: client, Container: appConfig.Bucket}, nil
}

// azureAccessTier maps an S3 style storage class onto a blob access tier.
// STANDARD and unknown classes leave the account default tier in place.
func azureAccessTier(storageClass string) *blob.AccessTier {
	switch strings.ToUpper(strings.TrimSpace(storageClass)) {
	case "HOT":
		return to.Ptr(blob.AccessTierHot)
	case "COOL", "STANDARD_IA", "ONEZONE_IA":
		return to.Ptr(blob.AccessTierCool)
	case "COLD", "GLACIER_IR":
		return to.Ptr(blob.AccessTierCold)
	case "ARCHIVE", "GLACIER", "DEEP_ARCHIVE":
		return to.Ptr(blob.AccessTierArchive)
	default:
		return nil
	}
}

func (a *AzureClient) PutObject(ctx context.Context, input PutObjectInput) (PutObjectOutput, error) {
	opts := &azblob.UploadStreamOptions{AccessTier: azureAccessTier(input.StorageClass)}
	resp, err := a.Client.UploadStream(ctx, a.Container, input.Key, input.Body, opts)
	if err != nil {
		return PutObjectOutput{}, err
	}

	etag := ""
	if resp.ETag != nil {
		etag = string(*resp.ETag)
	}
	return PutObjectOutput{ETag: etag}, nil
}

// DeleteObject treats BlobNotFound as already deleted.
func (a *AzureClient) DeleteObject(ctx context.Context, input DeleteObjectInput) (DeleteObjectOutput, error) {
	_, err := a.Client.DeleteBlob(ctx, a.Container, input.Key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return DeleteObjectOutput{}, err
	}
	return DeleteObjectOutput{}, nil
}

func (a *AzureClient) ListObjects(ctx context.Context, input ListObjectsInput) (ListObjectsOutput, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if input.Prefix != "" {
		opts.Prefix = to.Ptr(input.Prefix)
	}
	if input.PageToken != "" {
		opts.Marker = to.Ptr(input.PageToken)
	}
	if input.PageSize > 0 {
		opts.MaxResults = to.Ptr(input.PageSize)
	}

	pager := a.Client.NewListBlobsFlatPager(a.Container, opts)
	page, err := pager.NextPage(ctx)
	if err != nil {
		return ListObjectsOutput{}, err
	}

	objects := make([]ObjectInfo, 0)
	if page.Segment != nil {
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			var size int64
			if item.Properties != nil && item.Properties.ContentLength != nil {
				size = *item.Properties.ContentLength
			}
			objects = append(objects, ObjectInfo{Key: *item.Name, Size: size})
		}
	}

	nextMarker := ""
	if page.NextMarker != nil {
		nextMarker = *page.NextMarker
	}
	return ListObjectsOutput{
		Objects:       objects,
		NextPageToken: nextMarker,
		IsTruncated:   nextMarker != "",
	}, nil
}
