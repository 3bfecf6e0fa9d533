package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const cosAccelerateEndpoint = "https://cos.accelerate.myqcloud.com"

// cosEndpoint returns the COS service endpoint. Requests are virtual-hosted,
// so the accelerated endpoint resolves to {Bucket}.cos.accelerate.myqcloud.com.
func cosEndpoint(region string, accelerate bool) string {
	if accelerate {
		return cosAccelerateEndpoint
	}
	return fmt.Sprintf("https://cos.%s.myqcloud.com", region)
}

// NewCOSBucketClient builds a gateway for a DogeCloud bucket. The configured
// key pair is exchanged for temporary COS credentials on first use and again
// whenever those expire.
func NewCOSBucketClient(ctx context.Context, appConfig AppConfig) (BucketClient, error) {
	provider := NewDogeCloudCredentials(appConfig.AccessKey, appConfig.SecretKey, "")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(appConfig.Region),
		config.WithCredentialsProvider(aws.NewCredentialsCache(provider)))
	if err != nil {
		return nil, fmt.Errorf("Error creating cos client: %w", err)
	}

	endpoint := appConfig.Endpoint
	if endpoint == "" {
		endpoint = cosEndpoint(appConfig.Region, appConfig.Accelerate)
	}
	cosClient := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		// COS rejects the default CRC32 trailer the SDK adds to uploads
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return newS3Client(cosClient, appConfig.Bucket, true), nil
}
