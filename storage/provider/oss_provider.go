package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	openapicred "github.com/aliyun/credentials-go/credentials"
)

// OSSProvider Alibaba Cloud OSS storage provider implementation
type OSSProvider struct {
	client *oss.Client
	bucket string
	prefix string // path prefix
}

// NewOSSProvider creates a new OSS storage provider
func NewOSSProvider(providerConfig *ProviderConfig) (*OSSProvider, error) {
	if providerConfig.Type != ProviderTypeOSS {
		return nil, fmt.Errorf("invalid provider type: %s, expected: %s", providerConfig.Type, ProviderTypeOSS)
	}
	if providerConfig.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required for OSS provider")
	}
	if providerConfig.Region == "" {
		return nil, fmt.Errorf("region is required for OSS provider")
	}

	var credProvider credentials.CredentialsProvider

	if providerConfig.OSS != nil && providerConfig.OSS.AccessKey != "" && providerConfig.OSS.SecretAccessKey != "" {
		// Static credentials
		credProvider = credentials.CredentialsProviderFunc(func(ctx context.Context) (credentials.Credentials, error) {
			return credentials.Credentials{
				AccessKeyID:     providerConfig.OSS.AccessKey,
				AccessKeySecret: providerConfig.OSS.SecretAccessKey,
				SecurityToken:   providerConfig.OSS.SessionToken,
			}, nil
		})
	} else {
		// Fall back to the AliCloud default credential chain
		cred, err := openapicred.NewCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default AliCloud credentials: %w", err)
		}

		credProvider = credentials.CredentialsProviderFunc(func(ctx context.Context) (credentials.Credentials, error) {
			c, err := cred.GetCredential()
			if err != nil {
				return credentials.Credentials{}, err
			}
			return credentials.Credentials{
				AccessKeyID:     *c.AccessKeyId,
				AccessKeySecret: *c.AccessKeySecret,
				SecurityToken:   *c.SecurityToken,
			}, nil
		})
	}

	cfg := oss.LoadDefaultConfig().WithRegion(providerConfig.Region).WithCredentialsProvider(credProvider)
	if providerConfig.Endpoint != "" {
		cfg = cfg.WithEndpoint(providerConfig.Endpoint)
	}

	return &OSSProvider{
		client: oss.NewClient(cfg),
		bucket: providerConfig.Bucket,
		prefix: providerConfig.Prefix,
	}, nil
}

// objectKey builds the complete object key with prefix
func (o *OSSProvider) objectKey(path string) string {
	if o.prefix == "" {
		return path
	}
	prefix := strings.TrimSuffix(o.prefix, "/")
	path = strings.TrimPrefix(path, "/")
	return prefix + "/" + path
}

// Upload implements ObjectStorageProvider interface
func (o *OSSProvider) Upload(ctx context.Context, path string, data io.Reader) error {
	key := o.objectKey(path)
	_, err := o.client.PutObject(ctx, &oss.PutObjectRequest{
		Bucket: &o.bucket,
		Key:    &key,
		Body:   data,
	})
	return err
}

// Download implements ObjectStorageProvider interface
func (o *OSSProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	key := o.objectKey(path)
	result, err := o.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: &o.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// Delete implements ObjectStorageProvider interface
func (o *OSSProvider) Delete(ctx context.Context, path string) error {
	key := o.objectKey(path)
	_, err := o.client.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: &o.bucket,
		Key:    &key,
	})
	return err
}

// Exists implements ObjectStorageProvider interface
func (o *OSSProvider) Exists(ctx context.Context, path string) (bool, error) {
	key := o.objectKey(path)
	_, err := o.client.HeadObject(ctx, &oss.HeadObjectRequest{
		Bucket: &o.bucket,
		Key:    &key,
	})
	if err != nil {
		var serviceError *oss.ServiceError
		if errors.As(err, &serviceError) && (serviceError.Code == "NoSuchKey" || serviceError.StatusCode == http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List implements ObjectStorageProvider interface
func (o *OSSProvider) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := o.client.NewListObjectsV2Paginator(&oss.ListObjectsV2Request{
		Bucket: oss.Ptr(o.bucket),
		Prefix: oss.Ptr(o.objectKey(prefix)),
	})

	var objects []string
	for paginator.HasNext() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			objects = append(objects, *object.Key)
		}
	}
	return objects, nil
}
