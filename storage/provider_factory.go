package storage

import (
	"fmt"

	"github.com/gsa/datagov-metrics/storage/provider"
)

// NewObjectStorageProvider creates object storage provider based on configuration
func NewObjectStorageProvider(config *ProviderConfig) (ObjectStorageProvider, error) {
	switch config.Type {
	case provider.ProviderTypeS3:
		return provider.NewS3Provider(config)
	case provider.ProviderTypeOSS:
		return provider.NewOSSProvider(config)
	case provider.ProviderTypeAzure:
		return provider.NewAzureProvider(config)
	case provider.ProviderTypeLocalFS:
		return provider.NewLocalFSProvider(config)
	case provider.ProviderTypeGCS:
		return nil, fmt.Errorf("provider GCS not implemented yet")
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}
