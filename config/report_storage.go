package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gsa/datagov-metrics/storage"
	"gopkg.in/yaml.v3"
)

// ReportAWSConfig AWS S3 specific configuration for report storage
type ReportAWSConfig struct {
	AssumeRoleARN    string `yaml:"assume-role-arn,omitempty" toml:"assume-role-arn,omitempty" json:"assume-role-arn,omitempty"`
	S3ForcePathStyle bool   `yaml:"s3-force-path-style,omitempty" toml:"s3-force-path-style,omitempty" json:"s3-force-path-style,omitempty"`
	AccessKey        string `yaml:"access-key,omitempty" toml:"access-key,omitempty" json:"access-key,omitempty"`
	SecretAccessKey  string `yaml:"secret-access-key,omitempty" toml:"secret-access-key,omitempty" json:"secret-access-key,omitempty"`
	SessionToken     string `yaml:"session-token,omitempty" toml:"session-token,omitempty" json:"session-token,omitempty"`
}

// ReportOSSConfig Alibaba Cloud OSS specific configuration for report storage
type ReportOSSConfig struct {
	AccessKey       string `yaml:"access-key,omitempty" toml:"access-key,omitempty" json:"access-key,omitempty"`
	SecretAccessKey string `yaml:"secret-access-key,omitempty" toml:"secret-access-key,omitempty" json:"secret-access-key,omitempty"`
	SessionToken    string `yaml:"session-token,omitempty" toml:"session-token,omitempty" json:"session-token,omitempty"`
}

// ReportAzureConfig Azure Blob Storage specific configuration for report storage
type ReportAzureConfig struct {
	AccountName string `yaml:"account-name,omitempty" toml:"account-name,omitempty" json:"account-name,omitempty"`
	AccountKey  string `yaml:"account-key,omitempty" toml:"account-key,omitempty" json:"account-key,omitempty"`
	SASToken    string `yaml:"sas-token,omitempty" toml:"sas-token,omitempty" json:"sas-token,omitempty"`
}

// ReportLocalFSConfig local filesystem specific configuration for report storage
type ReportLocalFSConfig struct {
	BasePath    string `yaml:"base-path,omitempty" toml:"base-path,omitempty" json:"base-path,omitempty"`
	CreateDirs  bool   `yaml:"create-dirs,omitempty" toml:"create-dirs,omitempty" json:"create-dirs,omitempty"`
	Permissions string `yaml:"permissions,omitempty" toml:"permissions,omitempty" json:"permissions,omitempty"`
}

// ReportStorageConfig is the high-level configuration for where usage
// reports are written. It maps onto a storage.ProviderConfig.
type ReportStorageConfig struct {
	// Storage provider type: s3, oss, azure, localfs
	Type storage.ProviderType `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"`
	// Storage region
	Region string `yaml:"region,omitempty" toml:"region,omitempty" json:"region,omitempty"`
	// Storage bucket/container name
	Bucket string `yaml:"bucket,omitempty" toml:"bucket,omitempty" json:"bucket,omitempty"`
	// Path prefix for all stored reports
	Prefix string `yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
	// Custom endpoint for S3-compatible services
	Endpoint string `yaml:"endpoint,omitempty" toml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// Cloud-specific configurations
	AWS     *ReportAWSConfig     `yaml:"aws,omitempty" toml:"aws,omitempty" json:"aws,omitempty"`
	OSS     *ReportOSSConfig     `yaml:"oss,omitempty" toml:"oss,omitempty" json:"oss,omitempty"`
	Azure   *ReportAzureConfig   `yaml:"azure,omitempty" toml:"azure,omitempty" json:"azure,omitempty"`
	LocalFS *ReportLocalFSConfig `yaml:"localfs,omitempty" toml:"localfs,omitempty" json:"localfs,omitempty"`
}

// NewReportStorageConfig creates a new ReportStorageConfig with default values
func NewReportStorageConfig() *ReportStorageConfig {
	return &ReportStorageConfig{}
}

// WithS3 configures for AWS S3 storage
func (rc *ReportStorageConfig) WithS3(region, bucket string) *ReportStorageConfig {
	rc.Type = storage.ProviderTypeS3
	rc.Region = region
	rc.Bucket = bucket
	return rc
}

// WithOSS configures for Alibaba Cloud OSS storage
func (rc *ReportStorageConfig) WithOSS(region, bucket string) *ReportStorageConfig {
	rc.Type = storage.ProviderTypeOSS
	rc.Region = region
	rc.Bucket = bucket
	return rc
}

// WithAzure configures for Azure Blob Storage
func (rc *ReportStorageConfig) WithAzure(accountName, container string) *ReportStorageConfig {
	rc.Type = storage.ProviderTypeAzure
	rc.Bucket = container
	if rc.Azure == nil {
		rc.Azure = &ReportAzureConfig{}
	}
	rc.Azure.AccountName = accountName
	return rc
}

// WithLocalFS configures for local filesystem storage
func (rc *ReportStorageConfig) WithLocalFS(basePath string) *ReportStorageConfig {
	rc.Type = storage.ProviderTypeLocalFS
	if rc.LocalFS == nil {
		rc.LocalFS = &ReportLocalFSConfig{}
	}
	rc.LocalFS.BasePath = basePath
	rc.LocalFS.CreateDirs = true
	return rc
}

// WithPrefix sets the path prefix
func (rc *ReportStorageConfig) WithPrefix(prefix string) *ReportStorageConfig {
	rc.Prefix = prefix
	return rc
}

// WithEndpoint sets the custom endpoint
func (rc *ReportStorageConfig) WithEndpoint(endpoint string) *ReportStorageConfig {
	rc.Endpoint = endpoint
	return rc
}

// ToProviderConfig converts ReportStorageConfig to storage.ProviderConfig
func (rc *ReportStorageConfig) ToProviderConfig() *storage.ProviderConfig {
	config := &storage.ProviderConfig{
		Type:     rc.Type,
		Region:   rc.Region,
		Bucket:   rc.Bucket,
		Prefix:   rc.Prefix,
		Endpoint: rc.Endpoint,
	}

	switch rc.Type {
	case storage.ProviderTypeS3:
		if rc.AWS != nil {
			config.AWS = &storage.AWSConfig{
				AssumeRoleARN:    rc.AWS.AssumeRoleARN,
				S3ForcePathStyle: rc.AWS.S3ForcePathStyle,
				AccessKey:        rc.AWS.AccessKey,
				SecretAccessKey:  rc.AWS.SecretAccessKey,
				SessionToken:     rc.AWS.SessionToken,
			}
		}
	case storage.ProviderTypeOSS:
		if rc.OSS != nil {
			config.OSS = &storage.OSSConfig{
				AccessKey:       rc.OSS.AccessKey,
				SecretAccessKey: rc.OSS.SecretAccessKey,
				SessionToken:    rc.OSS.SessionToken,
			}
		}
	case storage.ProviderTypeAzure:
		if rc.Azure != nil {
			config.Azure = &storage.AzureConfig{
				AccountName: rc.Azure.AccountName,
				AccountKey:  rc.Azure.AccountKey,
				SASToken:    rc.Azure.SASToken,
			}
		}
	case storage.ProviderTypeLocalFS:
		if rc.LocalFS != nil {
			config.LocalFS = &storage.LocalFSConfig{
				BasePath:    rc.LocalFS.BasePath,
				CreateDirs:  rc.LocalFS.CreateDirs,
				Permissions: rc.LocalFS.Permissions,
			}
		}
	}

	return config
}

// LoadFile loads a ReportStorageConfig from a TOML or YAML file,
// chosen by file extension (.toml, .yaml, .yml).
func LoadFile(path string) (*ReportStorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := NewReportStorageConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}

	return config, nil
}

// NewFromURI creates a new ReportStorageConfig from a URI string.
// URI format: [scheme]://[bucket]/[prefix]?[parameters]
// Examples:
//   - s3://my-bucket/reports?region-id=us-east-1&endpoint=https://s3.example.com
//   - oss://my-bucket/reports?region-id=oss-ap-southeast-1&access-key=AKSKEXAMPLE
//   - azure://my-container/reports?account-name=myaccount
//   - localfs:///data/reports?create-dirs=true&permissions=0755
//
// Supported schemes: s3, oss, azure, localfs, file
// Common parameters: region-id/region, prefix, endpoint
// S3 parameters: access-key, secret-access-key, session-token, assume-role-arn/role-arn, s3-force-path-style/force-path-style
// OSS parameters: access-key, secret-access-key, session-token
// Azure parameters: account-name, account-key, sas-token
// LocalFS parameters: create-dirs, permissions
func NewFromURI(uriStr string) (*ReportStorageConfig, error) {
	parsedURL, err := url.Parse(uriStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URI: %w", err)
	}

	config := NewReportStorageConfig()

	switch strings.ToLower(parsedURL.Scheme) {
	case "s3":
		config.Type = storage.ProviderTypeS3
	case "oss":
		config.Type = storage.ProviderTypeOSS
	case "azure":
		config.Type = storage.ProviderTypeAzure
	case "localfs", "file":
		config.Type = storage.ProviderTypeLocalFS
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s", parsedURL.Scheme)
	}

	if config.Type == storage.ProviderTypeLocalFS {
		// For localfs the host and path together form the base path
		var basePath string
		if parsedURL.Host != "" {
			hostPath := "/" + parsedURL.Host
			if parsedURL.Path != "" && parsedURL.Path != "/" {
				basePath = hostPath + "/" + strings.TrimPrefix(parsedURL.Path, "/")
			} else {
				basePath = hostPath
			}
		} else {
			basePath = parsedURL.Path
		}
		config.LocalFS = &ReportLocalFSConfig{
			BasePath:   basePath,
			CreateDirs: true, // default
		}
	} else {
		// For cloud providers, host is the bucket/container name
		if parsedURL.Host != "" {
			config.Bucket = parsedURL.Host
		}
		if parsedURL.Path != "" {
			config.Prefix = strings.TrimPrefix(parsedURL.Path, "/")
		}
	}

	queryParams := parsedURL.Query()

	regionID := queryParams.Get("region-id")
	if regionID == "" {
		regionID = queryParams.Get("region")
	}
	if regionID != "" {
		config.Region = regionID
	}
	if prefix := queryParams.Get("prefix"); prefix != "" {
		config.Prefix = prefix
	}
	if endpoint := queryParams.Get("endpoint"); endpoint != "" {
		config.Endpoint = endpoint
	}

	switch config.Type {
	case storage.ProviderTypeS3:
		awsConfig := &ReportAWSConfig{}
		hasAWSConfig := false

		if accessKey := queryParams.Get("access-key"); accessKey != "" {
			awsConfig.AccessKey = accessKey
			hasAWSConfig = true
		}
		if secretKey := queryParams.Get("secret-access-key"); secretKey != "" {
			awsConfig.SecretAccessKey = secretKey
			hasAWSConfig = true
		}
		if sessionToken := queryParams.Get("session-token"); sessionToken != "" {
			awsConfig.SessionToken = sessionToken
			hasAWSConfig = true
		}
		// Support both "assume-role-arn" and "role-arn" parameter names
		roleARN := queryParams.Get("assume-role-arn")
		if roleARN == "" {
			roleARN = queryParams.Get("role-arn")
		}
		if roleARN != "" {
			awsConfig.AssumeRoleARN = roleARN
			hasAWSConfig = true
		}
		// Support both "s3-force-path-style" and "force-path-style" parameter names
		forcePathStyle := queryParams.Get("s3-force-path-style")
		if forcePathStyle == "" {
			forcePathStyle = queryParams.Get("force-path-style")
		}
		if forcePathStyle == "true" {
			awsConfig.S3ForcePathStyle = true
			hasAWSConfig = true
		}

		if hasAWSConfig {
			config.AWS = awsConfig
		}

	case storage.ProviderTypeOSS:
		ossConfig := &ReportOSSConfig{}
		hasOSSConfig := false

		if accessKey := queryParams.Get("access-key"); accessKey != "" {
			ossConfig.AccessKey = accessKey
			hasOSSConfig = true
		}
		if secretKey := queryParams.Get("secret-access-key"); secretKey != "" {
			ossConfig.SecretAccessKey = secretKey
			hasOSSConfig = true
		}
		if sessionToken := queryParams.Get("session-token"); sessionToken != "" {
			ossConfig.SessionToken = sessionToken
			hasOSSConfig = true
		}

		if hasOSSConfig {
			config.OSS = ossConfig
		}

	case storage.ProviderTypeAzure:
		azureConfig := &ReportAzureConfig{}
		hasAzureConfig := false

		if accountName := queryParams.Get("account-name"); accountName != "" {
			azureConfig.AccountName = accountName
			hasAzureConfig = true
		}
		if accountKey := queryParams.Get("account-key"); accountKey != "" {
			azureConfig.AccountKey = accountKey
			hasAzureConfig = true
		}
		if sasToken := queryParams.Get("sas-token"); sasToken != "" {
			azureConfig.SASToken = sasToken
			hasAzureConfig = true
		}

		if hasAzureConfig {
			config.Azure = azureConfig
		}

	case storage.ProviderTypeLocalFS:
		if config.LocalFS == nil {
			config.LocalFS = &ReportLocalFSConfig{CreateDirs: true}
		}

		if createDirs := queryParams.Get("create-dirs"); createDirs == "false" {
			config.LocalFS.CreateDirs = false
		}
		if permissions := queryParams.Get("permissions"); permissions != "" {
			config.LocalFS.Permissions = permissions
		}
	}

	return config, nil
}

// ToURI converts ReportStorageConfig to a URI string, the inverse of NewFromURI.
func (rc *ReportStorageConfig) ToURI() string {
	var uri strings.Builder
	params := make(url.Values)

	switch rc.Type {
	case storage.ProviderTypeS3:
		uri.WriteString("s3://")
	case storage.ProviderTypeOSS:
		uri.WriteString("oss://")
	case storage.ProviderTypeAzure:
		uri.WriteString("azure://")
	case storage.ProviderTypeLocalFS:
		uri.WriteString("localfs://")
	default:
		return ""
	}

	if rc.Type == storage.ProviderTypeLocalFS {
		if rc.LocalFS != nil && rc.LocalFS.BasePath != "" {
			uri.WriteString("/")
			uri.WriteString(strings.TrimPrefix(rc.LocalFS.BasePath, "/"))
		}
	} else {
		if rc.Bucket != "" {
			uri.WriteString(rc.Bucket)
		}
		if rc.Prefix != "" {
			uri.WriteString("/")
			uri.WriteString(rc.Prefix)
		}
	}

	if rc.Region != "" {
		params.Set("region-id", rc.Region)
	}
	if rc.Endpoint != "" {
		params.Set("endpoint", rc.Endpoint)
	}

	switch rc.Type {
	case storage.ProviderTypeS3:
		if rc.AWS != nil {
			if rc.AWS.AccessKey != "" {
				params.Set("access-key", rc.AWS.AccessKey)
			}
			if rc.AWS.SecretAccessKey != "" {
				params.Set("secret-access-key", rc.AWS.SecretAccessKey)
			}
			if rc.AWS.SessionToken != "" {
				params.Set("session-token", rc.AWS.SessionToken)
			}
			if rc.AWS.AssumeRoleARN != "" {
				params.Set("assume-role-arn", rc.AWS.AssumeRoleARN)
			}
			if rc.AWS.S3ForcePathStyle {
				params.Set("s3-force-path-style", "true")
			}
		}

	case storage.ProviderTypeOSS:
		if rc.OSS != nil {
			if rc.OSS.AccessKey != "" {
				params.Set("access-key", rc.OSS.AccessKey)
			}
			if rc.OSS.SecretAccessKey != "" {
				params.Set("secret-access-key", rc.OSS.SecretAccessKey)
			}
			if rc.OSS.SessionToken != "" {
				params.Set("session-token", rc.OSS.SessionToken)
			}
		}

	case storage.ProviderTypeAzure:
		if rc.Azure != nil {
			if rc.Azure.AccountName != "" {
				params.Set("account-name", rc.Azure.AccountName)
			}
			if rc.Azure.AccountKey != "" {
				params.Set("account-key", rc.Azure.AccountKey)
			}
			if rc.Azure.SASToken != "" {
				params.Set("sas-token", rc.Azure.SASToken)
			}
		}

	case storage.ProviderTypeLocalFS:
		if rc.LocalFS != nil {
			if !rc.LocalFS.CreateDirs {
				params.Set("create-dirs", "false")
			}
			if rc.LocalFS.Permissions != "" {
				params.Set("permissions", rc.LocalFS.Permissions)
			}
		}
	}

	if len(params) > 0 {
		uri.WriteString("?")
		uri.WriteString(params.Encode())
	}

	return uri.String()
}
