package sdk

import (
	"github.com/gsa/datagov-metrics/cloudgov"
	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/report"
	"github.com/gsa/datagov-metrics/storage"
)

// SDK version information
const (
	Version = "v0.1.0"
)

// Re-export main types for user convenience
type (
	// Config configuration
	Config = config.Config
	// ReportStorageConfig high-level report storage configuration
	ReportStorageConfig = config.ReportStorageConfig
	// ReportWriter report writer interface
	ReportWriter = report.Writer
	// ReportReader report reader interface
	ReportReader = report.Reader
	// ObjectStorageProvider storage provider interface
	ObjectStorageProvider = storage.ObjectStorageProvider
	// ProviderConfig storage provider configuration
	ProviderConfig = storage.ProviderConfig
	// ProviderType storage provider type
	ProviderType = storage.ProviderType
	// UsageReport usage report data
	UsageReport = common.UsageReport
	// ReportSource report source identifier
	ReportSource = common.ReportSource
	// PlatformClient cloud.gov platform client
	PlatformClient = cloudgov.Client
	// ConnectionConfig cloud.gov connection configuration
	ConnectionConfig = cloudgov.ConnectionConfig
	// DatasetDescriptor dataset entry returned by the platform
	DatasetDescriptor = cloudgov.DatasetDescriptor
)

// Re-export constants
const (
	ProviderTypeS3      = storage.ProviderTypeS3
	ProviderTypeGCS     = storage.ProviderTypeGCS
	ProviderTypeAzure   = storage.ProviderTypeAzure
	ProviderTypeOSS     = storage.ProviderTypeOSS
	ProviderTypeLocalFS = storage.ProviderTypeLocalFS

	ReportSourceAnalytics = common.ReportSourceAnalytics
	ReportSourceCatalog   = common.ReportSourceCatalog
)

// Re-export main functions
var (
	// DefaultConfig creates default configuration
	DefaultConfig = config.DefaultConfig
	// NewDebugConfig creates debug configuration
	NewDebugConfig = config.NewDebugConfig
	// NewObjectStorageProvider creates storage provider
	NewObjectStorageProvider = storage.NewObjectStorageProvider
	// NewReportWriter creates report writer
	NewReportWriter = report.NewReportWriter
	// NewReportReader creates report reader
	NewReportReader = report.NewReportReader
	// ResolveConnectionConfig resolves cloud.gov connection values
	ResolveConnectionConfig = cloudgov.ResolveConnectionConfig
	// NewPlatformClient creates a cloud.gov platform client
	NewPlatformClient = cloudgov.NewClient
)
