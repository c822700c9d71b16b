// Package sdk collects the data.gov usage-metrics toolkit: fetchers for
// the web-analytics and data-catalog APIs, a CSV report writer/reader
// over pluggable object storage (S3, OSS, Azure Blob, local
// filesystem), and a thin cloud.gov platform client for listing and
// releasing datasets.
//
// The root package only re-exports the main types and constructors;
// functionality lives in the subpackages (config, common, storage,
// report, source, cloudgov).
package sdk
