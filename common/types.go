package common

// ReportSource identifies the upstream system a usage report was built from.
type ReportSource string

const (
	// ReportSourceAnalytics represents the web-analytics API
	ReportSourceAnalytics ReportSource = "analytics"
	// ReportSourceCatalog represents the data-catalog API
	ReportSourceCatalog ReportSource = "catalog"
)

// ValidReportSources contains all valid report sources
var ValidReportSources = map[ReportSource]bool{
	ReportSourceAnalytics: true,
	ReportSourceCatalog:   true,
}

// UsageReport is a single generated usage report ready for upload.
// Rows are already rendered to strings; the report writer serializes
// them as CSV.
type UsageReport struct {
	Source ReportSource `json:"source"` // upstream system identifier
	Name   string       `json:"name"`   // report name, e.g. "site-traffic"
	Date   string       `json:"date"`   // report date, YYYY-MM-DD
	Header []string     `json:"header"` // CSV column names
	Rows   [][]string   `json:"rows"`   // CSV data rows
}
