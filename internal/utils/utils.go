package utils

import (
	"fmt"
	"strings"
	"time"
)

// ReportDateLayout is the date format used in report paths
const ReportDateLayout = "2006-01-02"

// ValidateReportDate validates that date is a calendar date in YYYY-MM-DD form
func ValidateReportDate(date string) error {
	if date == "" {
		return fmt.Errorf("report date cannot be empty")
	}

	if _, err := time.Parse(ReportDateLayout, date); err != nil {
		return fmt.Errorf("report date must be in YYYY-MM-DD format: %s", date)
	}

	return nil
}

// ValidateReportName validates a report name used as a path component
func ValidateReportName(name string) error {
	if name == "" {
		return fmt.Errorf("report name cannot be empty")
	}

	// Check for invalid characters
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return fmt.Errorf("report name contains invalid characters")
	}

	return nil
}

// YesterdayUTC returns yesterday's date in UTC, the default reporting window
func YesterdayUTC() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(ReportDateLayout)
}

// FormatPath formats storage path to ensure path consistency
func FormatPath(parts ...string) string {
	var cleanParts []string
	for _, part := range parts {
		if part != "" {
			// Remove leading and trailing slashes
			part = strings.Trim(part, "/")
			if part != "" {
				cleanParts = append(cleanParts, part)
			}
		}
	}
	return strings.Join(cleanParts, "/")
}

// ParseDateFromPath parses the report date from a storage path.
// Report paths have the form reports/{source}/{date}/{name}.csv[.gz].
func ParseDateFromPath(path string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid report path format: %s", path)
	}

	date := parts[2]
	if err := ValidateReportDate(date); err != nil {
		return "", fmt.Errorf("failed to parse date from path: %w", err)
	}

	return date, nil
}
