package cloudgov

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

// loadReleaseMetadata reads the configured metadata file. A missing or
// malformed file degrades to an empty metadata object; release calls
// must never fail on local file problems.
func (c *Client) loadReleaseMetadata() map[string]interface{} {
	data, err := os.ReadFile(c.metadataPath)
	if err != nil {
		c.logger.Debug("metadata file not readable, using empty metadata",
			zap.String("path", c.metadataPath),
			zap.Error(err),
		)
		return map[string]interface{}{}
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(data, &metadata); err != nil {
		c.logger.Warn("metadata file is malformed, using empty metadata",
			zap.String("path", c.metadataPath),
			zap.Error(err),
		)
		return map[string]interface{}{}
	}
	if metadata == nil {
		return map[string]interface{}{}
	}

	return metadata
}
