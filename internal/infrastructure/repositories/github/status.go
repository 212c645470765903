package github

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/statuspage"
)

// StatusURL is the public GitHub status summary.
const StatusURL = "https://www.githubstatus.com/api/v2/status.json"

// MapStatusIndicator converts a Statuspage indicator into a health status.
func MapStatusIndicator(indicator string) entities.HealthStatus {
	switch indicator {
	case "none":
		return entities.HealthNone
	case "minor":
		return entities.HealthMinor
	case "major", "critical":
		return entities.HealthMajor
	default:
		return entities.HealthUnknown
	}
}

func (r *GitHubBackendRepository) CheckStatus(ctx context.Context) entities.HealthStatus {
	// the public status page says nothing about self-hosted instances
	if r.info != nil && r.info.IsSelfHosted {
		return entities.HealthUnknown
	}
	var document struct {
		Status struct {
			Indicator string `json:"indicator"`
		} `json:"status"`
	}
	if err := statuspage.FetchJSON(ctx, nil, r.statusURL, &document); err != nil {
		logger.Debugf("GitHub status unavailable: %v", err)
		return entities.HealthUnknown
	}
	return MapStatusIndicator(document.Status.Indicator)
}
