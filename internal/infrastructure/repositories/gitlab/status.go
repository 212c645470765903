package gitlab

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/infrastructure/repositories/statuspage"
)

// StatusURL is the public GitLab.com status summary.
const StatusURL = "https://status-api.hostedstatus.com/1.0/status/5b36dc6502d06804c08349f7"

// MapStatusCode converts a status.io overall status code into a health status.
func MapStatusCode(code int) entities.HealthStatus {
	switch code {
	case 100:
		return entities.HealthNone
	case 200, 300, 400:
		return entities.HealthMinor
	case 500, 600:
		return entities.HealthMajor
	default:
		return entities.HealthUnknown
	}
}

func (r *GitLabBackendRepository) CheckStatus(ctx context.Context) entities.HealthStatus {
	// the public status page says nothing about self-hosted instances
	if r.info != nil && r.info.IsSelfHosted {
		return entities.HealthUnknown
	}
	var document struct {
		Result struct {
			StatusOverall struct {
				StatusCode int `json:"status_code"`
			} `json:"status_overall"`
		} `json:"result"`
	}
	if err := statuspage.FetchJSON(ctx, nil, r.statusURL, &document); err != nil {
		logger.Debugf("GitLab status unavailable: %v", err)
		return entities.HealthUnknown
	}
	return MapStatusCode(document.Result.StatusOverall.StatusCode)
}
