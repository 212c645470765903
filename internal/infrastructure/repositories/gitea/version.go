package gitea

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

const (
	minGiteaVersion   = "v1.24.0"
	minForgejoVersion = "v12.0.0"
	forgejoMarker     = "+gitea-"
)

// ServerFlavor is the product answering the Gitea API.
type ServerFlavor string

const (
	FlavorGitea   ServerFlavor = "Gitea"
	FlavorForgejo ServerFlavor = "Forgejo"
)

// ParseServerVersion tells Gitea from Forgejo and returns a semver string.
// Forgejo reports its own version with the compatible Gitea release as build
// metadata, e.g. "12.0.1+gitea-1.22.0".
func ParseServerVersion(raw string) (ServerFlavor, string) {
	flavor := FlavorGitea
	version := strings.TrimSpace(raw)
	if idx := strings.Index(version, forgejoMarker); idx >= 0 {
		flavor = FlavorForgejo
		version = version[:idx]
	}
	return flavor, normalizeVersion(version)
}

// CheckServerVersion fails with entities.ErrUnsupportedVersion for releases
// older than Gitea 1.24 or Forgejo 12.
func CheckServerVersion(raw string) error {
	flavor, version := ParseServerVersion(raw)
	minimum := minGiteaVersion
	if flavor == FlavorForgejo {
		minimum = minForgejoVersion
	}

	if !semver.IsValid(version) {
		return fmt.Errorf("%w: cannot parse %s version %q", entities.ErrUnsupportedVersion, flavor, raw)
	}
	if semver.Compare(version, minimum) < 0 {
		return fmt.Errorf("%w: %s %s is older than the required %s",
			entities.ErrUnsupportedVersion, flavor, strings.TrimPrefix(version, "v"), strings.TrimPrefix(minimum, "v"))
	}
	return nil
}

// normalizeVersion ensures version has 'v' prefix for semver compatibility
func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
