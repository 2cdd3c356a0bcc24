package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionStatus describes how a backend version compares to the one the dashboard expects
type VersionStatus struct {
	Status  string `json:"status"` // current, outdated, unknown
	Message string `json:"message,omitempty"`
}

// CheckBackendVersion compares the version reported by /api/system-info against minVersion.
// An empty or unparsable backend version is "unknown"; an empty minimum accepts anything parsable.
func CheckBackendVersion(backendVersion, minVersion string) VersionStatus {
	backendVersion = strings.TrimPrefix(strings.TrimSpace(backendVersion), "v")
	if backendVersion == "" {
		return VersionStatus{Status: "unknown"}
	}

	backendVer, err := version.NewVersion(backendVersion)
	if err != nil {
		return VersionStatus{Status: "unknown", Message: "Unrecognised backend version " + backendVersion}
	}

	minVersion = strings.TrimPrefix(strings.TrimSpace(minVersion), "v")
	if minVersion == "" {
		return VersionStatus{Status: "current"}
	}

	minVer, err := version.NewVersion(minVersion)
	if err != nil {
		return VersionStatus{Status: "current"}
	}

	if backendVer.LessThan(minVer) {
		return VersionStatus{
			Status:  "outdated",
			Message: "Backend " + backendVer.String() + " is older than the supported minimum " + minVer.String(),
		}
	}
	return VersionStatus{Status: "current"}
}
