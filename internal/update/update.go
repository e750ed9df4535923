// Package update checks GitHub releases for a newer artlens version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultReleasesURL is the GitHub API endpoint for the latest release.
	DefaultReleasesURL = "https://api.github.com/repos/artlens/artlens/releases/latest"
	CheckTimeout       = 5 * time.Second

	// maxReleaseBody bounds the release payload we are willing to decode.
	maxReleaseBody = 1 << 20
)

// ReleasesURL is the URL to check for releases. Can be overridden in tests.
var ReleasesURL = DefaultReleasesURL

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type CheckResult struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateURL       string `json:"update_url,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

// Notice returns a one-line hint when an update is available.
func (r *CheckResult) Notice() string {
	if r == nil || !r.UpdateAvailable {
		return ""
	}
	msg := fmt.Sprintf("artlens %s is available (you have %s)", r.LatestVersion, strings.TrimPrefix(r.CurrentVersion, "v"))
	if r.UpdateURL != "" {
		msg += ": " + r.UpdateURL
	}
	return msg
}

// CheckForUpdate checks if a newer version is available.
// Returns nil if the check fails; it never blocks the CLI.
func CheckForUpdate(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "artlens/"+strings.TrimPrefix(currentVersion, "v"))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReleaseBody)).Decode(&release); err != nil {
		return nil
	}
	if release.TagName == "" {
		return nil
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
