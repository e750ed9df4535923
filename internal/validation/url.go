// Package validation checks URLs before they are handed to the HTTP client.
//
// Route base URLs come from configuration and hyperlinks come from API
// responses. Both must be absolute http(s) URLs with a host, and neither may
// point at a cloud metadata endpoint.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateBaseURL validates a configured service base URL and returns it parsed.
// A trailing slash is added so relative route paths resolve beneath it.
func ValidateBaseURL(rawURL string) (*url.URL, error) {
	u, err := ValidateHyperlink(rawURL)
	if err != nil {
		return nil, err
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("base URL must not carry a query or fragment: %q", rawURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// ValidateHyperlink validates an absolute URL that will be requested verbatim.
// It checks that the URL:
//   - Uses http or https scheme
//   - Contains a hostname
//   - Does not target cloud metadata endpoints
func ValidateHyperlink(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	return u, CheckURL(u)
}

// CheckURL applies the ValidateHyperlink rules to an already parsed URL.
func CheckURL(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("URL cannot be empty")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	return nil
}

// isCloudMetadata checks for cloud metadata endpoints
func isCloudMetadata(hostname string) bool {
	lowercase := strings.ToLower(hostname)
	cloudMetadataEndpoints := []string{
		"169.254.169.254",          // AWS, Azure, GCP, DigitalOcean
		"metadata.google.internal", // GCP
		"metadata",
		"instance-data", // AWS
		"fd00:ec2::254", // AWS IPv6
	}

	for _, endpoint := range cloudMetadataEndpoints {
		if lowercase == endpoint {
			return true
		}
	}
	return strings.HasSuffix(lowercase, ".metadata.google.internal")
}
