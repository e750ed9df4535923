package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/resolve"
)

// HandleError renders err as a user-facing message followed by suggestions.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder
	var apiErr *api.APIError
	var authErr *api.AuthError
	var transportErr *api.TransportError
	var decodeErr *parse.DecodeError
	var remoteErr *parse.RemoteError
	var ambiguous *resolve.AmbiguousError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("No credentials configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: artlens auth set\n")
		fmt.Fprintf(&msg, "  - Or export %s and %s\n", config.EnvArtsyToken, config.EnvImaggaToken)

	case errors.As(err, &authErr):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", authErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: artlens auth set\n")
		msg.WriteString("  - Check stored credentials: artlens auth status\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "%s API error (HTTP %d): %s\n\n", serviceLabel(string(apiErr.Service)), apiErr.StatusCode, apiErr.Body)
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))
		if apiErr.RetryAfter > 0 {
			fmt.Fprintf(&msg, "\nRetry after: %s\n", apiErr.RetryAfter)
		}
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			fmt.Fprintf(&msg, "Request to %s timed out.\n\n", serviceLabel(string(transportErr.Service)))
			msg.WriteString("Suggestions:\n")
			msg.WriteString("  - Raise the limit with --timeout (e.g. --timeout 2m)\n")
			msg.WriteString("  - Check your network connection\n")
			break
		}
		fmt.Fprintf(&msg, "Could not reach %s: %v\n\n", serviceLabel(string(transportErr.Service)), transportErr.Err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your network connection\n")
		msg.WriteString("  - Verify base URLs: artlens config show\n")

	case errors.As(err, &decodeErr):
		fmt.Fprintf(&msg, "Image could not be decoded (%d bytes).\n\n", decodeErr.Size)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Supported formats are JPEG, PNG, GIF and WebP\n")
		msg.WriteString("  - Try a different image_version in the config file\n")

	case errors.As(err, &remoteErr):
		fmt.Fprintf(&msg, "Service reported an error: %s\n", remoteErr.Message)

	case errors.Is(err, parse.ErrMissingField), errors.Is(err, parse.ErrMalformed):
		fmt.Fprintf(&msg, "Unexpected response: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Rerun with --debug to see the request\n")

	case errors.As(err, &ambiguous):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Use a more specific name, or --pick N to choose by position\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func serviceLabel(service string) string {
	switch service {
	case "artsy":
		return "Artsy"
	case "imagga":
		return "Imagga"
	case "":
		return "service"
	}
	return service
}

func suggestionsForStatusCode(code int) string {
	var s strings.Builder
	s.WriteString("Suggestions:\n")
	switch {
	case code == 401:
		s.WriteString("  - Your token may be invalid or expired\n")
		s.WriteString("  - Run: artlens auth set\n")
	case code == 403:
		s.WriteString("  - Your credentials are not allowed to use this endpoint\n")
	case code == 404:
		s.WriteString("  - The resource doesn't exist\n")
		s.WriteString("  - Search again; Artsy links can go stale\n")
	case code == 429:
		s.WriteString("  - Too many requests\n")
		s.WriteString("  - Wait and retry, or set rate_limit_rps in the config file\n")
	case code >= 500:
		s.WriteString("  - Server error - not your fault\n")
		s.WriteString("  - Wait and retry\n")
	default:
		s.WriteString("  - Use --debug for more details\n")
	}
	return s.String()
}
