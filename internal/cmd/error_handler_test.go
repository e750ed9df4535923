package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/parse"
	"github.com/artlens/artlens/internal/resolve"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "not configured",
			err:  config.ErrNotConfigured,
			want: []string{"No credentials configured", "artlens auth set", "ARTSY_TOKEN"},
		},
		{
			name: "auth",
			err:  &api.AuthError{Service: endpoint.ServiceImagga, Reason: "no imagga credential"},
			want: []string{"Authentication failed: no imagga credential", "artlens auth status"},
		},
		{
			name: "api error",
			err:  &api.APIError{Service: endpoint.ServiceArtsy, StatusCode: 429, Body: "slow down", RequestID: "req-1", RetryAfter: 2 * time.Second},
			want: []string{"Artsy API error (HTTP 429): slow down", "rate_limit_rps", "Retry after: 2s", "Request ID: req-1"},
		},
		{
			name: "server error",
			err:  &api.APIError{Service: endpoint.ServiceImagga, StatusCode: 502, Body: "bad gateway"},
			want: []string{"Imagga API error (HTTP 502)", "not your fault"},
		},
		{
			name: "timeout",
			err:  &api.TransportError{Service: endpoint.ServiceArtsy, Err: context.DeadlineExceeded},
			want: []string{"Request to Artsy timed out", "--timeout"},
		},
		{
			name: "transport",
			err:  &api.TransportError{Service: endpoint.ServiceImagga, Err: errors.New("connection refused")},
			want: []string{"Could not reach Imagga: connection refused", "artlens config show"},
		},
		{
			name: "decode",
			err:  fmt.Errorf("image: %w", &parse.DecodeError{Size: 12, Err: errors.New("unknown format")}),
			want: []string{"Image could not be decoded (12 bytes)", "WebP"},
		},
		{
			name: "remote",
			err:  &parse.RemoteError{Message: "Invalid image"},
			want: []string{"Service reported an error: Invalid image"},
		},
		{
			name: "missing field",
			err:  fmt.Errorf("artworks: %w", parse.MissingField("_links.artworks.href")),
			want: []string{"Unexpected response", "_links.artworks.href", "--debug"},
		},
		{
			name: "ambiguous",
			err:  &resolve.AmbiguousError{Query: "smith", Matches: []resolve.Match{{Index: 0, Title: "John Smith"}}},
			want: []string{"ambiguous match", "1: John Smith", "--pick"},
		},
		{
			name: "generic",
			err:  errors.New("something broke"),
			want: []string{"Error: something broke"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleError(tt.err)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("HandleError() missing %q:\n%s", want, got)
				}
			}
		})
	}

	if HandleError(nil) != "" {
		t.Error("HandleError(nil) should be empty")
	}
}

func TestRunE_JSONErrors(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/artsy/search", jsonResponse(404, `{"type":"error","message":"Artist Not Found"}`))
	setupTestEnvWithHandler(t, handler)

	var err error
	var stdout string
	stderr := captureStderr(t, func() {
		stdout = captureStdout(t, func() {
			err = Execute(context.Background(), []string{"search", "nobody", "--json"})
		})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if stdout != "" {
		t.Errorf("errors must not go to stdout: %q", stdout)
	}
	for _, want := range []string{`"code": "not_found"`, "Artist Not Found", `"retryable": false`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %s:\n%s", want, stderr)
		}
	}
	if ExitCode(err) != exitNotFound {
		t.Errorf("exit code = %d", ExitCode(err))
	}
}
