package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/resolve"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
	exitResponse    = 9
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	var noMatch *resolve.NoMatchError
	var ambiguous *resolve.AmbiguousError
	switch {
	case errors.Is(err, config.ErrNotConfigured):
		return exitAuth
	case errors.As(err, &noMatch), errors.Is(err, resolve.ErrNoCandidates):
		return exitNotFound
	case errors.As(err, &ambiguous), errors.Is(err, resolve.ErrEmptyQuery):
		return exitUsage
	}

	if code := exitCodeFromStructured(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	return exitGeneric
}

func exitCodeFromStructured(err error) int {
	structured := api.StructuredErrorFromError(err)
	if structured == nil {
		return 0
	}
	switch structured.Code {
	case api.ErrUnauthorized:
		return exitAuth
	case api.ErrForbidden:
		return exitForbidden
	case api.ErrNotFound:
		return exitNotFound
	case api.ErrRateLimited:
		return exitRateLimited
	case api.ErrServerError:
		return exitServer
	case api.ErrTimeout, api.ErrNetwork:
		return exitNetwork
	case api.ErrDecodeFailed, api.ErrUnexpectedResponse:
		return exitResponse
	case api.ErrBadRequest, api.ErrValidation:
		return exitUsage
	default:
		return 0
	}
}

func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"accepts between",
		"invalid argument",
		"must be",
		"is required",
		"conflicts with",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
