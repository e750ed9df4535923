package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/iocontext"
	"github.com/artlens/artlens/internal/outfmt"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

// newFormatter returns a formatter bound to the command's streams and output mode.
func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// printJSON outputs data as JSON with optional query/template filtering
func printJSON(cmd *cobra.Command, v any) error {
	return newFormatter(cmd).Output(v)
}

func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// isJSON checks if the command context wants structured output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context()) || outfmt.GetTemplate(cmd.Context()) != ""
}

// printIfNotQuiet prints a status line to stderr unless --quiet is set.
// Stdout stays reserved for command output.
func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet {
		return
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprintf(ioStreams.ErrOut, format, args...)
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias for an existing flag. Both flags share
// the same underlying Value, so setting either one sets both.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	ann := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		ann[k] = v
	}
	a.Annotations = ann
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func isInteractive() bool {
	if forceInteractive() {
		return true
	}
	return iocontext.DefaultIO().InIsTerminal()
}

func forceInteractive() bool {
	value := strings.TrimSpace(os.Getenv("ARTLENS_FORCE_INTERACTIVE"))
	if value == "" {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}

// promptLine writes label to stderr and reads one trimmed line from in.
// EOF with no input yields an empty string.
func promptLine(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprint(ioStreams.ErrOut, label)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if isJSON(cmd) {
			if structured := api.StructuredErrorFromError(err); structured != nil {
				_ = printJSONErr(cmd, structured)
			}
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}
