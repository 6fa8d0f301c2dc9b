package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/layout"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Name      string `json:"name"`
	Stations  int    `json:"stations"`
	Operators int    `json:"operators"`
	Jobs      int    `json:"jobs"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <layout.yaml>",
		Short: "Validate a plant layout",
		Long: `Validate a plant layout document.

Decodes the YAML strictly, checks it against the layout schema and
reports duplicate identifiers and dangling references.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := loadLayoutFile(formatter, path)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:     true,
		Name:      l.Name,
		Stations:  len(l.Stations),
		Operators: len(l.Operators),
		Jobs:      len(l.Jobs),
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: %d station(s), %d operator(s), %d job(s)\n",
			result.Name, result.Stations, result.Operators, result.Jobs)
	})
}

// loadLayoutFile loads a layout and reports failures through formatter.
// A missing file is a command error; an invalid document is a failure.
func loadLayoutFile(formatter *OutputFormatter, path string) (*layout.Layout, error) {
	formatter.VerboseLog("Loading layout %s", path)

	l, err := layout.Load(path)
	if err == nil {
		return l, nil
	}

	var le *layout.Error
	if errors.As(err, &le) && le.Code == layout.ErrCodeNotFound {
		_ = formatter.Error(ErrCodeGeneric, le.Message, nil)
		return nil, WrapExitError(ExitCommandError, "layout not readable", err)
	}

	details := map[string]string{"file": path}
	if le != nil {
		details["code"] = le.Code
	}
	_ = formatter.Error(ErrCodeLayoutInvalid, err.Error(), details)
	return nil, WrapExitError(ExitFailure, "invalid layout", err)
}
