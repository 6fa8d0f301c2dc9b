package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/harness"
	"github.com/roach88/oprouter/internal/router"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	GoldenDir string // directory of <name>.golden traces
	Update    bool   // rewrite golden files instead of comparing
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name     string            `json:"name"`
	Pass     bool              `json:"pass"`
	Errors   []string          `json:"errors,omitempty"`
	Outcomes []*router.Outcome `json:"outcomes,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run resolver scenarios",
		Long: `Run scenario files against the in-memory plant and check their expectations.

Each scenario embeds a layout and a timeline of invoke, arrive, block and
release events. With --golden, traces are also compared with
<dir>/<name>.golden; --update rewrites those files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing file, etc.)

Examples:
  oprouter run ./scenarios/simple_load.yaml
  oprouter run ./scenarios/*.yaml --golden ./golden
  oprouter run ./scenarios/*.yaml --golden ./golden --update
  oprouter run ./scenarios/preemption.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("scenario file not found: %s", path), nil)
			return WrapExitError(ExitCommandError, "scenario file not found", err)
		}
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(paths)),
		Total:     len(paths),
	}
	for _, path := range paths {
		sr := runScenario(ctx, opts, path, formatter)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	text := func(w io.Writer) { writeRunText(w, result, opts.Verbose) }
	if result.Failed > 0 {
		if err := formatter.Failure(result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return formatter.Success(result, text)
}

// runScenario loads and runs one scenario. Load and execution errors are
// reported as a failed result.
func runScenario(ctx context.Context, opts *RunOptions, path string, formatter *OutputFormatter) ScenarioResult {
	s, err := harness.LoadScenario(path)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(path),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	formatter.VerboseLog("Running %s (%d event(s))", s.Name, len(s.Events))

	res, err := harness.RunContext(ctx, s)
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:     s.Name,
		Pass:     res.Pass,
		Errors:   res.Errors,
		Outcomes: res.Outcomes,
	}

	if opts.GoldenDir != "" {
		if err := checkGolden(opts, s.Name, res); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
		}
	}
	return sr
}

// checkGolden compares a trace with its golden file, or rewrites it with
// --update. A scenario without a golden file is not compared.
func checkGolden(opts *RunOptions, name string, res *harness.Result) error {
	trace, err := harness.MarshalTrace(name, res)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	path := filepath.Join(opts.GoldenDir, name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0755); err != nil {
			return fmt.Errorf("failed to update golden file: %w", err)
		}
		if err := os.WriteFile(path, trace, 0644); err != nil {
			return fmt.Errorf("failed to update golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("golden comparison failed: %w", err)
	}
	if !bytes.Equal(want, trace) {
		return fmt.Errorf("trace does not match golden file %s (run with --update to regenerate)", path)
	}
	return nil
}

func writeRunText(w io.Writer, result RunResult, verbose bool) {
	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s\n", sr.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if verbose {
			for _, o := range sr.Outcomes {
				writeOutcomeText(w, o, "  ")
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
