package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/metrics"
	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/plant"
	"github.com/roach88/oprouter/internal/router"
	"github.com/roach88/oprouter/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	StoreOptions
	Layout  string
	Sorting bool
}

// ResolveResult holds one resolved cycle and what the plant received.
type ResolveResult struct {
	Layout  string          `json:"layout"`
	Outcome *router.Outcome `json:"outcome"`
	Records []plant.Record  `json:"records"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run one resolution cycle on a stored layout",
		Long: `Load a layout from the layout library, build the plant it describes and
run one resolution cycle against it.

Router settings come from the configuration file; --sorting overrides
router.sorting when given.

Exit codes:
  0 - Cycle completed
  1 - Cycle failed (configuration or consistency error)
  2 - Command error (database or layout not found)

Examples:
  oprouter resolve --db ./oprouter.db --layout line
  oprouter resolve --db ./oprouter.db --layout line --sorting --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path)")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "name of the stored layout (required)")
	cmd.Flags().BoolVar(&opts.Sorting, "sorting", false, "enable global sorting")
	_ = cmd.MarkFlagRequired("layout")

	return cmd
}

func runResolve(opts *ResolveOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := st.LoadLayout(ctx, opts.Layout)
	if errors.Is(err, store.ErrLayoutNotFound) {
		_ = formatter.Error(ErrCodeLayoutNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "layout not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "loading layout failed", err)
	}

	p, err := plant.Build(l)
	if err != nil {
		_ = formatter.Error(ErrCodeLayoutInvalid, err.Error(), nil)
		return WrapExitError(ExitFailure, "building plant failed", err)
	}

	routerCfg := opts.config().Router
	if cmd.Flags().Changed("sorting") {
		routerCfg.Sorting = opts.Sorting
	}
	routerOpts, err := routerCfg.Options()
	if err != nil {
		_ = formatter.Error(ErrCodeCriterion, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid router configuration", err)
	}

	collector := metrics.NewCollector()
	reg := prometheus.NewRegistry()
	if err := collector.Register(reg); err != nil {
		return WrapExitError(ExitFailure, "registering metrics", err)
	}
	routerOpts = append(routerOpts, router.WithRecorder(collector))

	r := router.New(p, p, routerOpts...)
	r.Invoke()
	out, err := r.Resolve(ctx)
	if err != nil {
		var me *model.Error
		if errors.As(err, &me) {
			_ = formatter.Error(ErrCodeCycle, err.Error(), me.Details)
		} else {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "cycle failed", err)
	}

	if families, err := reg.Gather(); err == nil {
		formatter.VerboseLog("Collected %d metric families", len(families))
	}

	result := ResolveResult{Layout: l.Name, Outcome: out, Records: p.Records()}
	return formatter.Success(result, func(w io.Writer) { writeOutcomeText(w, out, "") })
}

// writeOutcomeText prints one cycle in a compact human-readable form.
func writeOutcomeText(w io.Writer, o *router.Outcome, indent string) {
	fmt.Fprintf(w, "%scycle %s at %g (%s, %s)\n", indent, o.CycleID, o.At, o.Mode, o.Criterion)
	if len(o.Assignments) == 0 {
		fmt.Fprintf(w, "%s  no assignments\n", indent)
	}
	for _, a := range o.Assignments {
		line := fmt.Sprintf("%s  %s -> %s", indent, a.Operator, a.Station)
		if a.Entity != "" {
			line += " [" + a.Entity + "]"
		}
		if a.Preemptive {
			line += " (preemptive)"
		}
		fmt.Fprintln(w, line)
	}
	for _, s := range o.Signals {
		fmt.Fprintf(w, "%s  signal %s %s\n", indent, s.Kind, s.Station)
	}
	if len(o.Dropped) > 0 {
		fmt.Fprintf(w, "%s  dropped: %s\n", indent, strings.Join(o.Dropped, ", "))
	}
	if len(o.Blocked) > 0 {
		fmt.Fprintf(w, "%s  blocked: %s\n", indent, strings.Join(o.Blocked, ", "))
	}
}
