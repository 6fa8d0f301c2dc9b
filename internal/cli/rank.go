package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/plant"
	"github.com/roach88/oprouter/internal/policy"
)

// RankOptions holds flags for the rank command.
type RankOptions struct {
	*RootOptions
	Criteria []string
}

// RankedJob is one job in ranked order.
type RankedJob struct {
	ID      string `json:"id"`
	Station string `json:"station"`
}

// RankResult holds a ranking.
type RankResult struct {
	Criteria []string    `json:"criteria"`
	Jobs     []RankedJob `json:"jobs"`
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rank <layout.yaml>",
		Short: "Rank a layout's pending jobs",
		Long: `Rank the pending jobs of a layout with one or more scheduling criteria.

The first criterion given is the primary key; later ones break its ties.
Without --criterion the configured router.default_rule is used.

Criteria: FIFO, WT, Priority, EDD, EOD, NumStages, RPC, LPT, SPT, MS, WINQ

Examples:
  oprouter rank ./layouts/line.yaml --criterion EDD
  oprouter rank ./layouts/line.yaml --criterion SPT,EDD --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Criteria, "criterion", nil, "scheduling criteria, comma separated")

	return cmd
}

func runRank(opts *RankOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	names := opts.Criteria
	if len(names) == 0 {
		names = []string{opts.config().Router.DefaultRule}
	}
	criteria, err := policy.ParseAll(names)
	if err != nil {
		_ = formatter.Error(ErrCodeCriterion, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid criterion", err)
	}

	l, err := loadLayoutFile(formatter, path)
	if err != nil {
		return err
	}
	p, err := plant.Build(l)
	if err != nil {
		_ = formatter.Error(ErrCodeLayoutInvalid, err.Error(), nil)
		return WrapExitError(ExitFailure, "building plant failed", err)
	}

	snap := p.Snapshot()
	jobs := append([]model.Entity(nil), snap.Pending...)
	if err := policy.RankBy(criteria, jobs, policy.Self, policy.Env{Objects: snap.Objects}); err != nil {
		_ = formatter.Error(ErrCodeCriterion, err.Error(), nil)
		return WrapExitError(ExitFailure, "ranking failed", err)
	}

	result := RankResult{Criteria: names, Jobs: make([]RankedJob, 0, len(jobs))}
	for _, e := range jobs {
		result.Jobs = append(result.Jobs, RankedJob{ID: e.ID(), Station: e.CurrentStation().ID()})
	}

	return formatter.Success(result, func(w io.Writer) {
		for i, j := range result.Jobs {
			fmt.Fprintf(w, "%d. %s (%s)\n", i+1, j.ID, j.Station)
		}
	})
}
