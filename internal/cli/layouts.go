package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/store"
)

// NewLayoutsCommand creates the layouts command.
func NewLayoutsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the layouts in the layout library",
		Long: `List every stored layout with its revision and size, ordered by name.

Examples:
  oprouter layouts --db ./oprouter.db
  oprouter layouts --db ./oprouter.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayouts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path)")

	return cmd
}

func runLayouts(opts *StoreOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListLayouts(commandContext(cmd))
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "listing layouts failed", err)
	}

	return formatter.Success(infos, func(w io.Writer) { writeLayoutsText(w, infos) })
}

func writeLayoutsText(w io.Writer, infos []store.LayoutInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No layouts stored.")
		return
	}
	for _, info := range infos {
		fmt.Fprintf(w, "%s  rev %d  %d station(s), %d operator(s), %d job(s)\n",
			info.Name, info.Revision, info.Stations, info.Operators, info.Jobs)
	}
}
