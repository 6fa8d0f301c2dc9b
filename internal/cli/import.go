package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/oprouter/internal/store"
)

// StoreOptions holds the flags shared by commands that use the layout library.
type StoreOptions struct {
	*RootOptions
	Database string
}

// databasePath returns --db, or store.path from the configuration.
func (o *StoreOptions) databasePath() string {
	if o.Database != "" {
		return o.Database
	}
	return o.config().Store.Path
}

// openStore opens the layout library and reports failures through formatter.
func (o *StoreOptions) openStore(formatter *OutputFormatter) (*store.Store, error) {
	path := o.databasePath()
	formatter.VerboseLog("Opening layout library %s", path)

	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// ImportResult holds the result of an import.
type ImportResult struct {
	Name     string `json:"name"`
	Revision int64  `json:"revision"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <layout.yaml>",
		Short: "Save a layout in the layout library",
		Long: `Validate a layout and save it in the SQLite layout library under its name.

Importing a name that already exists replaces the stored document and
increments its revision.

Examples:
  oprouter import ./layouts/line.yaml --db ./oprouter.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path)")

	return cmd
}

func runImport(opts *StoreOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := loadLayoutFile(formatter, path)
	if err != nil {
		return err
	}

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if err := st.SaveLayout(ctx, l); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}

	result := ImportResult{Name: l.Name}
	infos, err := st.ListLayouts(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}
	for _, info := range infos {
		if info.Name == l.Name {
			result.Revision = info.Revision
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %s (revision %d)\n", result.Name, result.Revision)
	})
}
