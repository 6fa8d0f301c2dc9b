package store

import (
	"context"
	"fmt"

	"github.com/roach88/oprouter/internal/layout"
)

// SaveLayout validates l and stores it under its name.
// Saving an existing name replaces the document and increments its revision.
func (s *Store) SaveLayout(ctx context.Context, l *layout.Layout) error {
	if err := l.Prepare(); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	doc, err := marshalLayout(l)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (name, document, stations, operators, jobs)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			document  = excluded.document,
			stations  = excluded.stations,
			operators = excluded.operators,
			jobs      = excluded.jobs,
			revision  = layouts.revision + 1
	`,
		l.Name,
		doc,
		len(l.Stations),
		len(l.Operators),
		len(l.Jobs),
	)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	return nil
}

// DeleteLayout removes a layout. Deleting an unknown name returns
// ErrLayoutNotFound.
func (s *Store) DeleteLayout(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete layout %q: %w", name, ErrLayoutNotFound)
	}
	return nil
}
