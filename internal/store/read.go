package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/oprouter/internal/layout"
)

// ErrLayoutNotFound is returned when no layout has the requested name.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutInfo summarizes a stored layout.
type LayoutInfo struct {
	Name      string `json:"name"`
	Revision  int64  `json:"revision"`
	Stations  int    `json:"stations"`
	Operators int    `json:"operators"`
	Jobs      int    `json:"jobs"`
}

// LoadLayout returns the stored layout with the given name, validated
// again so it can be built into a plant directly.
func (s *Store) LoadLayout(ctx context.Context, name string) (*layout.Layout, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM layouts WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load layout %q: %w", name, ErrLayoutNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load layout %q: %w", name, err)
	}

	l, err := unmarshalLayout(doc)
	if err != nil {
		return nil, fmt.Errorf("load layout %q: %w", name, err)
	}
	if err := l.Prepare(); err != nil {
		return nil, fmt.Errorf("load layout %q: %w", name, err)
	}
	return l, nil
}

// ListLayouts returns every stored layout ordered by name.
//
// Returns an empty slice (not nil) if the library is empty.
func (s *Store) ListLayouts(ctx context.Context) ([]LayoutInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, revision, stations, operators, jobs
		FROM layouts
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	infos := []LayoutInfo{}
	for rows.Next() {
		var info LayoutInfo
		if err := rows.Scan(&info.Name, &info.Revision, &info.Stations, &info.Operators, &info.Jobs); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layouts: %w", err)
	}

	return infos, nil
}
