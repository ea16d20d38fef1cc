package store

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed sql/silver/*.sql sql/gold/*.sql
var viewsFS embed.FS

// ApplyViews (re-)creates the silver domain views and the gold metric views.
// Views are pure projections over silver_events, so this is safe to run at
// any time; silver views are applied first because gold views read them.
// When only is non-empty, just the named view is rebuilt.
func (s *Store) ApplyViews(ctx context.Context, only string) (int, error) {
	applied := 0
	for _, dir := range []string{"sql/silver", "sql/gold"} {
		entries, err := viewsFS.ReadDir(dir)
		if err != nil {
			return applied, fmt.Errorf("read view dir %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			viewName := strings.TrimSuffix(name, ".sql")
			if only != "" && viewName != only {
				continue
			}
			contents, err := viewsFS.ReadFile(path.Join(dir, name))
			if err != nil {
				return applied, fmt.Errorf("read view %s: %w", name, err)
			}
			if _, err := s.db.ExecContext(ctx, string(contents)); err != nil {
				return applied, fmt.Errorf("apply view %s: %w", viewName, err)
			}
			applied++
		}
	}
	if only != "" && applied == 0 {
		return 0, fmt.Errorf("unknown view %q", only)
	}
	return applied, nil
}

// QueryView runs a SELECT * over a named view and returns the column names
// plus stringified rows. Used by diagnostics and tests; dashboards read the
// parquet export instead.
func (s *Store) QueryView(ctx context.Context, viewName string) ([]string, [][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(viewName))
	if err != nil {
		return nil, nil, fmt.Errorf("query view %s: %w", viewName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var result [][]string
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(columns))
		for i, v := range raw {
			switch value := v.(type) {
			case nil:
				record[i] = ""
			case []byte:
				record[i] = string(value)
			default:
				record[i] = fmt.Sprint(value)
			}
		}
		result = append(result, record)
	}
	return columns, result, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
