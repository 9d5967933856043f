package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// sortKey identifies a master row and its position.
type sortKey struct {
	ID        string `db:"id"`
	SortOrder int    `db:"sort_order"`
}

// nextSortOrder returns max(sort_order)+1 for a master table.
func nextSortOrder(ctx context.Context, exec sqlx.ExtContext, table string) (int, error) {
	var next int
	query := fmt.Sprintf(`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM %s`, table)
	if err := sqlx.GetContext(ctx, exec, &next, query); err != nil {
		return 0, fmt.Errorf("next %s sort order: %w", table, err)
	}
	return next, nil
}

// adjacentRow finds the row directly above or below sortOrder.
func adjacentRow(ctx context.Context, exec sqlx.ExtContext, table string, sortOrder int, dir models.MoveDirection) (*sortKey, error) {
	var query string
	switch dir {
	case models.MoveUp:
		query = fmt.Sprintf(`SELECT id, sort_order FROM %s WHERE sort_order < $1 ORDER BY sort_order DESC LIMIT 1`, table)
	case models.MoveDown:
		query = fmt.Sprintf(`SELECT id, sort_order FROM %s WHERE sort_order > $1 ORDER BY sort_order ASC LIMIT 1`, table)
	default:
		return nil, fmt.Errorf("unknown move direction %q", dir)
	}
	var key sortKey
	if err := sqlx.GetContext(ctx, exec, &key, query, sortOrder); err != nil {
		return nil, err
	}
	return &key, nil
}

// renumberIfShared rewrites sort_order as 1..n following orderBy when two rows
// share a position, and returns the refreshed key of current.
func renumberIfShared(ctx context.Context, exec sqlx.ExtContext, table, orderBy string, current sortKey) (sortKey, error) {
	var shared bool
	check := fmt.Sprintf(`SELECT COUNT(*) <> COUNT(DISTINCT sort_order) FROM %s`, table)
	if err := sqlx.GetContext(ctx, exec, &shared, check); err != nil {
		return current, fmt.Errorf("check %s sort order: %w", table, err)
	}
	if !shared {
		return current, nil
	}

	renumber := fmt.Sprintf(`UPDATE %[1]s AS t SET sort_order = r.pos FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY %[2]s) AS pos FROM %[1]s) r WHERE t.id = r.id`, table, orderBy)
	if _, err := exec.ExecContext(ctx, renumber); err != nil {
		return current, fmt.Errorf("renumber %s: %w", table, err)
	}

	var refreshed sortKey
	reload := fmt.Sprintf(`SELECT id, sort_order FROM %s WHERE id = $1`, table)
	if err := sqlx.GetContext(ctx, exec, &refreshed, reload, current.ID); err != nil {
		return current, fmt.Errorf("reload %s %s: %w", table, current.ID, err)
	}
	return refreshed, nil
}

// moveRow swaps current with its neighbour in dir. It reports false at an edge.
func moveRow(ctx context.Context, exec sqlx.ExtContext, table, orderBy string, current sortKey, dir models.MoveDirection) (bool, error) {
	current, err := renumberIfShared(ctx, exec, table, orderBy, current)
	if err != nil {
		return false, err
	}
	neighbour, err := adjacentRow(ctx, exec, table, current.SortOrder, dir)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("find adjacent %s row: %w", table, err)
	}
	if err := swapSortOrder(ctx, exec, table, current, *neighbour); err != nil {
		return false, err
	}
	return true, nil
}

// swapSortOrder exchanges the positions of two rows.
func swapSortOrder(ctx context.Context, exec sqlx.ExtContext, table string, a, b sortKey) error {
	query := fmt.Sprintf(`UPDATE %s SET sort_order = $1 WHERE id = $2`, table)
	if _, err := exec.ExecContext(ctx, query, b.SortOrder, a.ID); err != nil {
		return fmt.Errorf("move %s %s: %w", table, a.ID, err)
	}
	if _, err := exec.ExecContext(ctx, query, a.SortOrder, b.ID); err != nil {
		return fmt.Errorf("move %s %s: %w", table, b.ID, err)
	}
	return nil
}
