package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// priorityTop asks placeItem for the highest slot of the list.
const priorityTop = math.MaxInt32

type rankedItem struct {
	id       int64
	priority int
}

// activeItems returns the unfinished items of listID other than exceptID,
// highest priority first. Ties keep insertion order.
func activeItems(ctx context.Context, tx *sql.Tx, listID, exceptID int64) ([]rankedItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, priority FROM todo_items
		 WHERE list_id = ? AND finished = 0 AND id != ?
		 ORDER BY priority DESC, id`,
		listID, exceptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load list priorities: %w", err)
	}
	defer rows.Close()

	var items []rankedItem
	for rows.Next() {
		var it rankedItem
		if err := rows.Scan(&it.id, &it.priority); err != nil {
			return nil, fmt.Errorf("failed to scan priority: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// placeItem reserves slot target for itemID in listID and renumbers the
// other unfinished items densely around it. The target is clamped to 1..N
// where N counts itemID too; the clamped slot is returned. itemID may be 0
// for an item not inserted yet. The caller writes the item's own row.
func placeItem(ctx context.Context, tx *sql.Tx, listID, itemID int64, target int) (int, error) {
	others, err := activeItems(ctx, tx, listID, itemID)
	if err != nil {
		return 0, err
	}

	n := len(others) + 1
	if target > n {
		target = n
	}
	if target < 1 {
		target = 1
	}

	slot := n
	for _, it := range others {
		if slot == target {
			slot--
		}
		if err := setPriority(ctx, tx, it, slot); err != nil {
			return 0, err
		}
		slot--
	}
	return target, nil
}

// compactList renumbers the unfinished items of listID to N..1, closing the
// gap left by an item that was finished, moved or deleted.
func compactList(ctx context.Context, tx *sql.Tx, listID int64) error {
	items, err := activeItems(ctx, tx, listID, 0)
	if err != nil {
		return err
	}
	slot := len(items)
	for _, it := range items {
		if err := setPriority(ctx, tx, it, slot); err != nil {
			return err
		}
		slot--
	}
	return nil
}

// hasPriorityConflict reports whether two unfinished items of listID share
// a priority.
func hasPriorityConflict(ctx context.Context, tx *sql.Tx, listID int64) (bool, error) {
	var dupes int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
			SELECT priority FROM todo_items
			WHERE list_id = ? AND finished = 0
			GROUP BY priority HAVING COUNT(*) > 1
		)`,
		listID,
	).Scan(&dupes)
	if err != nil {
		return false, fmt.Errorf("failed to check priority conflicts: %w", err)
	}
	return dupes > 0, nil
}

// setPriority writes slot only when it differs from the stored value.
func setPriority(ctx context.Context, tx *sql.Tx, it rankedItem, slot int) error {
	if it.priority == slot {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "UPDATE todo_items SET priority = ? WHERE id = ?", slot, it.id); err != nil {
		return fmt.Errorf("failed to renumber item %d: %w", it.id, err)
	}
	return nil
}
