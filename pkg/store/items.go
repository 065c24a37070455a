package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Item is an entry of a list. Unfinished items carry a dense priority; a
// finished item has priority 0.
type Item struct {
	ID           int64
	ListID       int64
	Title        string
	Priority     int
	Finished     bool
	Created      time.Time
	Modified     time.Time
	Prioritized  time.Time
	CreateUserID int64
	ModifyUserID int64
}

// NewItem carries the fields accepted when creating an item. A nil Priority
// places the item at the top of its list.
type NewItem struct {
	ListID   int64
	Title    string
	Priority *int
	Finished bool
}

// ItemPatch carries the fields accepted when updating an item. Nil fields
// are left unchanged.
type ItemPatch struct {
	ListID   *int64
	Title    *string
	Priority *int
	Finished *bool
}

const itemColumns = `i.id, i.list_id, i.title, i.priority, i.finished, i.created, i.modified,
	i.prioritized, i.create_user_id, COALESCE(i.modify_user_id, 0)`

// ListItems returns the items visible to userID that match q. Unfinished
// items come first in priority order, then finished ones, most recently
// modified first.
func (s *Store) ListItems(ctx context.Context, userID int64, q ItemQuery) ([]*Item, error) {
	p := BuildPredicate(q.Criteria(), itemAliases).And(itemVisible(userID))
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM todo_items i"+p.Where()+
			" ORDER BY i.finished, i.priority DESC, i.modified DESC, i.id",
		p.Args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem retrieves an item visible to userID.
func (s *Store) GetItem(ctx context.Context, userID, id int64) (*Item, error) {
	return getItem(ctx, s.db, userID, id)
}

// CreateItem inserts an item into a list visible to userID. The item is
// stamped with the list owner as creator.
func (s *Store) CreateItem(ctx context.Context, userID int64, in NewItem) (*Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalid)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		l, err := getList(ctx, tx, userID, in.ListID)
		if err != nil {
			return err
		}

		priority := 0
		if !in.Finished {
			target := priorityTop
			if in.Priority != nil {
				target = *in.Priority
			}
			priority, err = placeItem(ctx, tx, l.ID, 0, target)
			if err != nil {
				return err
			}
		}

		now := s.now().Unix()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO todo_items (list_id, title, priority, finished, created, modified, prioritized, create_user_id, modify_user_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, in.Title, priority, boolToInt(in.Finished), now, now, now, l.CreateUserID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, userID, id)
}

// UpdateItem applies patch to an item visible to userID, keeping the
// priorities of every affected list dense.
func (s *Store) UpdateItem(ctx context.Context, userID, id int64, patch ItemPatch) (*Item, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		it, err := getItem(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		old := *it
		now := s.now()

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return fmt.Errorf("title is required: %w", ErrInvalid)
			}
			it.Title = title
		}
		if patch.ListID != nil && *patch.ListID != it.ListID {
			l, err := getList(ctx, tx, userID, *patch.ListID)
			if err != nil {
				return err
			}
			it.ListID = l.ID
			it.CreateUserID = l.CreateUserID
		}
		if patch.Finished != nil {
			it.Finished = *patch.Finished
		}

		wasActive := !old.Finished
		moved := it.ListID != old.ListID

		if it.Finished {
			it.Priority = 0
		} else {
			reentering := !wasActive || moved
			target := it.Priority
			if reentering {
				target = priorityTop
			}
			if patch.Priority != nil {
				target = *patch.Priority
			}

			place := reentering || target != old.Priority
			if !place {
				place, err = hasPriorityConflict(ctx, tx, it.ListID)
				if err != nil {
					return err
				}
			}
			if place {
				it.Priority, err = placeItem(ctx, tx, it.ListID, it.ID, target)
				if err != nil {
					return err
				}
			}
		}
		if it.Priority != old.Priority {
			it.Prioritized = now
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE todo_items SET list_id = ?, title = ?, priority = ?, finished = ?, modified = ?,
			 prioritized = ?, create_user_id = ?, modify_user_id = ? WHERE id = ?`,
			it.ListID, it.Title, it.Priority, boolToInt(it.Finished), now.Unix(),
			it.Prioritized.Unix(), it.CreateUserID, userID, it.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		if wasActive && (moved || it.Finished) {
			return compactList(ctx, tx, old.ListID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, userID, id)
}

// DeleteItem removes an item visible to userID.
func (s *Store) DeleteItem(ctx context.Context, userID, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		it, err := getItem(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM todo_items WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		if !it.Finished {
			return compactList(ctx, tx, it.ListID)
		}
		return nil
	})
}

// DeleteItems removes every item visible to userID that matches q and
// returns how many were removed. q must name a list; this is how a list's
// finished items are cleared in bulk.
func (s *Store) DeleteItems(ctx context.Context, userID int64, q ItemQuery) (int64, error) {
	if q.ListID == nil {
		return 0, fmt.Errorf("bulk delete requires a list: %w", ErrInvalid)
	}

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getList(ctx, tx, userID, *q.ListID); err != nil {
			return err
		}

		p := BuildPredicate(q.Criteria(), itemAliases).And(itemVisible(userID))
		result, err := tx.ExecContext(ctx,
			"DELETE FROM todo_items WHERE id IN (SELECT i.id FROM todo_items i"+p.Where()+")",
			p.Args...,
		)
		if err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		return compactList(ctx, tx, *q.ListID)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// getItem reads an item if userID may see it.
func getItem(ctx context.Context, q execer, userID, id int64) (*Item, error) {
	p := Predicate{SQL: "i.id = ?", Args: []any{id}}.And(itemVisible(userID))
	row := q.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM todo_items i"+p.Where(), p.Args...)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

func scanItem(row scanner) (*Item, error) {
	var it Item
	var finished int
	var created, modified, prioritized int64
	err := row.Scan(&it.ID, &it.ListID, &it.Title, &it.Priority, &finished, &created, &modified,
		&prioritized, &it.CreateUserID, &it.ModifyUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	it.Finished = finished == 1
	it.Created = time.Unix(created, 0)
	it.Modified = time.Unix(modified, 0)
	it.Prioritized = time.Unix(prioritized, 0)
	return &it, nil
}
