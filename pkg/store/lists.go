package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// List is a named container of items. A list is visible to its creator and,
// when shared, to every user.
type List struct {
	ID           int64
	Name         string
	Shared       bool
	Priority     int
	Created      time.Time
	Modified     time.Time
	Prioritized  time.Time
	CreateUserID int64
	ModifyUserID int64
}

// NewList carries the fields accepted when creating a list.
type NewList struct {
	Name     string
	Shared   bool
	Priority int
}

// ListPatch carries the fields accepted when updating a list. Nil fields are
// left unchanged.
type ListPatch struct {
	Name     *string
	Shared   *bool
	Priority *int
}

const listColumns = `l.id, l.name, l.shared, l.priority, l.created, l.modified, l.prioritized,
	l.create_user_id, COALESCE(l.modify_user_id, 0)`

// ListLists returns the lists visible to userID, highest priority first.
func (s *Store) ListLists(ctx context.Context, userID int64) ([]*List, error) {
	p := listVisible(userID)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+listColumns+" FROM todo_lists l"+p.Where()+" ORDER BY l.priority DESC, l.id",
		p.Args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []*List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// GetList retrieves a list visible to userID.
func (s *Store) GetList(ctx context.Context, userID, id int64) (*List, error) {
	return getList(ctx, s.db, userID, id)
}

// CreateList inserts a list owned by userID.
func (s *Store) CreateList(ctx context.Context, userID int64, in NewList) (*List, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalid)
	}

	now := s.now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO todo_lists (name, shared, priority, created, modified, prioritized, create_user_id, modify_user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, boolToInt(in.Shared), in.Priority, now, now, now, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.GetList(ctx, userID, id)
}

// UpdateList applies patch to a list visible to userID: one it created or
// one shared by another user. Only DeleteList is restricted to the creator.
func (s *Store) UpdateList(ctx context.Context, userID, id int64, patch ListPatch) (*List, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		l, err := getList(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		now := s.now()
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("name is required: %w", ErrInvalid)
			}
			l.Name = name
		}
		if patch.Shared != nil {
			l.Shared = *patch.Shared
		}
		if patch.Priority != nil && *patch.Priority != l.Priority {
			l.Priority = *patch.Priority
			l.Prioritized = now
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE todo_lists SET name = ?, shared = ?, priority = ?, prioritized = ?,
			 modified = ?, modify_user_id = ? WHERE id = ?`,
			l.Name, boolToInt(l.Shared), l.Priority, l.Prioritized.Unix(), now.Unix(), userID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to update list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetList(ctx, userID, id)
}

// DeleteList removes a list created by userID together with its items.
func (s *Store) DeleteList(ctx context.Context, userID, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		l, err := getList(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if l.CreateUserID != userID {
			return ErrForbidden
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM todo_lists WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete list: %w", err)
		}
		return nil
	})
}

// getList reads a list if userID may see it.
func getList(ctx context.Context, q execer, userID, id int64) (*List, error) {
	p := Predicate{SQL: "l.id = ?", Args: []any{id}}.And(listVisible(userID))
	row := q.QueryRowContext(ctx, "SELECT "+listColumns+" FROM todo_lists l"+p.Where(), p.Args...)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func scanList(row scanner) (*List, error) {
	var l List
	var shared int
	var created, modified, prioritized int64
	err := row.Scan(&l.ID, &l.Name, &shared, &l.Priority, &created, &modified, &prioritized,
		&l.CreateUserID, &l.ModifyUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}
	l.Shared = shared == 1
	l.Created = time.Unix(created, 0)
	l.Modified = time.Unix(modified, 0)
	l.Prioritized = time.Unix(prioritized, 0)
	return &l, nil
}
