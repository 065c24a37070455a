package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is an account that can hold a bearer token.
type User struct {
	ID           int64
	Username     string
	Name         string
	Admin        bool
	Disabled     bool
	Token        string
	Created      time.Time
	Modified     time.Time
	CreateUserID int64
	ModifyUserID int64
}

// NewUser carries the fields accepted when creating a user.
type NewUser struct {
	Username string
	Name     string
	Admin    bool
}

// UserPatch carries the fields accepted when updating a user. Nil fields are
// left unchanged.
type UserPatch struct {
	Username     *string
	Name         *string
	Admin        *bool
	Disabled     *bool
	RefreshToken bool
}

// TokenSigner produces a signed bearer token for the given claims. The store
// never sees the signing secret.
type TokenSigner func(username, name string, admin bool) (string, error)

const userColumns = `id, username, name, admin, disabled, token, created, modified,
	COALESCE(create_user_id, 0), COALESCE(modify_user_id, 0)`

// CountUsers returns the number of user rows. Zero means the service is in
// setup mode.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM todo_users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM todo_users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return getUser(ctx, s.db, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return getUser(ctx, s.db, "username = ?", username)
}

// FindUserByToken returns the enabled user whose stored token is exactly raw.
// A token that was superseded by a newer one no longer matches.
func (s *Store) FindUserByToken(ctx context.Context, raw string) (*User, error) {
	if raw == "" {
		return nil, ErrNotFound
	}
	return getUser(ctx, s.db, "token = ? AND disabled = 0", raw)
}

// CreateUser inserts a user and issues its first token. While no user exists
// the new user is always made an admin.
func (s *Store) CreateUser(ctx context.Context, actorID int64, in NewUser, sign TokenSigner) (*User, error) {
	return s.createUser(ctx, actorID, in, sign, false)
}

// CreateFirstUser creates the initial admin. The user count is checked in the
// same transaction as the insert, so once any user exists it returns
// ErrForbidden even if the caller saw an empty table a moment earlier.
func (s *Store) CreateFirstUser(ctx context.Context, in NewUser, sign TokenSigner) (*User, error) {
	return s.createUser(ctx, 0, in, sign, true)
}

func (s *Store) createUser(ctx context.Context, actorID int64, in NewUser, sign TokenSigner, firstOnly bool) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalid)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM todo_users").Scan(&count); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if count > 0 && firstOnly {
			return ErrForbidden
		}
		if count == 0 {
			in.Admin = true
		}

		token, err := sign(in.Username, in.Name, in.Admin)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		now := s.now().Unix()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO todo_users (username, name, admin, disabled, token, created, modified, create_user_id, modify_user_id)
			 VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)`,
			in.Username, in.Name, boolToInt(in.Admin), token, now, now, nullableID(actorID), nullableID(actorID),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("username %q: %w", in.Username, ErrDuplicate)
			}
			return fmt.Errorf("failed to create user: %w", err)
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

	return s.GetUser(ctx, id)
}

// UpdateUser applies patch to user id on behalf of actor. Only admins may
// update users, and nobody may change their own admin or disabled flag.
// RefreshToken replaces the stored token, revoking the previous one.
func (s *Store) UpdateUser(ctx context.Context, actor *User, id int64, patch UserPatch, sign TokenSigner) (*User, error) {
	if actor == nil || !actor.Admin {
		return nil, ErrForbidden
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}

		if actor.ID == u.ID {
			if patch.Admin != nil && *patch.Admin != u.Admin {
				return ErrSelfModification
			}
			if patch.Disabled != nil && *patch.Disabled != u.Disabled {
				return ErrSelfModification
			}
		}

		claimsChanged := false
		if patch.Username != nil {
			name := strings.TrimSpace(*patch.Username)
			if name == "" {
				return fmt.Errorf("username is required: %w", ErrInvalid)
			}
			claimsChanged = claimsChanged || name != u.Username
			u.Username = name
		}
		if patch.Name != nil {
			claimsChanged = claimsChanged || *patch.Name != u.Name
			u.Name = *patch.Name
		}
		if patch.Admin != nil {
			claimsChanged = claimsChanged || *patch.Admin != u.Admin
			u.Admin = *patch.Admin
		}
		if patch.Disabled != nil {
			u.Disabled = *patch.Disabled
		}

		// A token embeds username, name and admin; it is reissued when
		// asked to or when those claims would otherwise go stale.
		if patch.RefreshToken || claimsChanged {
			token, err := signFresh(sign, u)
			if err != nil {
				return err
			}
			u.Token = token
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE todo_users SET username = ?, name = ?, admin = ?, disabled = ?, token = ?,
			 modified = ?, modify_user_id = ? WHERE id = ?`,
			u.Username, u.Name, boolToInt(u.Admin), boolToInt(u.Disabled), u.Token,
			s.now().Unix(), nullableID(actor.ID), u.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("username %q: %w", u.Username, ErrDuplicate)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, id)
}

// DeleteUser removes user id. Lists and items created by that user are
// removed with it.
func (s *Store) DeleteUser(ctx context.Context, actor *User, id int64) error {
	if actor == nil || !actor.Admin {
		return ErrForbidden
	}
	if actor.ID == id {
		return ErrSelfModification
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM todo_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// signFresh signs a token for u that differs from the one it holds. Two
// signers sharing a secret can produce identical tokens within the same
// second; signing twice relies on the signer never repeating itself.
func signFresh(sign TokenSigner, u *User) (string, error) {
	for range 2 {
		token, err := sign(u.Username, u.Name, u.Admin)
		if err != nil {
			return "", fmt.Errorf("failed to sign token: %w", err)
		}
		if token != u.Token {
			return token, nil
		}
	}
	return "", fmt.Errorf("failed to sign token: signer repeated the current token")
}

// IssueToken signs a new token for the user and overwrites the stored one.
// Any previously issued token stops authenticating immediately.
func (s *Store) IssueToken(ctx context.Context, userID int64, sign TokenSigner) (string, error) {
	var token string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, "id = ?", userID)
		if err != nil {
			return err
		}
		token, err = signFresh(sign, u)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE todo_users SET token = ?, modified = ? WHERE id = ?",
			token, s.now().Unix(), userID,
		)
		if err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func getUser(ctx context.Context, q execer, where string, arg any) (*User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM todo_users WHERE "+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row scanner) (*User, error) {
	var u User
	var admin, disabled int
	var created, modified int64
	err := row.Scan(&u.ID, &u.Username, &u.Name, &admin, &disabled, &u.Token,
		&created, &modified, &u.CreateUserID, &u.ModifyUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Admin = admin == 1
	u.Disabled = disabled == 1
	u.Created = time.Unix(created, 0)
	u.Modified = time.Unix(modified, 0)
	return &u, nil
}
