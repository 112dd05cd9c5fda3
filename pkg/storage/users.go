package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfd/shelfd/pkg/auth"
)

// UserStore persists user accounts. It implements auth.UserSource and
// auth.TokenSink.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over db.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, image_url, bio, phone,
	is_admin, is_public, is_active, is_expired, federated,
	current_token, token_expires_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	var tokenExpiresAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ImageURL, &u.Bio, &u.Phone,
		&u.IsAdmin, &u.IsPublic, &u.IsActive, &u.IsExpired, &u.Federated,
		&u.CurrentToken, &tokenExpiresAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tokenExpiresAt.Valid {
		u.TokenExpiresAt = &tokenExpiresAt.Time
	}
	return &u, nil
}

// Create inserts a new user and fills in its ID and creation time.
// Returns ErrDuplicateEmail when the email is already registered.
func (s *UserStore) Create(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, image_url, bio, phone,
			is_admin, is_public, is_active, federated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.ImageURL, user.Bio, user.Phone,
		user.IsAdmin, user.IsPublic, true, user.Federated,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

// FindByEmail looks a user up by email. Returns (nil, nil) when no such
// user exists, which is what the token verifier expects.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID looks a user up by ID. Returns ErrNotFound when no such user
// exists.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return user, nil
}

// List returns all users, or only publicly visible ones when
// visibleOnly is set.
func (s *UserStore) List(ctx context.Context, visibleOnly bool) ([]*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC`, userColumns)
	if visibleOnly {
		query = fmt.Sprintf(`SELECT %s FROM users WHERE is_public = TRUE ORDER BY created_at DESC`, userColumns)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ProfilePatch is a partial user update; zero-valued fields are left
// unchanged.
type ProfilePatch struct {
	Name         string
	Email        string
	PasswordHash string
	ImageURL     string
	Bio          string
	Phone        int64
	IsPublic     *bool
}

// UpdateProfile applies the non-zero fields of patch to the given user.
// Returns ErrNotFound if the user does not exist and ErrDuplicateEmail
// if the patched email is already taken.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) error {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != "" {
		add("name", patch.Name)
	}
	if patch.Email != "" {
		add("email", patch.Email)
	}
	if patch.PasswordHash != "" {
		add("password_hash", patch.PasswordHash)
	}
	if patch.ImageURL != "" {
		add("image_url", patch.ImageURL)
	}
	if patch.Bio != "" {
		add("bio", patch.Bio)
	}
	if patch.Phone != 0 {
		add("phone", patch.Phone)
	}
	if patch.IsPublic != nil {
		add("is_public", *patch.IsPublic)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(result)
}

// SetActive flips a user's active flag. Returns ErrNotFound if the user
// does not exist.
func (s *UserStore) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	return requireRow(result)
}

// SetCurrentToken records token as the user's single active token. Any
// previously stored token is overwritten, which revokes it.
func (s *UserStore) SetCurrentToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_token = $1, token_expires_at = $2, is_expired = FALSE WHERE id = $3`,
		token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to set current token: %w", err)
	}
	return requireRow(result)
}

// ClearCurrentToken drops the user's active token and marks the session
// expired. Used by logout.
func (s *UserStore) ClearCurrentToken(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_token = '', token_expires_at = NULL, is_expired = TRUE WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("failed to clear current token: %w", err)
	}
	return requireRow(result)
}

// ClearExpiredTokens drops stored tokens whose expiry has passed and
// returns how many were cleared. Run periodically by the sweeper.
func (s *UserStore) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_token = '', token_expires_at = NULL, is_expired = TRUE
		 WHERE current_token != '' AND token_expires_at IS NOT NULL AND token_expires_at < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired tokens: %w", err)
	}

	cleared, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared tokens: %w", err)
	}
	return cleared, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
