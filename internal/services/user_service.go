package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/database"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	ResolveIdentity(ctx context.Context, id string) (models.Identity, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db           *sql.DB
	eventService EventServiceProvider
	bcryptCost   int
	now          func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, eventService EventServiceProvider, bcryptCost int) *UserService {
	return &UserService{
		db:           db,
		eventService: eventService,
		bcryptCost:   bcryptCost,
		now:          time.Now,
	}
}

// GetUserByID retrieves a single user by their ID. The password hash is not loaded.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	var createdAt, updatedAt int64
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user with ID %s", common.ErrNotFound, id)
		}
		return models.User{}, err
	}
	user.CreatedAt = database.FromMillis(createdAt)
	user.UpdatedAt = database.FromMillis(updatedAt)
	return user, nil
}

// ResolveIdentity returns the public identity of a user.
func (s *UserService) ResolveIdentity(ctx context.Context, id string) (models.Identity, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

// getUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	var createdAt, updatedAt int64
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user with email %s", common.ErrNotFound, email)
		}
		return models.User{}, err
	}
	user.CreatedAt = database.FromMillis(createdAt)
	user.UpdatedAt = database.FromMillis(updatedAt)
	return user, nil
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", common.ErrValidation)
	}

	_, err := s.getUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, common.ErrDuplicateUser
	case !errors.Is(err, common.ErrNotFound):
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, name, email, password_hash, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, database.ToMillis(now), database.ToMillis(now),
	)
	if err != nil {
		// Lost a race against a concurrent registration with the same email.
		if isUniqueViolation(err) {
			return models.User{}, common.ErrDuplicateUser
		}
		return models.User{}, err
	}

	if err := s.eventService.CreateEvent(ctx, user.ID, EventUserRegister, fmt.Sprintf("Account '%s' registered.", user.Name), nil); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to record registration event")
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. An unknown email and a wrong
// password produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.User{}, common.ErrInvalidCredentials
		}
		return models.User{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return models.User{}, common.ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}
