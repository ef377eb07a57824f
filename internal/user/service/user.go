package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/shopsmoke/internal/user/auth"
	"github.com/utafrali/shopsmoke/internal/user/domain"
	"github.com/utafrali/shopsmoke/internal/user/event"
	"github.com/utafrali/shopsmoke/internal/user/repository"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// UserService implements the business logic for user operations.
type UserService struct {
	repo     repository.UserRepository
	producer *event.Producer
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, producer *event.Producer, tokens *auth.TokenManager, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		producer: producer,
		tokens:   tokens,
		logger:   logger,
	}
}

// CreateInput holds the parameters for creating a new user.
type CreateInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput holds the parameters for updating a user. Nil fields are left
// unchanged.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	if len(input.Username) < minUsernameLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishUserCreated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// GetByID retrieves a user by their ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, params), nil
}

// Update modifies a user's fields. A new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Username != nil {
		if len(*input.Username) < minUsernameLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("username must be at least %d characters", minUsernameLength))
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Delete removes a user by their ID.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.producer.PublishUserDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
	)

	return nil
}

// Login authenticates a user by email and password and issues a signed
// token. Unknown emails and wrong passwords both return the same
// unauthorized error.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate login token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{User: user, Token: token}, nil
}
