package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/shopsmoke/internal/user/auth"
	"github.com/utafrali/shopsmoke/internal/user/domain"
	"github.com/utafrali/shopsmoke/internal/user/event"
	"github.com/utafrali/shopsmoke/internal/user/service"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/health"
	pkgkafka "github.com/utafrali/shopsmoke/pkg/kafka"
	"github.com/utafrali/shopsmoke/pkg/middleware"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestRouter(repo *mockUserRepo) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	producer := event.NewProducer(pkgkafka.NoopPublisher{}, logger)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.NewUserService(repo, producer, tokens, logger)
	healthHandler := health.NewHandler("user")
	return NewRouter(svc, healthHandler, logger, middleware.DefaultCORSConfig())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateUser_Success(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Data.Username)
	assert.NotEmpty(t, resp.Data.ID)
}

func TestCreateUser_ValidationFailure(t *testing.T) {
	router := newTestRouter(new(mockUserRepo))

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "username", "alice"))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_EXISTS")
}

func TestGetUser_NotFound(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodGet, "/users/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestListUsers_ReturnsPage(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("List", mock.Anything, mock.Anything).
		Return([]domain.User{{ID: "u-1", Username: "alice"}}, 1, nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)
}

func TestUpdateUser_Success(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "u-1").
		Return(&domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@example.com"
	})).Return(nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPut, "/users/u-1", map[string]string{
		"email": "new@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteUser_Success(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("Delete", mock.Anything, "u-1").Return(nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodDelete, "/users/u-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user deleted")
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}, nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"u-1"`)

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}, nil)
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestLogin_RejectsUsernameOnlyBody(t *testing.T) {
	router := newTestRouter(new(mockUserRepo))

	rec := doJSON(t, router, http.MethodPost, "/login", map[string]string{
		"username": "alice",
		"password": "secret1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(new(mockUserRepo))

	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
