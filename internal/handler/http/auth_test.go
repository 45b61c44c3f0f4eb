package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Epi-Shop/epi-shop/internal/auth"
	"github.com/Epi-Shop/epi-shop/internal/domain"
	"github.com/Epi-Shop/epi-shop/internal/service"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
	"github.com/Epi-Shop/epi-shop/pkg/middleware"
)

// =============================================================================
// Mocks
// =============================================================================

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

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

// =============================================================================
// Test helpers
// =============================================================================

const testUserEmail = "worker@example.com"

func authTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-at-least-32-characters", 15*time.Minute, 720*time.Hour)
}

func authTestHandler(users *mockUserRepo, tokens *mockRefreshTokenRepo) *AuthHandler {
	svc := service.NewIdentityService(users, tokens, authTestJWTManager(), testEventProducer(), testLogger())
	return NewAuthHandler(svc, testLogger())
}

func authRouter(handler *AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)
		r.Post("/logout", handler.Logout)
		r.Get("/me", handler.Me)
		r.Post("/password", handler.ChangePassword)
	})
	return r
}

func activeTestUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &domain.User{
		ID:           testUserID,
		Email:        testUserEmail,
		PasswordHash: string(hash),
		FirstName:    "Ana",
		LastName:     "Souza",
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func postJSON(target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// =============================================================================
// POST /api/v1/auth/register - Register
// =============================================================================

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	tokens.On("Create", mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	req := postJSON("/api/v1/auth/register", RegisterRequest{
		Email:     testUserEmail,
		Password:  "Str0ngPass",
		FirstName: "Ana",
		LastName:  "Souza",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, data["user"])

	pair, ok := data["tokens"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, pair["access_token"])
	assert.NotEmpty(t, pair["refresh_token"])
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	req := postJSON("/api/v1/auth/register", RegisterRequest{
		Email:     "not-an-email",
		Password:  "Str0ngPass",
		FirstName: "Ana",
		LastName:  "Souza",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "email")
	users.AssertNotCalled(t, "Create")
}

func TestRegister_WeakPassword(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	// Long enough for the DTO validator but fails the complexity rule.
	req := postJSON("/api/v1/auth/register", RegisterRequest{
		Email:     testUserEmail,
		Password:  "alllowercase",
		FirstName: "Ana",
		LastName:  "Souza",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "Create")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", testUserEmail))

	req := postJSON("/api/v1/auth/register", RegisterRequest{
		Email:     testUserEmail,
		Password:  "Str0ngPass",
		FirstName: "Ana",
		LastName:  "Souza",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// POST /api/v1/auth/login - Login
// =============================================================================

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByEmail", mock.Anything, testUserEmail).
		Return(activeTestUser(t, "Str0ngPass"), nil)
	tokens.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := postJSON("/api/v1/auth/login", LoginRequest{
		Email:    testUserEmail,
		Password: "Str0ngPass",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, data["tokens"])
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByEmail", mock.Anything, testUserEmail).
		Return(activeTestUser(t, "Str0ngPass"), nil)

	req := postJSON("/api/v1/auth/login", LoginRequest{
		Email:    testUserEmail,
		Password: "WrongPass1",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	tokens.AssertNotCalled(t, "Create")
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.ErrNotFound)

	req := postJSON("/api/v1/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "Str0ngPass",
	})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// POST /api/v1/auth/refresh - Refresh
// =============================================================================

func TestRefresh_RotatesTokens(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	jwtManager := authTestJWTManager()
	svc := service.NewIdentityService(users, tokens, jwtManager, testEventProducer(), testLogger())
	router := authRouter(NewAuthHandler(svc, testLogger()))

	refreshToken, err := jwtManager.GenerateRefreshToken(testUserID)
	require.NoError(t, err)
	tokenHash := auth.HashToken(refreshToken)

	stored := &domain.RefreshToken{
		ID:        "550e8400-e29b-41d4-a716-446655440030",
		UserID:    testUserID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	tokens.On("GetByHash", mock.Anything, tokenHash).Return(stored, nil)
	tokens.On("Revoke", mock.Anything, tokenHash).Return(nil)
	users.On("GetByID", mock.Anything, testUserID).
		Return(activeTestUser(t, "Str0ngPass"), nil)
	tokens.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := postJSON("/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: refreshToken})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	pair, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, pair["access_token"])
	assert.NotEqual(t, refreshToken, pair["refresh_token"])
	tokens.AssertExpectations(t)
}

func TestRefresh_RevokedToken(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	jwtManager := authTestJWTManager()
	svc := service.NewIdentityService(users, tokens, jwtManager, testEventProducer(), testLogger())
	router := authRouter(NewAuthHandler(svc, testLogger()))

	refreshToken, err := jwtManager.GenerateRefreshToken(testUserID)
	require.NoError(t, err)
	tokenHash := auth.HashToken(refreshToken)

	revokedAt := time.Now().UTC().Add(-time.Minute)
	stored := &domain.RefreshToken{
		ID:        "550e8400-e29b-41d4-a716-446655440030",
		UserID:    testUserID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		RevokedAt: &revokedAt,
		CreatedAt: time.Now().UTC(),
	}
	tokens.On("GetByHash", mock.Anything, tokenHash).Return(stored, nil)

	req := postJSON("/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: refreshToken})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "GetByID")
}

func TestRefresh_GarbageToken(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	req := postJSON("/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	tokens.AssertNotCalled(t, "GetByHash")
}

// =============================================================================
// POST /api/v1/auth/logout - Logout
// =============================================================================

func TestLogout_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	jwtManager := authTestJWTManager()
	svc := service.NewIdentityService(users, tokens, jwtManager, testEventProducer(), testLogger())
	router := authRouter(NewAuthHandler(svc, testLogger()))

	refreshToken, err := jwtManager.GenerateRefreshToken(testUserID)
	require.NoError(t, err)

	tokens.On("Revoke", mock.Anything, auth.HashToken(refreshToken)).Return(nil)

	req := postJSON("/api/v1/auth/logout", RefreshTokenRequest{RefreshToken: refreshToken})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	tokens.AssertExpectations(t)
}

func TestLogout_UnknownTokenStillSucceeds(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	tokens.On("Revoke", mock.Anything, mock.Anything).Return(apperrors.ErrNotFound)

	req := postJSON("/api/v1/auth/logout", RefreshTokenRequest{RefreshToken: "some-unknown-token"})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// GET /api/v1/auth/me - Me
// =============================================================================

func TestMe_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByID", mock.Anything, testUserID).
		Return(activeTestUser(t, "Str0ngPass"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), testUserID, domain.RoleCustomer))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	user, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testUserEmail, user["email"])
	// The password hash must never appear in responses.
	assert.NotContains(t, rec.Body.String(), "password")
}

// =============================================================================
// POST /api/v1/auth/password - ChangePassword
// =============================================================================

func TestChangePassword_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByID", mock.Anything, testUserID).
		Return(activeTestUser(t, "Str0ngPass"), nil)
	users.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	req := postJSON("/api/v1/auth/password", ChangePasswordRequest{
		CurrentPassword: "Str0ngPass",
		NewPassword:     "N3wStrongPass",
	})
	req = req.WithContext(middleware.WithUser(req.Context(), testUserID, domain.RoleCustomer))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := authRouter(authTestHandler(users, tokens))

	users.On("GetByID", mock.Anything, testUserID).
		Return(activeTestUser(t, "Str0ngPass"), nil)

	req := postJSON("/api/v1/auth/password", ChangePasswordRequest{
		CurrentPassword: "WrongPass1",
		NewPassword:     "N3wStrongPass",
	})
	req = req.WithContext(middleware.WithUser(req.Context(), testUserID, domain.RoleCustomer))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "Update")
}
