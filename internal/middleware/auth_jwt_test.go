package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/middleware"
	"github.com/rs-labo46/ec-backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "mw-secret"

// =====================
// UserRepository モック
// =====================

type userRepoMock struct{ mock.Mock }

var _ repository.UserRepository = (*userRepoMock)(nil)

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// =====================
// helper
// =====================

type okResponse struct {
	UserID       int64 `json:"user_id"`
	TokenVersion int   `json:"token_version"`
}

type errResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func makeJWT(t *testing.T, key string, sub any, tv int, exp time.Time, method jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "tv": tv, "exp": exp.Unix()}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func newEcho(users repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, okResponse{
			UserID:       c.Get(middleware.CtxUserIDKey).(int64),
			TokenVersion: c.Get(middleware.CtxTokenVersionKey).(int),
		})
	}, middleware.RequireAuth(secret, users)...)
	return e
}

func call(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// tests
// =====================

func TestRequireAuth_OK(t *testing.T) {
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, TokenVersion: 2}, nil)

	token := makeJWT(t, secret, 5, 2, time.Now().Add(time.Hour), jwt.SigningMethodHS256)
	rec := call(newEcho(users), "Bearer "+token)

	require.Equal(t, http.StatusOK, rec.Code)
	var out okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(5), out.UserID)
	assert.Equal(t, 2, out.TokenVersion)
}

func TestRequireAuth_Rejects(t *testing.T) {
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, TokenVersion: 2}, nil)
	e := newEcho(users)

	cases := []struct {
		name  string
		authz string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + makeJWT(t, "other", 5, 2, time.Now().Add(time.Hour), jwt.SigningMethodHS256)},
		{"expired", "Bearer " + makeJWT(t, secret, 5, 2, time.Now().Add(-time.Hour), jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + makeJWT(t, secret, 5, 2, time.Now().Add(time.Hour), jwt.SigningMethodHS512)},
		{"bad sub", "Bearer " + makeJWT(t, secret, "abc", 2, time.Now().Add(time.Hour), jwt.SigningMethodHS256)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(e, tc.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var out errResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, "unauthorized", out.Code)
		})
	}
}

func TestRequireAuth_RevokedTokenVersion(t *testing.T) {
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, TokenVersion: 3}, nil)

	token := makeJWT(t, secret, 5, 2, time.Now().Add(time.Hour), jwt.SigningMethodHS256)
	rec := call(newEcho(users), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var out errResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "token revoked", out.Message)
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(9)).Return(nil, repository.ErrNotFound)

	token := makeJWT(t, secret, 9, 0, time.Now().Add(time.Hour), jwt.SigningMethodHS256)
	rec := call(newEcho(users), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
