package service

import (
	"context"
	"testing"
	"time"

	"comedybar/internal/config"
	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsuarioRepo struct{ st *memStore }

func (r *fakeUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, other := range r.st.users {
		if other.Username == u.Username {
			return repository.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	r.st.users[u.ID] = &c
	return nil
}

func (r *fakeUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.st.users {
		if u.Username == username && u.Active {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	out := make([]model.Usuario, 0, len(r.st.users))
	for _, u := range r.st.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUsuarioRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = active
	return nil
}

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newAuth(t *testing.T) (AuthService, *fakeUsuarioRepo) {
	t.Helper()
	repo := &fakeUsuarioRepo{st: newMemStore()}
	cfg := &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8, JWTRefreshHours: 24}
	return NewAuthService(repo, cfg), repo
}

func seedUser(t *testing.T, repo *fakeUsuarioRepo, username, password, role string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{Username: username, Name: "Teste", PasswordHash: string(hash), Role: role, Active: true}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLogin_Success(t *testing.T) {
	svc, repo := newAuth(t)
	u := seedUser(t, repo, "dani", "segredo123", model.RoleBartender)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "dani", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, model.RoleBartender, resp.User.Role)

	tok, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID.String(), claims["user_id"])
	assert.Equal(t, model.RoleBartender, claims["role"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, repo := newAuth(t)
	u := seedUser(t, repo, "dani", "segredo123", model.RoleBartender)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "dani", Password: "errada"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "ninguem", Password: "segredo123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.SetUserActive(context.Background(), u.ID, false))
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "dani", Password: "segredo123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	svc, repo := newAuth(t)
	u := seedUser(t, repo, "gerente", "segredo123", model.RoleManager)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "gerente", Password: "segredo123"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.SetUserActive(context.Background(), u.ID, false))
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	svc, _ := newAuth(t)
	req := dto.CreateUsuarioRequest{Username: "leo", Name: "Leo", Password: "segredo123", Role: model.RoleBartender}

	resp, err := svc.CreateUser(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Active)

	_, err = svc.CreateUser(context.Background(), req)
	assert.ErrorIs(t, err, repository.ErrConflict)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	err = svc.SetUserActive(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
