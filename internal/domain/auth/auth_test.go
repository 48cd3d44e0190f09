package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
)

type fakeUsers struct {
	user        *User
	memberships []Membership
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	if f.user == nil || !strings.EqualFold(f.user.Email, email) {
		return nil, apperror.NewNotFound("user", email)
	}
	return f.user, nil
}

func (f *fakeUsers) Memberships(context.Context, id.ID) ([]Membership, error) {
	return f.memberships, nil
}

func newTestUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{ID: id.New(), Name: "Ada", Email: "ada@example.com", PasswordHash: string(hash), Status: StatusActive}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := &User{ID: id.New(), Email: "ada@example.com", Name: "Ada"}
	m := &Membership{OrgID: id.New(), RoleName: "sales", Permissions: []string{"contacts:read:own"}}

	token, expiresAt, err := svc.GenerateAccessToken(user, m, []string{m.OrgID.String()})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, m.OrgID.String(), uc.OrgID)
	assert.Equal(t, []string{"contacts:read:own"}, uc.Permissions)
	assert.Equal(t, []string{"sales"}, uc.Roles)
	assert.False(t, uc.IsAdmin)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := &User{ID: id.New(), Email: "ada@example.com"}
	token, _, err := svc.GenerateAccessToken(user, &Membership{Permissions: []string{"*"}}, nil)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestJWTService_Wildcard(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	token, _, err := svc.GenerateAccessToken(&User{ID: id.New()}, &Membership{Permissions: []string{"*"}}, nil)
	require.NoError(t, err)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
}

func TestService_Login(t *testing.T) {
	user := newTestUser(t, "s3cret-pass")
	first := Membership{OrgID: id.New(), RoleName: "admin", Permissions: []string{"*"}}
	second := Membership{OrgID: id.New(), RoleName: "sales", Permissions: []string{"contacts:read"}}
	repo := &fakeUsers{user: user, memberships: []Membership{first, second}}
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("secret")))
	ctx := context.Background()

	token, err := svc.Login(ctx, Credentials{Email: "ADA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, first.OrgID.String(), token.OrgID)
	assert.Equal(t, []string{"*"}, token.Permissions)

	token, err = svc.Login(ctx, Credentials{Email: user.Email, Password: "s3cret-pass", OrgID: second.OrgID.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts:read"}, token.Permissions)
}

func TestService_LoginFailures(t *testing.T) {
	user := newTestUser(t, "s3cret-pass")
	repo := &fakeUsers{user: user}
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("secret")))
	ctx := context.Background()

	_, err := svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, Credentials{Email: user.Email})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Login(ctx, Credentials{Email: user.Email, Password: "s3cret-pass", OrgID: id.New().String()})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	user.Status = "suspended"
	_, err = svc.Login(ctx, Credentials{Email: user.Email, Password: "s3cret-pass"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}
