package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
	"crmapi/pkg/logger"
)

// Service provides authentication logic.
type Service struct {
	userRepo   UserRepository
	jwtService *JWTService
}

// NewService creates a new auth service.
func NewService(userRepo UserRepository, jwtService *JWTService) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login authenticates user and returns an access token carrying the
// permissions of the selected organization.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, apperror.NewDatabase(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		logger.Info(ctx, "login failed", "user_id", user.ID)
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	memberships, err := s.userRepo.Memberships(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	active, err := selectMembership(memberships, creds.OrgID)
	if err != nil {
		return nil, err
	}

	orgIDs := make([]string, len(memberships))
	for i, m := range memberships {
		orgIDs[i] = m.OrgID.String()
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user, active, orgIDs)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	token := &Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Permissions: []string{},
	}
	if active != nil {
		token.OrgID = active.OrgID.String()
		token.Permissions = active.Permissions
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "org_id", token.OrgID)
	return token, nil
}

// selectMembership picks the requested organization, or the first one.
// A user without memberships logs in without permissions.
func selectMembership(memberships []Membership, orgID string) (*Membership, error) {
	if orgID == "" {
		if len(memberships) == 0 {
			return nil, nil
		}
		return &memberships[0], nil
	}

	want, err := id.Parse(orgID)
	if err != nil {
		return nil, apperror.NewValidation("invalid organization id").WithDetail("field", "org_id")
	}
	for i := range memberships {
		if memberships[i].OrgID == want {
			return &memberships[i], nil
		}
	}
	return nil, apperror.NewForbidden("not a member of the organization").WithDetail("org_id", orgID)
}
