package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"farmmarket/internal/events"
	"farmmarket/internal/ids"
	"farmmarket/internal/models"
	"farmmarket/internal/repository"
	"farmmarket/internal/security"
)

const minPasswordLength = 6

type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	events EventPublisher
	log    zerolog.Logger

	hashPassword func(string) ([]byte, error)
	dummyOnce    sync.Once
	dummyHash    []byte
}

func NewAuthService(users UserStore, tokens TokenIssuer, events EventPublisher, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		events:       events,
		log:          log,
		hashPassword: security.HashPassword,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	User  models.User
	Token string
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" || strings.TrimSpace(input.Role) == "" {
		return AuthResult{}, fmt.Errorf("%w: name, email, password and role are required", ErrValidation)
	}

	role, err := models.ParseUserRole(input.Role)
	if err != nil || role == models.UserRoleAdmin {
		return AuthResult{}, fmt.Errorf("%w: role must be consumer or farmer", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return AuthResult{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return AuthResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       models.InitialStatus(role),
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return AuthResult{}, ErrConflict
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	publish(ctx, s.events, s.log, events.Event{
		Type:       events.UserRegistered,
		SubjectID:  user.ID,
		ActorID:    user.ID,
		Data:       map[string]any{"role": user.Role, "status": user.Status},
		OccurredAt: time.Now(),
	})

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Str("status", string(user.Status)).Msg("user registered")
	return AuthResult{User: user, Token: token}, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password, and spends comparable time on each path.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnPasswordCheck(password)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return AuthResult{}, ErrInvalidCredentials
	}
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hashPassword("farmmarket-dummy-password")
	})
	if len(s.dummyHash) > 0 {
		_, _ = security.VerifyPassword(password, s.dummyHash)
	}
}

// EnsureAdmin creates the approver account if no user owns the email yet.
// An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.UserRoleAdmin {
			s.log.Warn().Str("email", email).Str("role", string(existing.Role)).Msg("admin email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: admin password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin, err := s.users.Create(ctx, models.User{
		ID:           ids.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.UserRoleAdmin,
		Status:       models.InitialStatus(models.UserRoleAdmin),
	})
	if err != nil && !errors.Is(err, repository.ErrEmailTaken) {
		return fmt.Errorf("create admin: %w", err)
	}
	if err == nil {
		s.log.Info().Str("user_id", admin.ID).Str("email", email).Msg("admin account created")
	}
	return nil
}
