package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/observability"
	"github.com/tamojuntogames/accounts-api/internal/repository"
	"github.com/tamojuntogames/accounts-api/internal/security"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases must stay indistinguishable to the caller so a login
	// probe cannot enumerate registered addresses.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ThrottledError reports an active abuse-guard cooldown on the login path.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type AuthService struct {
	userRepo repository.UserRepository
	jwtMgr   *security.JWTManager
	guard    AuthAbuseGuard
}

func NewAuthService(userRepo repository.UserRepository, jwtMgr *security.JWTManager, guard AuthAbuseGuard) *AuthService {
	if guard == nil {
		guard = NewNoopAuthAbuseGuard()
	}
	return &AuthService{userRepo: userRepo, jwtMgr: jwtMgr, guard: guard}
}

// Login validates credentials and mints an access token. The flow is
// stateless across attempts: input check, lookup by exact email, password
// verification, token issuance. Lookup misses and hash mismatches produce
// the same error. The password is compared byte for byte against what was
// registered; only the emptiness check ignores surrounding whitespace.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingCredentials
	}

	if cooldown, err := s.guard.Check(ctx, email, ip); err == nil && cooldown > 0 {
		observability.RecordAuthAbuseGuardEvent(ctx, "check", "throttled")
		return nil, &ThrottledError{RetryAfter: cooldown}
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.registerFailure(ctx, email, ip)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !security.VerifyPassword(user.PasswordHash, password) {
		s.registerFailure(ctx, email, ip)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtMgr.Sign(user, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	_ = s.guard.Reset(ctx, email, ip)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, email, ip string) {
	cooldown, err := s.guard.RegisterFailure(ctx, email, ip)
	if err != nil {
		return
	}
	observability.RecordAuthAbuseGuardEvent(ctx, "register_failure", "recorded")
	if cooldown > 0 {
		observability.RecordAuthAbuseCooldown(ctx, "register_failure", cooldown)
	}
}
