package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PrivilegeGate reports whether an admin session is currently active.
type PrivilegeGate interface {
	Elevated() bool
}

type AuthService interface {
	// Login checks the admin password and opens an admin session until expiresAt.
	Login(ctx context.Context, password string, expiresAt time.Time) error
	Logout(ctx context.Context)
}

type authService struct {
	passwordHash []byte
	session      *AdminSession
}

func NewAuthService(passwordHash string, session *AdminSession) AuthService {
	return &authService{
		passwordHash: []byte(passwordHash),
		session:      session,
	}
}

func (s *authService) Login(ctx context.Context, password string, expiresAt time.Time) error {
	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrAuthInvalidCredentials
		}
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
	s.session.Grant(expiresAt)
	return nil
}

func (s *authService) Logout(ctx context.Context) {
	s.session.Revoke()
}

// HashPassword is used when the admin password comes from config in plain text.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// AdminSession is the server-side admin mode flag. It stays elevated until
// the latest granted expiry or an explicit revoke.
type AdminSession struct {
	mu    sync.RWMutex
	until time.Time
	now   func() time.Time
}

func NewAdminSession(now func() time.Time) *AdminSession {
	if now == nil {
		now = time.Now
	}
	return &AdminSession{now: now}
}

func (s *AdminSession) Grant(until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.until) {
		s.until = until
	}
}

func (s *AdminSession) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.until = time.Time{}
}

func (s *AdminSession) Elevated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Before(s.until)
}
