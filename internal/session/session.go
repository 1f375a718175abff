// Package session holds the signed-in user decoded from the persisted
// access token.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/storage"
)

// ErrInvalidCredential is returned when a token cannot be decoded into a
// complete, unexpired user.
var ErrInvalidCredential = errors.New("invalid credential")

// User is the identity carried by the access token.
type User struct {
	ID        string `json:"sub" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

type claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// KV is the persisted credential storage.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Exchanger trades an identity-provider token for a backend access token.
type Exchanger interface {
	ExchangeGoogleToken(ctx context.Context, idToken string) (livra.AuthResponse, error)
}

// Store is the process-wide session. The zero value is not usable; call New.
type Store struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
	parser *jwt.Parser
	valid  *validator.Validate

	mu    sync.RWMutex
	token string
	user  *User
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for restore warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a signed-out store backed by kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		parser: jwt.NewParser(),
		valid:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted token. A token that no longer decodes is
// dropped and the store stays signed out; only storage failures are
// returned.
func (s *Store) Restore() error {
	raw, ok, err := s.kv.Get(storage.KeyToken)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		s.set("", nil)
		return nil
	}

	user, err := s.Decode(raw)
	if err != nil {
		s.logger.Warn("discarding stored credential", slog.String("error", err.Error()))
		s.set("", nil)
		if rmErr := s.kv.Remove(storage.KeyToken); rmErr != nil {
			return fmt.Errorf("remove credential: %w", rmErr)
		}
		return nil
	}
	s.set(raw, &user)
	return nil
}

// Login exchanges idToken, persists the access token and signs the user in.
func (s *Store) Login(ctx context.Context, ex Exchanger, idToken string) (User, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return User{}, errors.New("identity token is empty")
	}
	resp, err := ex.ExchangeGoogleToken(ctx, idToken)
	if err != nil {
		return User{}, err
	}
	user, err := s.Decode(resp.AccessToken)
	if err != nil {
		return User{}, err
	}
	if err := s.kv.Set(storage.KeyToken, resp.AccessToken); err != nil {
		return User{}, fmt.Errorf("persist credential: %w", err)
	}
	s.set(resp.AccessToken, &user)
	return user, nil
}

// Logout forgets the token, in memory and on disk.
func (s *Store) Logout() error {
	s.set("", nil)
	if err := s.kv.Remove(storage.KeyToken); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

// User returns the signed-in user.
func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Decode reads the user from token without verifying its signature; the
// backend verifies it on every authenticated request.
func (s *Store) Decode(token string) (User, error) {
	var c claims
	if _, _, err := s.parser.ParseUnverified(token, &c); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if c.ExpiresAt != nil && !s.now().Before(c.ExpiresAt.Time) {
		return User{}, fmt.Errorf("%w: token expired at %s", ErrInvalidCredential, c.ExpiresAt.Time.Format(time.RFC3339))
	}
	user := User{
		ID:        c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		Bio:       c.Bio,
		AvatarURL: c.AvatarURL,
	}
	if err := s.valid.Struct(user); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return user, nil
}

func (s *Store) set(token string, user *User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
}
