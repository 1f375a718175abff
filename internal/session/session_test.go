package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/storage"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, c claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func validClaims() claims {
	return claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		Email:     "ada@example.com",
		Name:      "Ada",
		Bio:       "notes",
		AvatarURL: "https://example.com/a.png",
	}
}

func newStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.toml"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	return New(kv, WithClock(func() time.Time { return testNow })), kv
}

type fakeExchanger struct {
	got  string
	resp livra.AuthResponse
	err  error
}

func (f *fakeExchanger) ExchangeGoogleToken(_ context.Context, idToken string) (livra.AuthResponse, error) {
	f.got = idToken
	return f.resp, f.err
}

func TestRestore_NoCredential(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if s.SignedIn() || s.Token() != "" {
		t.Fatalf("signed in without a credential")
	}
}

func TestRestore_ValidCredential(t *testing.T) {
	s, kv := newStore(t)
	tok := signToken(t, validClaims())
	if err := kv.Set(storage.KeyToken, tok); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.Restore(); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	u, ok := s.User()
	if !ok {
		t.Fatalf("not signed in after Restore")
	}
	if u.ID != "u1" || u.Email != "ada@example.com" || u.Name != "Ada" || u.Bio != "notes" || u.AvatarURL != "https://example.com/a.png" {
		t.Fatalf("user = %#v", u)
	}
	if s.Token() != tok {
		t.Fatalf("Token() = %q, want stored token", s.Token())
	}
}

func TestRestore_DiscardsBadCredential(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Minute))
	noName := validClaims()
	noName.Name = ""
	badAvatar := validClaims()
	badAvatar.AvatarURL = "not a url"

	cases := map[string]string{
		"garbage":    "not-a-jwt",
		"expired":    signToken(t, expired),
		"no name":    signToken(t, noName),
		"bad avatar": signToken(t, badAvatar),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv := newStore(t)
			if err := kv.Set(storage.KeyToken, tok); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Restore(); err != nil {
				t.Fatalf("Restore returned error: %v", err)
			}
			if s.SignedIn() {
				t.Fatalf("signed in with a bad credential")
			}
			if _, ok, _ := kv.Get(storage.KeyToken); ok {
				t.Fatalf("bad credential was not removed")
			}
		})
	}
}

func TestDecode_WrapsInvalidCredential(t *testing.T) {
	s, _ := newStore(t)
	if _, err := s.Decode("a.b.c"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("Decode error = %v, want ErrInvalidCredential", err)
	}
}

func TestLoginAndLogout(t *testing.T) {
	s, kv := newStore(t)
	tok := signToken(t, validClaims())
	ex := &fakeExchanger{resp: livra.AuthResponse{AccessToken: tok}}

	u, err := s.Login(context.Background(), ex, " google-id ")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if ex.got != "google-id" {
		t.Fatalf("exchanged %q, want trimmed id token", ex.got)
	}
	if u.Name != "Ada" || !s.SignedIn() {
		t.Fatalf("user = %#v signedIn=%v", u, s.SignedIn())
	}
	if v, ok, _ := kv.Get(storage.KeyToken); !ok || v != tok {
		t.Fatalf("credential not persisted")
	}

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if s.SignedIn() || s.Token() != "" {
		t.Fatalf("still signed in after Logout")
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("credential still persisted after Logout")
	}
}

func TestLogin_FailuresLeaveSessionUntouched(t *testing.T) {
	s, kv := newStore(t)

	if _, err := s.Login(context.Background(), &fakeExchanger{err: errors.New("down")}, "id"); err == nil {
		t.Fatalf("Login succeeded with failing exchanger")
	}
	if _, err := s.Login(context.Background(), &fakeExchanger{resp: livra.AuthResponse{AccessToken: "junk"}}, "id"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("Login error = %v, want ErrInvalidCredential", err)
	}
	if _, err := s.Login(context.Background(), &fakeExchanger{}, "  "); err == nil {
		t.Fatalf("Login accepted a blank id token")
	}
	if s.SignedIn() {
		t.Fatalf("signed in after failed logins")
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("credential persisted after failed logins")
	}
}
