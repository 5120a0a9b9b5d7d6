package emailauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/planora/emailauth/cache"
)

func newStoreOverMiniredis(mr *miniredis.Miniredis) cache.Store {
	return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

// stubUsers is an in-memory UserProvider for tests.
type stubUsers struct {
	mu       sync.Mutex
	byID     map[string]*User
	byEmail  map[string]*User
	verified map[string]time.Time
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byID:     map[string]*User{},
		byEmail:  map[string]*User{},
		verified: map[string]time.Time{},
	}
}

func (s *stubUsers) add(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = &u
}

func (s *stubUsers) GetUserByID(_ context.Context, userID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) MarkEmailVerified(_ context.Context, userID string, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[userID] = verifiedAt
	return nil
}

func (s *stubUsers) verifiedAt(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.verified[userID]
	return at, ok
}

// captureSender records every notification and reports delivery per its fail
// flag.
type captureSender struct {
	mu   sync.Mutex
	fail bool
	sent []Notification
}

func (s *captureSender) Send(_ context.Context, n Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false
	}
	s.sent = append(s.sent, n)
	return true
}

func (s *captureSender) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *captureSender) last(t *testing.T) Notification {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no notification captured")
	}
	return s.sent[len(s.sent)-1]
}

// newTestService wires a Service over miniredis with stub collaborators.
// mutate may adjust the default config before Build.
func newTestService(t *testing.T, mutate func(*Config)) (*miniredis.Miniredis, *Service, *stubUsers, *captureSender) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	users := newStubUsers()
	sender := &captureSender{}

	svc, err := New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithUserProvider(users).
		WithEmailSender(sender).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return mr, svc, users, sender
}

func TestZeroServiceNotReady(t *testing.T) {
	ctx := context.Background()
	svc := &Service{}

	if _, err := svc.SendOTPCode(ctx, "a@b.c"); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("SendOTPCode err = %v", err)
	}
	if _, err := svc.VerifyOTPCode(ctx, "a@b.c", "123456"); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("VerifyOTPCode err = %v", err)
	}
	if _, err := svc.SendVerificationEmail(ctx, &User{ID: "u1"}); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("SendVerificationEmail err = %v", err)
	}
	if _, err := svc.SendMagicLink(ctx, "a@b.c"); !errors.Is(err, ErrServiceNotReady) {
		t.Fatalf("SendMagicLink err = %v", err)
	}

	// Observability accessors must tolerate the zero and nil receiver.
	svc.Close()
	if svc.AuditDropped() != 0 {
		t.Fatal("zero service reports drops")
	}
	var nilSvc *Service
	nilSvc.Close()
	if snap := nilSvc.MetricsSnapshot(); len(snap.Counters) != 0 {
		t.Fatal("nil service reports counters")
	}
}

func TestCacheDownSurfacesInfrastructureError(t *testing.T) {
	mr, svc, _, _ := newTestService(t, nil)
	mr.Close()

	_, err := svc.SendOTPCode(context.Background(), "user@example.com")
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("err = %v, want ErrCacheUnavailable", err)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.c", "user@example.com", "user+tag@example.co.uk"}
	for _, addr := range valid {
		if !validEmail(addr) {
			t.Fatalf("%q rejected", addr)
		}
	}

	invalid := []string{"", "not-an-email", "@example.com", "user@", "Alice <a@b.c>", "a b@c.d"}
	for _, addr := range invalid {
		if validEmail(addr) {
			t.Fatalf("%q accepted", addr)
		}
	}
}
