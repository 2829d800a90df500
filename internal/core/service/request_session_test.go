package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/openhms/hms-portal/internal/core/domain"
)

func TestHeaders_MissingSession(t *testing.T) {
	rs := newRS(&memoryStore{})
	if _, err := rs.Headers(); !errors.Is(err, domain.ErrMissingSession) {
		t.Fatalf("expected ErrMissingSession, got %v", err)
	}
}

func TestHeaders_Modes(t *testing.T) {
	store := &memoryStore{token: "abc"}

	cookieRS := NewRequestSession(store, HeaderConfig{Mode: HeaderModeCookie, CookieName: "JSESSIONID"}, fingerprint)
	h, err := cookieRS.Headers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.Get("Cookie"); got != "JSESSIONID=abc" {
		t.Errorf("expected cookie header, got %q", got)
	}
	if h.Get("Authorization") != "" {
		t.Error("cookie mode must not send Authorization")
	}
	if h.Get("Accept") != "application/json" {
		t.Error("expected json Accept header")
	}

	bearerRS := NewRequestSession(store, HeaderConfig{Mode: HeaderModeBearer}, fingerprint)
	h, _ = bearerRS.Headers()
	if got := h.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", got)
	}
	if h.Get("Cookie") != "" {
		t.Error("bearer mode must not send Cookie")
	}
}

func TestCheck_OnlyFatalErrorsExpire(t *testing.T) {
	rs := newRS(&memoryStore{token: "abc"})

	pageLocal := fmt.Errorf("%w: 500", domain.ErrUpstream)
	if got := rs.Check(pageLocal); got != pageLocal {
		t.Fatal("Check must return its argument")
	}
	if rs.Expired() {
		t.Fatal("page-local error must not expire the session")
	}
	if rs.Check(nil) != nil || rs.Expired() {
		t.Fatal("nil must be a no-op")
	}

	first := &domain.UpstreamError{Op: "a", StatusCode: 401, Err: domain.ErrUpstreamUnauthorized}
	rs.Check(first)
	rs.Check(domain.ErrMissingSession)

	if !rs.Expired() {
		t.Fatal("expected session to be expired")
	}
	if rs.Cause() != first {
		t.Fatalf("expected first fatal error as cause, got %v", rs.Cause())
	}
}

func TestCheck_ConcurrentFatalErrors(t *testing.T) {
	rs := newRS(&memoryStore{token: "abc"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rs.Check(fmt.Errorf("call %d: %w", i, domain.ErrUpstreamUnauthorized))
		}(i)
	}
	wg.Wait()

	if !rs.Expired() || !errors.Is(rs.Cause(), domain.ErrUpstreamUnauthorized) {
		t.Fatalf("expected a single recorded unauthorized cause, got %v", rs.Cause())
	}
}

func TestFingerprint_FollowsStore(t *testing.T) {
	store := &memoryStore{}
	rs := newRS(store)
	if rs.Fingerprint() != "" {
		t.Fatal("no token, no fingerprint")
	}
	store.SetToken("abc")
	if rs.Fingerprint() != "fp-abc" {
		t.Fatalf("unexpected fingerprint %q", rs.Fingerprint())
	}
}
