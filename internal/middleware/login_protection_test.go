// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestProtection returns a LoginProtection with a controllable clock.
func newTestProtection(t *testing.T, cfg LoginProtectionConfig) (*LoginProtection, *time.Time) {
	t.Helper()
	lp := NewLoginProtection(cfg)
	t.Cleanup(lp.Stop)
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }
	return lp, &now
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit != 0.5 || cfg.IPBurst != 5 {
		t.Errorf("IP limit = %v/%d, want 0.5/5", cfg.IPRateLimit, cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute || cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("durations = %v/%v, want 15m/15m", cfg.LockoutDuration, cfg.AttemptWindow)
	}
}

func TestNewLoginProtectionFillsDefaults(t *testing.T) {
	lp, _ := newTestProtection(t, LoginProtectionConfig{})
	if lp.maxFailedAttempts != 5 || lp.lockoutDuration != 15*time.Minute || lp.attemptWindow != 15*time.Minute {
		t.Errorf("defaults not applied: %+v", lp)
	}
	if lp.retryAfter != 2*time.Second {
		t.Errorf("retryAfter = %v, want 2s", lp.retryAfter)
	}
}

func TestAccountLockout(t *testing.T) {
	lp, now := newTestProtection(t, LoginProtectionConfig{MaxFailedAttempts: 3, LockoutDuration: time.Minute, AttemptWindow: time.Hour})

	for i := 1; i <= 2; i++ {
		if locked, _ := lp.RecordFailedAttempt("andy"); locked {
			t.Fatalf("locked after %d attempts", i)
		}
	}
	if got := lp.GetRemainingAttempts("andy"); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt("andy")
	if !locked || d != time.Minute {
		t.Fatalf("third failure = (%v, %v), want (true, 1m)", locked, d)
	}
	if locked, rest := lp.IsAccountLocked("andy"); !locked || rest != time.Minute {
		t.Errorf("IsAccountLocked = (%v, %v)", locked, rest)
	}
	if locked, _ := lp.IsAccountLocked("chris"); locked {
		t.Error("other usernames must not be locked")
	}

	*now = now.Add(61 * time.Second)
	if locked, _ := lp.IsAccountLocked("andy"); locked {
		t.Error("lock should have expired")
	}

	// The second lockout lasts twice as long.
	var second time.Duration
	for range 3 {
		_, second = lp.RecordFailedAttempt("andy")
	}
	if second != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", second)
	}

	lp.RecordSuccessfulLogin("andy")
	if locked, _ := lp.IsAccountLocked("andy"); locked {
		t.Error("successful login should clear the lock")
	}
	if got := lp.GetRemainingAttempts("andy"); got != 3 {
		t.Errorf("remaining after success = %d, want 3", got)
	}
}

func TestLockoutCapped(t *testing.T) {
	lp, now := newTestProtection(t, LoginProtectionConfig{MaxFailedAttempts: 1, LockoutDuration: 10 * time.Hour, AttemptWindow: time.Hour})

	var d time.Duration
	for range 4 {
		lp.RecordFailedAttempt("flo") // first call only starts the counter
		_, d = lp.RecordFailedAttempt("flo")
		*now = now.Add(d + time.Second)
	}
	if d != maxLockout {
		t.Errorf("lockout = %v, want %v", d, maxLockout)
	}
}

func TestAttemptWindowReset(t *testing.T) {
	lp, now := newTestProtection(t, LoginProtectionConfig{MaxFailedAttempts: 2, LockoutDuration: time.Minute, AttemptWindow: time.Minute})

	lp.RecordFailedAttempt("matze")
	*now = now.Add(2 * time.Minute)
	if got := lp.GetRemainingAttempts("matze"); got != 2 {
		t.Errorf("remaining after window = %d, want 2", got)
	}
	if locked, _ := lp.RecordFailedAttempt("matze"); locked {
		t.Error("attempt outside the window should restart the count")
	}
}

// Run with -race: lock checks must not read attempts being updated.
func TestLoginProtectionConcurrentAttempts(t *testing.T) {
	lp, _ := newTestProtection(t, LoginProtectionConfig{MaxFailedAttempts: 5, LockoutDuration: time.Minute, AttemptWindow: time.Hour})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 200 {
				lp.RecordFailedAttempt("admin")
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				lp.IsAccountLocked("admin")
				if got := lp.GetRemainingAttempts("admin"); got < 0 || got > 5 {
					t.Errorf("remaining = %d, out of range", got)
				}
			}
		}()
	}
	wg.Wait()

	if locked, _ := lp.IsAccountLocked("admin"); !locked {
		t.Error("800 failures should leave the account locked")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	lp, now := newTestProtection(t, LoginProtectionConfig{AttemptWindow: time.Minute})
	lp.RecordFailedAttempt("joachim")

	*now = now.Add(2 * time.Minute)
	lp.cleanupStaleEntries()

	lp.attemptsMu.RLock()
	defer lp.attemptsMu.RUnlock()
	if len(lp.failedAttempts) != 0 {
		t.Errorf("stale entries left: %d", len(lp.failedAttempts))
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp, _ := newTestProtection(t, LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	h := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = ip + ":40000"
		req.Header.Set("Accept-Language", "en")
		rec := httptest.NewRecorder()
		Language(h).ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		if rec := post("10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}

	rec := post("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	body := decodeAPIError(t, rec)
	if body.Error.Code != CodeRateLimited || !strings.HasPrefix(body.Error.Message, "Too many login attempts") {
		t.Errorf("error = %+v", body.Error)
	}

	if rec := post("10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.RemoteAddr = "10.0.0.1:40000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.get("a")
	lc.get("b")
	if lc.clearIfExceeds(2) {
		t.Error("cleared at the limit")
	}
	lc.get("c")
	if !lc.clearIfExceeds(2) {
		t.Error("expected clear above the limit")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("limiters = %d after clear", len(lc.limiters))
	}
}
