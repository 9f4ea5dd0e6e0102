package models

import "testing"

const day = int64(86400)

func int64Ptr(v int64) *int64 { return &v }

func TestRemainingClaimCooldown(t *testing.T) {
	now := int64(1_700_000_000)

	tests := []struct {
		name        string
		lastClaimed *int64
		want        int64
	}{
		{"never claimed", nil, 0},
		{"just claimed", int64Ptr(now), day},
		{"mid window", int64Ptr(now - 3600), day - 3600},
		{"window boundary", int64Ptr(now - day), 0},
		{"past window", int64Ptr(now - 90000), 0},
		{"rolled back", int64Ptr(now - day), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WalletRecord{LastClaimed: tt.lastClaimed}
			got := w.RemainingClaimCooldown(now, day)
			if got != tt.want {
				t.Errorf("RemainingClaimCooldown() = %d, want %d", got, tt.want)
			}
			wantCan := tt.want <= 0
			if w.CanClaim(now, day) != wantCan {
				t.Errorf("CanClaim() = %v, want %v", !wantCan, wantCan)
			}
		})
	}
}

func TestClaimScenario_PastWindow(t *testing.T) {
	// Wallet with lastClaimed = now - 90000 and a 86400s window must be
	// allowed, and a fresh claim restarts the full window.
	now := int64(1_700_000_000)
	w := &WalletRecord{FaucetEnabled: true, LastClaimed: int64Ptr(now - 90000)}

	if !w.CanClaim(now, day) {
		t.Fatal("expected claim to be allowed past the window")
	}

	w.MarkClaimed(now)
	if got := w.RemainingClaimCooldown(now, day); got != day {
		t.Errorf("cooldown after claim = %d, want %d", got, day)
	}
}

func TestRollbackClaim(t *testing.T) {
	now := int64(1_700_000_000)
	w := &WalletRecord{}
	w.MarkClaimed(now)

	if w.CanClaim(now, day) {
		t.Fatal("claim should be blocked right after marking")
	}

	w.RollbackClaim(now, day)
	if !w.CanClaim(now, day) {
		t.Error("rollback must permit an immediate retry")
	}
	if w.LastClaimed == nil || *w.LastClaimed != now-day {
		t.Errorf("lastClaimed = %v, want %d", w.LastClaimed, now-day)
	}
}

func TestCanMessage(t *testing.T) {
	now := int64(1_700_000_000)
	limit := 5

	tests := []struct {
		name      string
		count     int
		lastReset int64
		want      bool
	}{
		{"under limit", 2, now, true},
		{"at limit, window active", 5, now - 100, false},
		{"at limit, window elapsed", 5, now - day, true},
		{"over limit, window active", 7, now - 100, false},
		{"zero count", 0, now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WalletRecord{MessageCount: tt.count, LastMessageReset: tt.lastReset}
			if got := w.CanMessage(now, limit, day); got != tt.want {
				t.Errorf("CanMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetIfElapsed_Boundary(t *testing.T) {
	// messageCount == limit with remaining cooldown == 0: the send is
	// permitted and the counter ends at 1 (0 then incremented).
	now := int64(1_700_000_000)
	w := &WalletRecord{MessageCount: 5, LastMessageReset: now - day}

	if !w.CanMessage(now, 5, day) {
		t.Fatal("boundary send must be permitted")
	}
	if !w.ResetIfElapsed(now, day) {
		t.Fatal("expected a reset at the window boundary")
	}
	if w.MessageCount != 0 || w.LastMessageReset != now {
		t.Errorf("after reset: count=%d reset=%d, want 0/%d", w.MessageCount, w.LastMessageReset, now)
	}

	w.MessageCount++
	if w.MessageCount != 1 {
		t.Errorf("counter after boundary send = %d, want 1", w.MessageCount)
	}
}

func TestResetIfElapsed_ActiveWindowUnchanged(t *testing.T) {
	now := int64(1_700_000_000)
	w := &WalletRecord{MessageCount: 3, LastMessageReset: now - 100}

	if w.ResetIfElapsed(now, day) {
		t.Fatal("reset must not fire inside an active window")
	}
	if w.MessageCount != 3 || w.LastMessageReset != now-100 {
		t.Error("record mutated by a no-op reset check")
	}
}

func TestRemainingMessages(t *testing.T) {
	now := int64(1_700_000_000)

	tests := []struct {
		name      string
		count     int
		lastReset int64
		want      int
	}{
		{"fresh wallet", 0, now, 5},
		{"partially used", 3, now, 2},
		{"exhausted", 5, now, 0},
		{"over limit clamps", 9, now, 0},
		{"elapsed window restores allowance", 5, now - day, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WalletRecord{MessageCount: tt.count, LastMessageReset: tt.lastReset}
			if got := w.RemainingMessages(now, 5, day); got != tt.want {
				t.Errorf("RemainingMessages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := int64(1_700_000_000)

	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{"live", now + 100, false},
		{"exact boundary is valid", now, false},
		{"expired", now - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SessionRecord{ExpiresAt: tt.expiresAt}
			if got := s.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
