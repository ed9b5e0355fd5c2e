package models

import (
	"testing"
	"time"
)

func TestNoticeUiStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name      string
		publishAt time.Time
		expireAt  *time.Time
		want      string
	}{
		{"published no expiry", past, nil, NoticeStatusActive},
		{"published not yet expired", past, &future, NoticeStatusActive},
		{"not yet published", future, nil, NoticeStatusScheduled},
		{"already expired", past.Add(-24 * time.Hour), &past, NoticeStatusExpired},
		{"publishes exactly now", now, nil, NoticeStatusActive},
		{"expires exactly now", past, &now, NoticeStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Notice{PublishAt: tt.publishAt, ExpireAt: tt.expireAt}
			if got := n.UiStatus(now); got != tt.want {
				t.Errorf("UiStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoticeVisibleTo(t *testing.T) {
	tests := []struct {
		audience string
		role     string
		want     bool
	}{
		{"ALL", "MEMBER", true},
		{"ALL", "COACH", true},
		{"MEMBERS", "MEMBER", true},
		{"MEMBERS", "ADMIN", true},
		{"COACHES", "MEMBER", false},
		{"COACHES", "COACH", true},
		{"COACHES", "ADMIN", true},
	}

	for _, tt := range tests {
		n := Notice{Audience: tt.audience}
		if got := n.VisibleTo(tt.role); got != tt.want {
			t.Errorf("audience %s role %s: VisibleTo() = %v, want %v", tt.audience, tt.role, got, tt.want)
		}
	}
}

func TestWaiverIsValid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	valid := Waiver{ExpiresAt: now.Add(time.Hour)}
	if !valid.IsValid(now) {
		t.Error("waiver expiring in an hour should be valid")
	}

	expired := Waiver{ExpiresAt: now.Add(-time.Minute)}
	if expired.IsValid(now) {
		t.Error("expired waiver should not be valid")
	}

	boundary := Waiver{ExpiresAt: now}
	if boundary.IsValid(now) {
		t.Error("waiver expiring exactly now should not be valid")
	}
}

func TestClassSessionCheckinOpen(t *testing.T) {
	start := time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC)
	session := ClassSession{
		StartsAt: start,
		EndsAt:   start.Add(90 * time.Minute),
		Status:   "SCHEDULED",
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"an hour before start", start.Add(-time.Hour), false},
		{"window opens 30min before", start.Add(-30 * time.Minute), true},
		{"during class", start.Add(45 * time.Minute), true},
		{"at scheduled end", start.Add(90 * time.Minute), false},
		{"after class", start.Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.CheckinOpen(tt.at); got != tt.want {
				t.Errorf("CheckinOpen(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}

	cancelled := session
	cancelled.Status = "CANCELLED"
	if cancelled.CheckinOpen(start) {
		t.Error("cancelled session should not accept check-ins")
	}
}

func TestMemberRankState(t *testing.T) {
	m := Member{BeltCode: "PURPLE", Stripes: 3}
	state := m.RankState()
	if string(state.Belt) != "PURPLE" || state.Stripes != 3 {
		t.Errorf("RankState() = %+v", state)
	}
}
