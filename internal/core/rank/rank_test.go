package rank

import (
	"errors"
	"strings"
	"testing"
)

func TestNextEligible(t *testing.T) {
	tests := []struct {
		name    string
		current State
		want    State
		wantOK  bool
	}{
		{"white gains a stripe", State{White, 3}, State{White, 4}, true},
		{"white at ceiling moves to blue", State{White, 4}, State{Blue, 0}, true},
		{"blue mid-belt", State{Blue, 1}, State{Blue, 2}, true},
		{"purple at ceiling moves to brown", State{Purple, 4}, State{Brown, 0}, true},
		{"brown at ceiling moves to black", State{Brown, 4}, State{Black, 0}, true},
		{"black accumulates degrees", State{Black, 0}, State{Black, 1}, true},
		{"black fifth to sixth degree", State{Black, 5}, State{Black, 6}, true},
		{"black at sixth degree is terminal", State{Black, 6}, State{}, false},
		{"unknown belt has no suggestion", State{"RED", 0}, State{}, false},
		{"corrupt stripe count has no suggestion", State{Blue, 9}, State{}, false},
		{"negative stripe count has no suggestion", State{White, -1}, State{}, false},
	}

	for _, tt := range tests {
		got, ok := NextEligible(tt.current)
		if ok != tt.wantOK {
			t.Errorf("%s: NextEligible(%v) ok = %v, want %v", tt.name, tt.current, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%s: NextEligible(%v) = %v, want %v", tt.name, tt.current, got, tt.want)
		}
	}
}

// progressScore orders grades for the strictly-increasing property.
func progressScore(s State) int {
	order, _ := Order(s.Belt)
	return order*10 + s.Stripes
}

func TestNextEligibleProperties(t *testing.T) {
	states := AllStates()
	if len(states) != 27 {
		t.Fatalf("AllStates() returned %d states, want 27", len(states))
	}

	terminal := 0
	for _, s := range states {
		next, ok := NextEligible(s)
		if !ok {
			terminal++
			if (s != State{Black, 6}) {
				t.Errorf("unexpected terminal state %v", s)
			}
			continue
		}
		if err := next.Valid(); err != nil {
			t.Errorf("NextEligible(%v) = %v is not a valid state: %v", s, next, err)
		}
		if progressScore(next) <= progressScore(s) {
			t.Errorf("NextEligible(%v) = %v is not strictly higher in promotion order", s, next)
		}
		// Pure function: a second call must agree with the first.
		again, okAgain := NextEligible(s)
		if !okAgain || again != next {
			t.Errorf("NextEligible(%v) is not stable: %v then %v", s, next, again)
		}
	}
	if terminal != 1 {
		t.Errorf("found %d terminal states, want exactly 1 (black at 6)", terminal)
	}
}

func TestApplyAccepted(t *testing.T) {
	actor := Actor{ID: 7, Name: "Prof. Souza"}

	// Staff may award a skip-ahead promotion; the record keeps both ends.
	rec, err := Apply(State{Purple, 1}, State{Black, 0}, actor, "skip-ahead award")
	if err != nil {
		t.Fatalf("Apply skip-ahead returned error: %v", err)
	}
	if rec.FromBelt != Purple || rec.FromStripes != 1 {
		t.Errorf("record from = %s/%d, want PURPLE/1", rec.FromBelt, rec.FromStripes)
	}
	if rec.ToBelt != Black || rec.ToStripes != 0 {
		t.Errorf("record to = %s/%d, want BLACK/0", rec.ToBelt, rec.ToStripes)
	}
	if rec.PerformedBy != 7 || rec.PerformedByName != "Prof. Souza" {
		t.Errorf("record actor = %d/%q, want 7/Prof. Souza", rec.PerformedBy, rec.PerformedByName)
	}
	if rec.Note != "skip-ahead award" {
		t.Errorf("record note = %q", rec.Note)
	}
	if rec.PromotedAt.IsZero() {
		t.Error("record PromotedAt not stamped")
	}

	// Demotions and corrections are equally legal.
	rec, err = Apply(State{Blue, 0}, State{White, 4}, actor, "grading correction")
	if err != nil {
		t.Fatalf("Apply demotion returned error: %v", err)
	}
	if rec.ToBelt != White || rec.ToStripes != 4 {
		t.Errorf("demotion record to = %s/%d, want WHITE/4", rec.ToBelt, rec.ToStripes)
	}

	// A corrupt current state does not block repair toward a valid target.
	rec, err = Apply(State{"CORAL", 2}, State{Black, 3}, actor, "")
	if err != nil {
		t.Fatalf("Apply from corrupt state returned error: %v", err)
	}
	if rec.FromBelt != "CORAL" || rec.FromStripes != 2 {
		t.Errorf("repair record from = %s/%d, want CORAL/2 preserved", rec.FromBelt, rec.FromStripes)
	}
}

func TestApplyRejected(t *testing.T) {
	actor := Actor{ID: 1, Name: "Coach"}

	tests := []struct {
		name    string
		current State
		target  State
		wantErr error
	}{
		{"no-op promotion", State{Blue, 2}, State{Blue, 2}, ErrNoChange},
		{"stripes beyond white ceiling", State{White, 0}, State{White, 5}, ErrInvalidTarget},
		{"stripes beyond black ceiling", State{Black, 5}, State{Black, 7}, ErrInvalidTarget},
		{"negative target stripes", State{Blue, 1}, State{Blue, -1}, ErrInvalidTarget},
		{"unknown target belt", State{Blue, 1}, State{"RED", 0}, ErrUnknownBelt},
	}

	for _, tt := range tests {
		_, err := Apply(tt.current, tt.target, actor, "")
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Apply(%v, %v) err = %v, want %v", tt.name, tt.current, tt.target, err, tt.wantErr)
		}
	}

	// Every reachable state rejects itself as a target.
	for _, s := range AllStates() {
		if _, err := Apply(s, s, actor, ""); !errors.Is(err, ErrNoChange) {
			t.Errorf("Apply(%v, %v) err = %v, want ErrNoChange", s, s, err)
		}
	}

	// Every belt rejects a target one past its ceiling.
	for _, info := range Belts() {
		target := State{Belt: info.Code, Stripes: info.MaxStripes + 1}
		if _, err := Apply(State{White, 0}, target, actor, ""); !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("Apply to %v err = %v, want ErrInvalidTarget", target, err)
		}
	}
}

func TestApplyTruncatesNote(t *testing.T) {
	long := strings.Repeat("あ", MaxNoteLen+40)
	rec, err := Apply(State{White, 0}, State{White, 1}, Actor{ID: 1}, long)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := len([]rune(rec.Note)); got != MaxNoteLen {
		t.Errorf("note length = %d runes, want %d", got, MaxNoteLen)
	}

	exact := strings.Repeat("x", MaxNoteLen)
	if TruncateNote(exact) != exact {
		t.Error("note at exactly the cap must pass through unchanged")
	}
}

func TestStateValid(t *testing.T) {
	for _, s := range AllStates() {
		if err := s.Valid(); err != nil {
			t.Errorf("state %v reported invalid: %v", s, err)
		}
	}

	invalid := []State{
		{"RED", 0},
		{White, 5},
		{Blue, 5},
		{Black, 7},
		{Purple, -1},
	}
	for _, s := range invalid {
		if s.Valid() == nil {
			t.Errorf("state %v reported valid, want error", s)
		}
	}

	if err := (State{"", 0}).Valid(); !errors.Is(err, ErrUnknownBelt) {
		t.Errorf("empty belt err = %v, want ErrUnknownBelt", err)
	}
	if err := (State{Black, 7}).Valid(); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("black/7 err = %v, want ErrInvalidTarget", err)
	}
}

func TestParseBelt(t *testing.T) {
	tests := []struct {
		in      string
		want    Belt
		wantErr bool
	}{
		{"white", White, false},
		{"WHITE", White, false},
		{" Black ", Black, false},
		{"purple", Purple, false},
		{"red", "", true},
		{"", "", true},
		{"blackbelt", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBelt(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownBelt) {
				t.Errorf("ParseBelt(%q) err = %v, want ErrUnknownBelt", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBelt(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestBeltTable(t *testing.T) {
	belts := Belts()
	if len(belts) != 5 {
		t.Fatalf("Belts() returned %d entries, want 5", len(belts))
	}
	for i, info := range belts {
		if info.Order != i {
			t.Errorf("belt %s order = %d, want %d", info.Code, info.Order, i)
		}
		want := 4
		if info.Code == Black {
			want = 6
		}
		if info.MaxStripes != want {
			t.Errorf("belt %s max stripes = %d, want %d", info.Code, info.MaxStripes, want)
		}
	}

	if !IsTerminal(State{Black, 6}) {
		t.Error("black at 6 must be terminal")
	}
	if IsTerminal(State{Black, 5}) {
		t.Error("black at 5 must not be terminal")
	}
	if IsTerminal(State{"RED", 0}) {
		t.Error("an invalid state is not a terminal grade")
	}
}
