// Package rank implements the belt progression engine: a pure mapping
// from a member's current grade to the next eligible grade, and the
// validation that turns a staff-selected target grade into a promotion
// record. The package performs no I/O; persistence belongs to the caller.
package rank

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Belt identifies one of the five recognized ranks.
type Belt string

const (
	White  Belt = "WHITE"
	Blue   Belt = "BLUE"
	Purple Belt = "PURPLE"
	Brown  Belt = "BROWN"
	Black  Belt = "BLACK"
)

var (
	// ErrUnknownBelt is returned when a belt is not one of the five ranks.
	ErrUnknownBelt = errors.New("unknown belt rank")
	// ErrInvalidTarget is returned when a target stripe count is out of
	// range for the target belt.
	ErrInvalidTarget = errors.New("stripe count out of range for belt")
	// ErrNoChange is returned when a target grade equals the current grade.
	ErrNoChange = errors.New("target rank equals current rank")
)

// MaxNoteLen caps promotion notes. Longer notes are truncated, not rejected.
const MaxNoteLen = 500

// Info holds one belt's fixed grading metadata.
type Info struct {
	Code       Belt   `json:"code"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	Order      int    `json:"order"`
	MaxStripes int    `json:"max_stripes"`
}

// beltOrder is the canonical promotion sequence.
var beltOrder = [...]Belt{White, Blue, Purple, Brown, Black}

// beltTable is constructed once at process start and never mutated.
// Adult stripe ceilings: four per colored belt, six degrees on black.
var beltTable = map[Belt]Info{
	White:  {Code: White, Label: "White Belt", Color: "#e2e8f0", Order: 0, MaxStripes: 4},
	Blue:   {Code: Blue, Label: "Blue Belt", Color: "#2563eb", Order: 1, MaxStripes: 4},
	Purple: {Code: Purple, Label: "Purple Belt", Color: "#7c3aed", Order: 2, MaxStripes: 4},
	Brown:  {Code: Brown, Label: "Brown Belt", Color: "#92400e", Order: 3, MaxStripes: 4},
	Black:  {Code: Black, Label: "Black Belt", Color: "#111827", Order: 4, MaxStripes: 6},
}

// State is a member's grade: a belt plus accumulated stripes.
type State struct {
	Belt    Belt `json:"belt"`
	Stripes int  `json:"stripes"`
}

// Valid reports whether the state is structurally valid: a known belt
// with a stripe count inside that belt's range.
func (s State) Valid() error {
	info, ok := beltTable[s.Belt]
	if !ok {
		return ErrUnknownBelt
	}
	if s.Stripes < 0 || s.Stripes > info.MaxStripes {
		return fmt.Errorf("%w: %s allows 0-%d, got %d", ErrInvalidTarget, s.Belt, info.MaxStripes, s.Stripes)
	}
	return nil
}

// String renders the grade for logs and notifications.
func (s State) String() string {
	info, ok := beltTable[s.Belt]
	if !ok {
		return fmt.Sprintf("%s (%d stripes)", s.Belt, s.Stripes)
	}
	return fmt.Sprintf("%s (%d stripes)", info.Label, s.Stripes)
}

// Actor identifies the staff user performing a promotion.
type Actor struct {
	ID   uint
	Name string
}

// Record is the immutable fact describing one applied promotion.
type Record struct {
	FromBelt        Belt
	FromStripes     int
	ToBelt          Belt
	ToStripes       int
	PromotedAt      time.Time
	PerformedBy     uint
	PerformedByName string
	Note            string
}

// NextEligible returns the single canonical next grade for current:
// the same belt with one more stripe while below the belt's ceiling,
// otherwise the first stripe-less grade of the next belt. Black belt at
// six degrees is terminal. A current state that is not structurally
// valid (unknown belt or out-of-range stripes) yields no suggestion
// rather than an error, so callers can always render.
func NextEligible(current State) (State, bool) {
	if current.Valid() != nil {
		return State{}, false
	}
	info := beltTable[current.Belt]
	if current.Stripes < info.MaxStripes {
		return State{Belt: current.Belt, Stripes: current.Stripes + 1}, true
	}
	if next, ok := nextBelt(current.Belt); ok {
		return State{Belt: next, Stripes: 0}, true
	}
	return State{}, false
}

// Apply validates a staff-selected target grade against the current one
// and produces the promotion record to persist. The target may be any
// structurally valid grade other than current: skip-ahead awards,
// demotions and corrections are all allowed, the NextEligible suggestion
// is advisory only. The current state itself is not validated, so staff
// can promote a member out of corrupted data.
func Apply(current, target State, by Actor, note string) (Record, error) {
	if err := target.Valid(); err != nil {
		return Record{}, err
	}
	if target == current {
		return Record{}, ErrNoChange
	}
	return Record{
		FromBelt:        current.Belt,
		FromStripes:     current.Stripes,
		ToBelt:          target.Belt,
		ToStripes:       target.Stripes,
		PromotedAt:      time.Now(),
		PerformedBy:     by.ID,
		PerformedByName: by.Name,
		Note:            TruncateNote(note),
	}, nil
}

// TruncateNote enforces MaxNoteLen without rejecting staff input.
func TruncateNote(note string) string {
	r := []rune(note)
	if len(r) <= MaxNoteLen {
		return note
	}
	return string(r[:MaxNoteLen])
}

// ParseBelt normalizes a belt code. Case-insensitive.
func ParseBelt(s string) (Belt, error) {
	b := Belt(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := beltTable[b]; !ok {
		return "", ErrUnknownBelt
	}
	return b, nil
}

// Lookup returns the grading metadata for a belt.
func Lookup(b Belt) (Info, bool) {
	info, ok := beltTable[b]
	return info, ok
}

// Order returns a belt's position in the promotion sequence, starting
// at zero for white.
func Order(b Belt) (int, bool) {
	info, ok := beltTable[b]
	if !ok {
		return 0, false
	}
	return info.Order, true
}

// MaxStripes returns the stripe ceiling for a belt.
func MaxStripes(b Belt) (int, bool) {
	info, ok := beltTable[b]
	if !ok {
		return 0, false
	}
	return info.MaxStripes, true
}

// Belts returns the belt metadata in promotion order.
func Belts() []Info {
	out := make([]Info, 0, len(beltOrder))
	for _, b := range beltOrder {
		out = append(out, beltTable[b])
	}
	return out
}

// AllStates enumerates every structurally valid grade in promotion order.
func AllStates() []State {
	var out []State
	for _, b := range beltOrder {
		for s := 0; s <= beltTable[b].MaxStripes; s++ {
			out = append(out, State{Belt: b, Stripes: s})
		}
	}
	return out
}

// IsTerminal reports whether no further promotion is suggested from s.
func IsTerminal(s State) bool {
	_, ok := NextEligible(s)
	return !ok && s.Valid() == nil
}

func nextBelt(b Belt) (Belt, bool) {
	for i, cur := range beltOrder {
		if cur == b && i+1 < len(beltOrder) {
			return beltOrder[i+1], true
		}
	}
	return "", false
}
