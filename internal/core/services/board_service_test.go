package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
)

func newBoardTestClient(id string, gymID uint, kiosk bool) *BoardClient {
	return &BoardClient{
		ID:      id,
		GymID:   gymID,
		Channel: make(chan BoardEvent, 10),
		IsKiosk: kiosk,
	}
}

func TestBoardHubRegisterUnregister(t *testing.T) {
	hub := NewBoardHub()
	client := newBoardTestClient("c1", 1, false)

	hub.Register(client)
	assert.Equal(t, 1, hub.GetClientCount())

	hub.Unregister("c1")
	assert.Equal(t, 0, hub.GetClientCount())

	// Unregister closes the channel so the SSE writer loop ends
	_, open := <-client.Channel
	assert.False(t, open)

	// Unknown IDs are a no-op
	hub.Unregister("c1")
}

func TestBroadcastToGymScopesByGym(t *testing.T) {
	hub := NewBoardHub()
	mine := newBoardTestClient("mine", 1, false)
	other := newBoardTestClient("other", 2, false)
	hub.Register(mine)
	hub.Register(other)

	hub.BroadcastToGym(1, BoardEvent{Event: "checkin", Data: "x"})

	select {
	case got := <-mine.Channel:
		assert.Equal(t, "checkin", got.Event)
		assert.Equal(t, uint(1), got.GymID)
	default:
		t.Fatal("gym 1 client received nothing")
	}

	select {
	case got := <-other.Channel:
		t.Fatalf("gym 2 client received %v", got)
	default:
	}
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	hub := NewBoardHub()
	stalled := &BoardClient{ID: "stalled", GymID: 1, Channel: make(chan BoardEvent)}
	healthy := newBoardTestClient("healthy", 1, false)
	hub.Register(stalled)
	hub.Register(healthy)

	// A client that never drains must not block the whole board
	hub.BroadcastToGym(1, BoardEvent{Event: "checkin"})

	select {
	case <-healthy.Channel:
	default:
		t.Fatal("healthy client starved by stalled one")
	}
}

func TestBroadcastToKiosksOnly(t *testing.T) {
	hub := NewBoardHub()
	kiosk := newBoardTestClient("kiosk", 1, true)
	browser := newBoardTestClient("browser", 1, false)
	hub.Register(kiosk)
	hub.Register(browser)

	hub.BroadcastToKiosks(1, BoardEvent{Event: "code_rotated"})

	select {
	case got := <-kiosk.Channel:
		assert.Equal(t, "code_rotated", got.Event)
	default:
		t.Fatal("kiosk received nothing")
	}

	select {
	case <-browser.Channel:
		t.Fatal("staff browser received a kiosk-only event")
	default:
	}
}

func TestNotifyCheckinPayload(t *testing.T) {
	svc := NewBoardService()
	client := newBoardTestClient("c1", 1, false)
	svc.Hub.Register(client)

	session := &models.ClassSession{ID: 42, Title: "Morning Gi"}
	member := &models.Member{FirstName: "Kenta", LastName: "Mori", BeltCode: "BLUE", Stripes: 2}
	att := &models.Attendance{Method: "SELF", CheckedInAt: time.Now(), Member: member}

	svc.NotifyCheckin(1, session, att, 12)

	got := <-client.Channel
	require.Equal(t, "checkin", got.Event)
	data, ok := got.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, uint(42), data["session_id"])
	assert.Equal(t, "Morning Gi", data["session_title"])
	assert.Equal(t, int64(12), data["headcount"])
	assert.Equal(t, member.FullName(), data["member_name"])
	assert.Equal(t, "BLUE", data["belt_code"])
}

func TestNotifyCheckinAnonymousMember(t *testing.T) {
	svc := NewBoardService()
	client := newBoardTestClient("c1", 1, false)
	svc.Hub.Register(client)

	session := &models.ClassSession{Title: "Open Mat"}
	att := &models.Attendance{Method: "STAFF", CheckedInAt: time.Now()}

	svc.NotifyCheckin(1, session, att, 1)

	got := <-client.Channel
	data, ok := got.Data.(map[string]interface{})
	require.True(t, ok)
	_, hasName := data["member_name"]
	assert.False(t, hasName)
}
