package services

import (
	"log"
	"sync"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
)

// ============================================================
// Board Service - SSE hub for the live check-in board
// ============================================================

// BoardEvent represents a server-sent event pushed to board clients
type BoardEvent struct {
	Event string      `json:"event"`
	GymID uint        `json:"gym_id"`
	Data  interface{} `json:"data"`
}

// BoardClient represents a connected SSE client
type BoardClient struct {
	ID      string
	UserID  uint // 0 for anonymous kiosk displays
	GymID   uint
	Channel chan BoardEvent
	IsKiosk bool // true = mat-side display, false = staff browser
}

// BoardHub manages all SSE connections for live boards
type BoardHub struct {
	mu      sync.RWMutex
	clients map[string]*BoardClient
}

// NewBoardHub creates a new board hub
func NewBoardHub() *BoardHub {
	return &BoardHub{
		clients: make(map[string]*BoardClient),
	}
}

// Register adds a new SSE client
func (h *BoardHub) Register(client *BoardClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 Board client registered: %s (user=%d, gym=%d, kiosk=%v) | total=%d",
		client.ID, client.UserID, client.GymID, client.IsKiosk, len(h.clients))
}

// Unregister removes an SSE client
func (h *BoardHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 Board client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// BroadcastToGym sends an event to every client watching a gym's board
func (h *BoardHub) BroadcastToGym(gymID uint, event BoardEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.GymID = gymID
	sent := 0
	for _, client := range h.clients {
		if client.GymID == gymID {
			select {
			case client.Channel <- event:
				sent++
			default:
				// Client channel full, skip
				log.Printf("⚠️ Board channel full for client %s, skipping", client.ID)
			}
		}
	}
	if sent > 0 {
		log.Printf("📡 Board broadcast [%s] to gym %d → %d clients", event.Event, gymID, sent)
	}
}

// BroadcastToKiosks sends an event only to mat-side displays for a gym
func (h *BoardHub) BroadcastToKiosks(gymID uint, event BoardEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.GymID = gymID
	for _, client := range h.clients {
		if client.GymID == gymID && client.IsKiosk {
			select {
			case client.Channel <- event:
			default:
			}
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *BoardHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// BoardService — pushes attendance events onto gym boards
// ============================================================

// BoardService fans attendance and session changes out to connected boards
type BoardService struct {
	Hub *BoardHub
}

// NewBoardService creates a new board service
func NewBoardService() *BoardService {
	return &BoardService{
		Hub: NewBoardHub(),
	}
}

// NotifyCheckin — pushed when a member checks in to a session
func (b *BoardService) NotifyCheckin(gymID uint, session *models.ClassSession, attendance *models.Attendance, headcount int64) {
	data := map[string]interface{}{
		"session_id":    session.ID,
		"session_title": session.Title,
		"headcount":     headcount,
		"checked_in_at": attendance.CheckedInAt.Format(time.RFC3339),
		"method":        attendance.Method,
	}
	if attendance.Member != nil {
		data["member_name"] = attendance.Member.FullName()
		data["belt_code"] = attendance.Member.BeltCode
		data["stripes"] = attendance.Member.Stripes
	}

	b.Hub.BroadcastToGym(gymID, BoardEvent{Event: "checkin", Data: data})
}

// NotifyCheckinRemoved — pushed when the front desk voids a check-in
func (b *BoardService) NotifyCheckinRemoved(gymID uint, sessionID uint, headcount int64) {
	b.Hub.BroadcastToGym(gymID, BoardEvent{
		Event: "checkin_removed",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"headcount":  headcount,
		},
	})
}

// NotifySessionUpdate — general session change (cancel, complete, reschedule)
func (b *BoardService) NotifySessionUpdate(gymID uint, eventType string, session *models.ClassSession) {
	b.Hub.BroadcastToGym(gymID, BoardEvent{
		Event: eventType,
		Data: map[string]interface{}{
			"session_id": session.ID,
			"title":      session.Title,
			"status":     session.Status,
			"starts_at":  session.StartsAt.Format(time.RFC3339),
		},
	})
}

// NotifyCodeRotated — tells kiosk displays to show the fresh code
func (b *BoardService) NotifyCodeRotated(gymID uint, code string, expiresAt time.Time) {
	b.Hub.BroadcastToKiosks(gymID, BoardEvent{
		Event: "code_rotated",
		Data: map[string]interface{}{
			"code":       code,
			"expires_at": expiresAt.Format(time.RFC3339),
		},
	})
}
