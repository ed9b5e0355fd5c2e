package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BoardHandler handles the mat-side live board (public, no auth)
type BoardHandler struct {
	scheduleService *services.ScheduleService
	boardService    *services.BoardService
	gymRepo         *repositories.GymRepository
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(
	scheduleService *services.ScheduleService,
	boardService *services.BoardService,
	gymRepo *repositories.GymRepository,
) *BoardHandler {
	return &BoardHandler{
		scheduleService: scheduleService,
		boardService:    boardService,
		gymRepo:         gymRepo,
	}
}

// ============================================================
// GET /api/v1/board/:gym_id — today's board snapshot (Public)
// ============================================================

// GetBoard returns today's sessions with headcounts for the display
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	gymID, err := strconv.ParseUint(c.Params("gym_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid gym ID")
	}

	gym, err := h.gymRepo.GetByID(c.Context(), uint(gymID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Gym not found")
		}
		return response.InternalServerError(c, "Failed to load board")
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sessions, err := h.scheduleService.ListSessions(c.Context(), gym.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return response.InternalServerError(c, "Failed to load board")
	}

	return response.Success(c, "Board retrieved", fiber.Map{
		"gym_name": gym.Name,
		"date":     dayStart.Format("2006-01-02"),
		"sessions": sessions,
	})
}

// ============================================================
// GET /api/v1/board/:gym_id/events — SSE stream for the display (Public)
// ============================================================

// BoardSSE streams check-in and session events to a gym's displays
func (h *BoardHandler) BoardSSE(c *fiber.Ctx) error {
	gymID, err := strconv.ParseUint(c.Params("gym_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid gym ID")
	}

	// Verify gym exists
	if _, err := h.gymRepo.GetByID(c.Context(), uint(gymID)); err != nil {
		return response.NotFound(c, "Gym not found")
	}

	isKiosk := c.Query("kiosk") == "1"
	clientID := fmt.Sprintf("board-%d-%d", gymID, time.Now().UnixNano())

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("Access-Control-Allow-Origin", "*")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.BoardClient{
			ID:      clientID,
			UserID:  0,
			GymID:   uint(gymID),
			Channel: make(chan services.BoardEvent, 50),
			IsKiosk: isKiosk,
		}

		h.boardService.Hub.Register(client)
		defer h.boardService.Hub.Unregister(clientID)

		// Send initial connection event
		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\",\"gym_id\":%d}\n\n", clientID, gymID)
		w.Flush()

		// Heartbeat ticker
		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeBoardEvent(w, event)
				w.Flush()

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 Board client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

// writeBoardEvent writes a formatted SSE event to the writer
func writeBoardEvent(w *bufio.Writer, event services.BoardEvent) {
	fmt.Fprintf(w, "event: %s\n", event.Event)

	payload, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintf(w, "data: {}\n\n")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
