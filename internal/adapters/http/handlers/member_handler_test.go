package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/config"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubUserRepo serves exactly one account, the acting staff user.
type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		clone := *r.user
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByMemberNo(ctx context.Context, memberNo string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (r *stubUserRepo) Delete(ctx context.Context, id uint) error           { return nil }

func (r *stubUserRepo) List(ctx context.Context, gymID uint, offset, limit int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) CountByRole(ctx context.Context, gymID uint, role string) (int64, error) {
	return 0, nil
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r *stubUserRepo) ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error) {
	return false, nil
}

// stubRosterRepo keeps roster rows in a map, like a one-gym database.
type stubRosterRepo struct {
	members map[uint]*models.Member
}

func newStubRosterRepo(members ...*models.Member) *stubRosterRepo {
	repo := &stubRosterRepo{members: make(map[uint]*models.Member)}
	for _, m := range members {
		repo.members[m.ID] = m
	}
	return repo
}

func (r *stubRosterRepo) Create(ctx context.Context, member *models.Member) error {
	r.members[member.ID] = member
	return nil
}

func (r *stubRosterRepo) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubRosterRepo) GetByMemberNo(ctx context.Context, gymID uint, memberNo string) (*models.Member, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRosterRepo) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRosterRepo) Update(ctx context.Context, member *models.Member) error {
	clone := *member
	r.members[member.ID] = &clone
	return nil
}

func (r *stubRosterRepo) Delete(ctx context.Context, id uint) error {
	delete(r.members, id)
	return nil
}

func (r *stubRosterRepo) List(ctx context.Context, gymID uint, filter repositories.MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	return nil, 0, nil
}

func (r *stubRosterRepo) CountActive(ctx context.Context, gymID uint) (int64, error) {
	return int64(len(r.members)), nil
}

func (r *stubRosterRepo) CountByBelt(ctx context.Context, gymID uint) (map[string]int64, error) {
	return nil, nil
}

func (r *stubRosterRepo) ExistsByMemberNo(ctx context.Context, gymID uint, memberNo string) (bool, error) {
	return false, nil
}

// stubGradingRepo records committed promotions in memory.
type stubGradingRepo struct {
	rosterRepo *stubRosterRepo
	rows       []*models.Promotion
	nextID     uint
}

func newStubGradingRepo(rosterRepo *stubRosterRepo) *stubGradingRepo {
	return &stubGradingRepo{rosterRepo: rosterRepo, nextID: 1}
}

func (r *stubGradingRepo) CommitPromotion(ctx context.Context, member *models.Member, promotion *models.Promotion) error {
	stored := r.rosterRepo.members[member.ID]
	stored.BeltCode = member.BeltCode
	stored.Stripes = member.Stripes

	promotion.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, promotion)
	return nil
}

func (r *stubGradingRepo) GetByID(ctx context.Context, id uint) (*models.Promotion, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradingRepo) GetByRequestID(ctx context.Context, requestID string) (*models.Promotion, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradingRepo) ListByMember(ctx context.Context, memberID uint) ([]*models.Promotion, error) {
	return nil, nil
}

func (r *stubGradingRepo) ListByGym(ctx context.Context, gymID uint, offset, limit int) ([]*models.Promotion, int64, error) {
	var matched []*models.Promotion
	for _, p := range r.rows {
		if p.GymID == gymID {
			matched = append(matched, p)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *stubGradingRepo) CountSince(ctx context.Context, gymID uint, since time.Time) (int64, error) {
	return int64(len(r.rows)), nil
}

// newGradingTestApp mounts the grading endpoints behind a stub auth
// layer that plants the acting user the way AuthMiddleware does.
func newGradingTestApp(actor *models.User, members ...*models.Member) (*fiber.App, *stubGradingRepo) {
	rosterRepo := newStubRosterRepo(members...)
	gradingRepo := newStubGradingRepo(rosterRepo)
	authService := services.NewAuthService(&stubUserRepo{user: actor}, nil, nil, nil, &config.Config{})
	promotionService := services.NewPromotionService(gradingRepo, rosterRepo, nil)
	handler := NewMemberHandler(nil, promotionService, authService)

	asActor := func(c *fiber.Ctx) error {
		c.Locals("userID", actor.ID)
		c.Locals("username", actor.Username)
		c.Locals("role", actor.Role)
		return c.Next()
	}

	app := fiber.New()
	app.Post("/members/:id/promote", asActor, handler.Promote)
	app.Get("/promotions", asActor, handler.RecentPromotions)
	return app, gradingRepo
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*envelope, int) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	env := decodeEnvelope(t, resp.Body)
	return &env, resp.StatusCode
}

func TestPromoteEndpointStripeAward(t *testing.T) {
	actor := &models.User{ID: 9, Username: "coach_sato", Role: "COACH", GymID: 1}
	member := &models.Member{ID: 1, GymID: 1, MemberNo: "M0001", FirstName: "Kenta", LastName: "Mori", BeltCode: "WHITE", Stripes: 3}
	app, gradingRepo := newGradingTestApp(actor, member)

	env, status := postJSON(t, app, "/members/1/promote", `{"to_belt":"white","to_stripes":4,"note":"solid fundamentals"}`)

	require.Equal(t, fiber.StatusCreated, status)
	assert.True(t, env.Success)

	var promoted models.PromotionResponse
	require.NoError(t, json.Unmarshal(env.Data, &promoted))
	assert.Equal(t, "WHITE", promoted.From.Belt)
	assert.Equal(t, 3, promoted.From.Stripes)
	assert.Equal(t, "WHITE", promoted.To.Belt)
	assert.Equal(t, 4, promoted.To.Stripes)
	assert.Equal(t, "coach_sato", promoted.PerformedByName)

	require.Len(t, gradingRepo.rows, 1)
	assert.Equal(t, 4, gradingRepo.rosterRepo.members[1].Stripes)
}

func TestPromoteEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"missing target belt", "/members/1/promote", `{"to_stripes":4}`, fiber.StatusBadRequest},
		{"malformed body", "/members/1/promote", `{`, fiber.StatusBadRequest},
		{"bad member id", "/members/zero/promote", `{"to_belt":"BLUE"}`, fiber.StatusBadRequest},
		{"unknown belt", "/members/1/promote", `{"to_belt":"RED"}`, fiber.StatusBadRequest},
		{"stripes over ceiling", "/members/1/promote", `{"to_belt":"WHITE","to_stripes":5}`, fiber.StatusBadRequest},
		{"no-op grade", "/members/1/promote", `{"to_belt":"WHITE","to_stripes":3}`, fiber.StatusConflict},
		{"member not found", "/members/42/promote", `{"to_belt":"BLUE"}`, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := &models.User{ID: 9, Username: "coach_sato", Role: "COACH", GymID: 1}
			member := &models.Member{ID: 1, GymID: 1, MemberNo: "M0001", BeltCode: "WHITE", Stripes: 3}
			app, gradingRepo := newGradingTestApp(actor, member)

			env, status := postJSON(t, app, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, env.Success)
			assert.Empty(t, gradingRepo.rows)
		})
	}
}

func TestPromoteEndpointCrossGymHidden(t *testing.T) {
	// A coach from another gym gets the same 404 as a missing member
	actor := &models.User{ID: 9, Username: "coach_sato", Role: "COACH", GymID: 2}
	member := &models.Member{ID: 1, GymID: 1, MemberNo: "M0001", BeltCode: "WHITE", Stripes: 0}
	app, _ := newGradingTestApp(actor, member)

	_, status := postJSON(t, app, "/members/1/promote", `{"to_belt":"WHITE","to_stripes":1}`)

	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRecentPromotionsPaginated(t *testing.T) {
	actor := &models.User{ID: 9, Username: "coach_sato", Role: "COACH", GymID: 1}
	member := &models.Member{ID: 1, GymID: 1, MemberNo: "M0001", BeltCode: "WHITE", Stripes: 0}
	app, _ := newGradingTestApp(actor, member)

	for i := 1; i <= 3; i++ {
		_, status := postJSON(t, app, "/members/1/promote", fmt.Sprintf(`{"to_belt":"WHITE","to_stripes":%d}`, i))
		require.Equal(t, fiber.StatusCreated, status)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/promotions?page=1&limit=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)

	var page struct {
		Data []models.PromotionResponse `json:"data"`
		Meta struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
			HasPrev    bool  `json:"has_prev"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))

	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)
	assert.False(t, page.Meta.HasPrev)
}
