package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeMemberRepo keeps roster rows in a map and hands out copies the
// way a real database read would.
type fakeMemberRepo struct {
	members map[uint]*models.Member
}

func newFakeMemberRepo(members ...*models.Member) *fakeMemberRepo {
	repo := &fakeMemberRepo{members: make(map[uint]*models.Member)}
	for _, m := range members {
		repo.members[m.ID] = m
	}
	return repo
}

func (r *fakeMemberRepo) Create(ctx context.Context, member *models.Member) error {
	r.members[member.ID] = member
	return nil
}

func (r *fakeMemberRepo) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMemberRepo) GetByMemberNo(ctx context.Context, gymID uint, memberNo string) (*models.Member, error) {
	for _, m := range r.members {
		if m.GymID == gymID && m.MemberNo == memberNo {
			clone := *m
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMemberRepo) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	for _, m := range r.members {
		if m.UserID != nil && *m.UserID == userID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMemberRepo) Update(ctx context.Context, member *models.Member) error {
	clone := *member
	r.members[member.ID] = &clone
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, id uint) error {
	delete(r.members, id)
	return nil
}

func (r *fakeMemberRepo) List(ctx context.Context, gymID uint, filter repositories.MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	return nil, 0, nil
}

func (r *fakeMemberRepo) CountActive(ctx context.Context, gymID uint) (int64, error) {
	return int64(len(r.members)), nil
}

func (r *fakeMemberRepo) CountByBelt(ctx context.Context, gymID uint) (map[string]int64, error) {
	return nil, nil
}

func (r *fakeMemberRepo) ExistsByMemberNo(ctx context.Context, gymID uint, memberNo string) (bool, error) {
	_, err := r.GetByMemberNo(ctx, gymID, memberNo)
	return err == nil, nil
}

// fakePromotionRepo records commits and mirrors the real transaction:
// the rank move and the history row land together or not at all.
type fakePromotionRepo struct {
	memberRepo *fakeMemberRepo
	rows       []*models.Promotion
	byRequest  map[string]*models.Promotion
	commitErr  error
	commits    int
	nextID     uint

	// requestLookupMisses makes GetByRequestID report NotFound this
	// many times before consulting byRequest (race simulations)
	requestLookupMisses int
}

func newFakePromotionRepo(memberRepo *fakeMemberRepo) *fakePromotionRepo {
	return &fakePromotionRepo{
		memberRepo: memberRepo,
		byRequest:  make(map[string]*models.Promotion),
		nextID:     1,
	}
}

func (r *fakePromotionRepo) CommitPromotion(ctx context.Context, member *models.Member, promotion *models.Promotion) error {
	if r.commitErr != nil {
		return r.commitErr
	}

	stored := r.memberRepo.members[member.ID]
	stored.BeltCode = member.BeltCode
	stored.Stripes = member.Stripes

	promotion.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, promotion)
	if promotion.RequestID != nil {
		r.byRequest[*promotion.RequestID] = promotion
	}
	r.commits++
	return nil
}

func (r *fakePromotionRepo) GetByID(ctx context.Context, id uint) (*models.Promotion, error) {
	for _, p := range r.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePromotionRepo) GetByRequestID(ctx context.Context, requestID string) (*models.Promotion, error) {
	if r.requestLookupMisses > 0 {
		r.requestLookupMisses--
		return nil, gorm.ErrRecordNotFound
	}
	p, ok := r.byRequest[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePromotionRepo) ListByMember(ctx context.Context, memberID uint) ([]*models.Promotion, error) {
	var out []*models.Promotion
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].MemberID == memberID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *fakePromotionRepo) ListByGym(ctx context.Context, gymID uint, offset, limit int) ([]*models.Promotion, int64, error) {
	var out []*models.Promotion
	for _, p := range r.rows {
		if p.GymID == gymID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePromotionRepo) CountSince(ctx context.Context, gymID uint, since time.Time) (int64, error) {
	var count int64
	for _, p := range r.rows {
		if p.GymID == gymID && !p.PromotedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func newTestPromotionService(members ...*models.Member) (*PromotionService, *fakeMemberRepo, *fakePromotionRepo) {
	memberRepo := newFakeMemberRepo(members...)
	promotionRepo := newFakePromotionRepo(memberRepo)
	svc := NewPromotionService(promotionRepo, memberRepo, nil)
	return svc, memberRepo, promotionRepo
}

func testCoach(gymID uint) *models.User {
	return &models.User{ID: 9, Username: "coach_sato", Role: "COACH", GymID: gymID}
}

func TestPromoteStripeAward(t *testing.T) {
	member := &models.Member{ID: 1, GymID: 1, MemberNo: "M0001", FirstName: "Kenta", LastName: "Mori", BeltCode: "WHITE", Stripes: 3}
	svc, memberRepo, promotionRepo := newTestPromotionService(member)

	out, err := svc.Promote(context.Background(), 1, &PromoteInput{
		ToBelt:    "white",
		ToStripes: 4,
		Note:      "consistent attendance, sharp guard retention",
	}, testCoach(1), "203.0.113.7")

	require.NoError(t, err)
	require.NotNil(t, out.Promotion)
	assert.False(t, out.Replayed)

	assert.Equal(t, "WHITE", out.Promotion.FromBeltCode)
	assert.Equal(t, 3, out.Promotion.FromStripes)
	assert.Equal(t, "WHITE", out.Promotion.ToBeltCode)
	assert.Equal(t, 4, out.Promotion.ToStripes)
	assert.Equal(t, uint(9), out.Promotion.PerformedBy)
	assert.Equal(t, "coach_sato", out.Promotion.PerformedByName)
	assert.False(t, out.Promotion.PromotedAt.IsZero())

	// Roster row moved together with the history row
	stored := memberRepo.members[1]
	assert.Equal(t, "WHITE", stored.BeltCode)
	assert.Equal(t, 4, stored.Stripes)
	assert.Equal(t, 1, promotionRepo.commits)
}

func TestPromoteBeltJump(t *testing.T) {
	// Skipping grades is a staff decision the engine must not block
	member := &models.Member{ID: 2, GymID: 1, MemberNo: "M0002", BeltCode: "BLUE", Stripes: 2}
	svc, memberRepo, _ := newTestPromotionService(member)

	out, err := svc.Promote(context.Background(), 2, &PromoteInput{
		ToBelt:    "BROWN",
		ToStripes: 0,
	}, testCoach(1), "")

	require.NoError(t, err)
	assert.Equal(t, "BLUE", out.Promotion.FromBeltCode)
	assert.Equal(t, "BROWN", out.Promotion.ToBeltCode)
	assert.Equal(t, "BROWN", memberRepo.members[2].BeltCode)
}

func TestPromoteRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   PromoteInput
		wantErr error
	}{
		{"same grade", PromoteInput{ToBelt: "PURPLE", ToStripes: 1}, rank.ErrNoChange},
		{"unknown belt", PromoteInput{ToBelt: "RED", ToStripes: 0}, rank.ErrUnknownBelt},
		{"stripes over ceiling", PromoteInput{ToBelt: "PURPLE", ToStripes: 5}, rank.ErrInvalidTarget},
		{"negative stripes", PromoteInput{ToBelt: "BLUE", ToStripes: -1}, rank.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := &models.Member{ID: 3, GymID: 1, MemberNo: "M0003", BeltCode: "PURPLE", Stripes: 1}
			svc, memberRepo, promotionRepo := newTestPromotionService(member)

			out, err := svc.Promote(context.Background(), 3, &tt.input, testCoach(1), "")

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			assert.Nil(t, out)

			// A rejected grading must leave no trace
			assert.Equal(t, "PURPLE", memberRepo.members[3].BeltCode)
			assert.Equal(t, 1, memberRepo.members[3].Stripes)
			assert.Equal(t, 0, promotionRepo.commits)
		})
	}
}

func TestPromoteMemberNotFound(t *testing.T) {
	svc, _, _ := newTestPromotionService()

	out, err := svc.Promote(context.Background(), 42, &PromoteInput{ToBelt: "BLUE"}, testCoach(1), "")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestPromoteCrossGymRejected(t *testing.T) {
	member := &models.Member{ID: 4, GymID: 1, MemberNo: "M0004", BeltCode: "WHITE", Stripes: 0}
	svc, _, promotionRepo := newTestPromotionService(member)

	out, err := svc.Promote(context.Background(), 4, &PromoteInput{ToBelt: "WHITE", ToStripes: 1}, testCoach(2), "")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 0, promotionRepo.commits)
}

func TestPromoteIdempotentReplay(t *testing.T) {
	member := &models.Member{ID: 5, GymID: 1, MemberNo: "M0005", BeltCode: "WHITE", Stripes: 2}
	svc, memberRepo, promotionRepo := newTestPromotionService(member)

	input := &PromoteInput{ToBelt: "WHITE", ToStripes: 3, RequestID: "req-7c1f"}

	first, err := svc.Promote(context.Background(), 5, input, testCoach(1), "")
	require.NoError(t, err)
	require.False(t, first.Replayed)

	// Same request retried: original record, no second commit
	second, err := svc.Promote(context.Background(), 5, input, testCoach(1), "")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Promotion.ID, second.Promotion.ID)
	assert.Equal(t, 1, promotionRepo.commits)
	assert.Equal(t, 3, memberRepo.members[5].Stripes)
}

func TestPromoteCommitFailure(t *testing.T) {
	member := &models.Member{ID: 6, GymID: 1, MemberNo: "M0006", BeltCode: "BROWN", Stripes: 4}
	svc, memberRepo, promotionRepo := newTestPromotionService(member)
	promotionRepo.commitErr = errors.New("deadlock found when trying to get lock")

	out, err := svc.Promote(context.Background(), 6, &PromoteInput{ToBelt: "BLACK", ToStripes: 0}, testCoach(1), "")

	require.Error(t, err)
	assert.Nil(t, out)

	// Failed commit leaves the roster untouched
	assert.Equal(t, "BROWN", memberRepo.members[6].BeltCode)
	assert.Equal(t, 4, memberRepo.members[6].Stripes)
}

func TestPromoteCommitRaceReturnsStoredRow(t *testing.T) {
	// A concurrent retry inserted the request between our replay check
	// and our commit; the loser of the race must surface the stored
	// row instead of an error
	member := &models.Member{ID: 7, GymID: 1, MemberNo: "M0007", BeltCode: "BLUE", Stripes: 0}
	svc, _, promotionRepo := newTestPromotionService(member)

	winner := &models.Promotion{ID: 88, GymID: 1, MemberID: 7, ToBeltCode: "BLUE", ToStripes: 1}
	requestID := "req-race"
	winner.RequestID = &requestID
	promotionRepo.byRequest[requestID] = winner
	promotionRepo.requestLookupMisses = 1
	promotionRepo.commitErr = errors.New("duplicate entry 'req-race' for key 'request_id'")

	out, err := svc.Promote(context.Background(), 7, &PromoteInput{ToBelt: "BLUE", ToStripes: 1, RequestID: requestID}, testCoach(1), "")

	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, uint(88), out.Promotion.ID)
}

func TestNextEligibleSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		belt     string
		stripes  int
		wantNext *rank.State
	}{
		{"mid belt gains stripe", "WHITE", 2, &rank.State{Belt: rank.White, Stripes: 3}},
		{"full stripes moves up", "BROWN", 4, &rank.State{Belt: rank.Black, Stripes: 0}},
		{"terminal grade", "BLACK", 6, nil},
		{"corrupt row yields nothing", "CORAL", 1, nil},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uint(10 + i)
			member := &models.Member{ID: id, GymID: 1, BeltCode: tt.belt, Stripes: tt.stripes}
			svc, _, _ := newTestPromotionService(member)

			out, err := svc.NextEligible(context.Background(), id)
			require.NoError(t, err)

			if tt.wantNext == nil {
				assert.Nil(t, out.Suggestion)
			} else {
				require.NotNil(t, out.Suggestion)
				assert.Equal(t, *tt.wantNext, *out.Suggestion)
			}
		})
	}
}

func TestHistoryMemberNotFound(t *testing.T) {
	svc, _, _ := newTestPromotionService()

	rows, err := svc.History(context.Background(), 404)

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestHistoryNewestFirst(t *testing.T) {
	member := &models.Member{ID: 20, GymID: 1, BeltCode: "WHITE", Stripes: 0}
	svc, _, _ := newTestPromotionService(member)

	for i := 1; i <= 3; i++ {
		_, err := svc.Promote(context.Background(), 20, &PromoteInput{ToBelt: "WHITE", ToStripes: i}, testCoach(1), "")
		require.NoError(t, err)
	}

	rows, err := svc.History(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].ToStripes)
	assert.Equal(t, 1, rows[2].ToStripes)
}
