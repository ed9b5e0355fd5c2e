package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/plan"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"
)

// DashboardService aggregates role-specific home screens straight off
// the database
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// BeltCount is one slice of the belt distribution chart
type BeltCount struct {
	BeltCode  string `json:"belt_code"`
	BeltLabel string `json:"belt_label"`
	Count     int64  `json:"count"`
}

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// Roster
	ActiveMembers int64       `json:"active_members"`
	MemberLimit   int         `json:"member_limit"`
	MembersByBelt []BeltCount `json:"members_by_belt"`

	// Today on the mat
	SessionsToday int64 `json:"sessions_today"`
	CheckinsToday int64 `json:"checkins_today"`

	// This month
	PromotionsThisMonth int64 `json:"promotions_this_month"`
	WaiversThisMonth    int64 `json:"waivers_this_month"`

	// Plan
	PlanCode           string `json:"plan_code"`
	SubscriptionStatus string `json:"subscription_status"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context, gymID uint) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	s.db.WithContext(ctx).Table("members").
		Where("gym_id = ? AND is_active = ? AND deleted_at IS NULL", gymID, true).
		Count(&data.ActiveMembers)

	// Belt distribution in grade order
	var rows []struct {
		BeltCode string
		Count    int64
	}
	s.db.WithContext(ctx).Table("members").
		Select("belt_code, COUNT(*) AS count").
		Where("gym_id = ? AND is_active = ? AND deleted_at IS NULL", gymID, true).
		Group("belt_code").
		Scan(&rows)
	byBelt := make(map[string]int64, len(rows))
	for _, row := range rows {
		byBelt[row.BeltCode] = row.Count
	}
	for _, info := range rank.Belts() {
		data.MembersByBelt = append(data.MembersByBelt, BeltCount{
			BeltCode:  string(info.Code),
			BeltLabel: info.Label,
			Count:     byBelt[string(info.Code)],
		})
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	s.db.WithContext(ctx).Table("class_sessions").
		Where("gym_id = ? AND starts_at >= ? AND starts_at < ? AND deleted_at IS NULL", gymID, dayStart, dayEnd).
		Count(&data.SessionsToday)

	s.db.WithContext(ctx).Table("attendances").
		Where("gym_id = ? AND checked_in_at >= ? AND checked_in_at < ?", gymID, dayStart, dayEnd).
		Count(&data.CheckinsToday)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	s.db.WithContext(ctx).Table("promotions").
		Where("gym_id = ? AND promoted_at >= ?", gymID, monthStart).
		Count(&data.PromotionsThisMonth)

	s.db.WithContext(ctx).Table("waivers").
		Where("gym_id = ? AND signed_at >= ? AND deleted_at IS NULL", gymID, monthStart).
		Count(&data.WaiversThisMonth)

	// Plan standing
	var gym models.Gym
	if err := s.db.WithContext(ctx).First(&gym, gymID).Error; err != nil {
		return nil, err
	}
	data.PlanCode = gym.PlanCode
	if tier, err := plan.ParseTier(gym.PlanCode); err == nil {
		data.MemberLimit, _ = plan.Limit(tier, plan.Members)
	}

	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("gym_id = ?", gymID).
		Order("started_at DESC").
		First(&sub).Error
	switch {
	case err == nil:
		data.SubscriptionStatus = sub.Status
	case errors.Is(err, gorm.ErrRecordNotFound):
		data.SubscriptionStatus = ""
	default:
		return nil, err
	}

	return data, nil
}

// ============================================================
// Coach Dashboard
// ============================================================

// CoachDashboardData represents coach dashboard data
type CoachDashboardData struct {
	SessionsToday    []*models.ClassSessionResponse `json:"sessions_today"`
	UpcomingSessions []*models.ClassSessionResponse `json:"upcoming_sessions"`
	RecentPromotions []*models.PromotionResponse    `json:"recent_promotions"`
	ReadyForBelt     []*models.MemberResponse       `json:"ready_for_belt"`
}

// GetCoachDashboard returns coach dashboard data
func (s *DashboardService) GetCoachDashboard(ctx context.Context, gymID, coachID uint) (*CoachDashboardData, error) {
	data := &CoachDashboardData{
		SessionsToday:    []*models.ClassSessionResponse{},
		UpcomingSessions: []*models.ClassSessionResponse{},
		RecentPromotions: []*models.PromotionResponse{},
		ReadyForBelt:     []*models.MemberResponse{},
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var today []models.ClassSession
	s.db.WithContext(ctx).
		Preload("Coach").
		Where("gym_id = ? AND starts_at >= ? AND starts_at < ?", gymID, dayStart, dayEnd).
		Order("starts_at ASC").
		Find(&today)
	for i := range today {
		data.SessionsToday = append(data.SessionsToday, today[i].ToResponse(s.headcount(ctx, today[i].ID)))
	}

	var upcoming []models.ClassSession
	s.db.WithContext(ctx).
		Preload("Coach").
		Where("coach_id = ? AND starts_at >= ? AND status = ?", coachID, dayEnd, "SCHEDULED").
		Order("starts_at ASC").
		Limit(5).
		Find(&upcoming)
	for i := range upcoming {
		data.UpcomingSessions = append(data.UpcomingSessions, upcoming[i].ToResponse(s.headcount(ctx, upcoming[i].ID)))
	}

	var promotions []models.Promotion
	s.db.WithContext(ctx).
		Preload("Member").
		Where("gym_id = ?", gymID).
		Order("promoted_at DESC, id DESC").
		Limit(5).
		Find(&promotions)
	for i := range promotions {
		data.RecentPromotions = append(data.RecentPromotions, promotions[i].ToResponse())
	}

	// Members sitting at max stripes: the next award is a belt
	for _, info := range rank.Belts() {
		if !beltAwardNext(info) {
			continue
		}
		var members []models.Member
		s.db.WithContext(ctx).
			Where("gym_id = ? AND belt_code = ? AND stripes >= ? AND is_active = ? AND deleted_at IS NULL",
				gymID, string(info.Code), info.MaxStripes, true).
			Order("updated_at ASC").
			Find(&members)
		for i := range members {
			data.ReadyForBelt = append(data.ReadyForBelt, members[i].ToResponse())
		}
	}

	return data, nil
}

// beltAwardNext reports whether members at this belt's stripe ceiling
// are waiting on a belt award rather than another stripe. The terminal
// belt never qualifies.
func beltAwardNext(info rank.Info) bool {
	if info.MaxStripes == 0 {
		return false
	}
	return !rank.IsTerminal(rank.State{Belt: info.Code, Stripes: info.MaxStripes})
}

func (s *DashboardService) headcount(ctx context.Context, sessionID uint) int {
	var count int64
	s.db.WithContext(ctx).Table("attendances").
		Where("session_id = ?", sessionID).
		Count(&count)
	return int(count)
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData represents a member's own home screen
type MemberDashboardData struct {
	Member           *models.MemberResponse       `json:"member"`
	NextEligible     *models.RankView             `json:"next_eligible,omitempty"`
	AttendanceCount  int64                        `json:"attendance_30d"`
	RecentAttendance []*models.AttendanceResponse `json:"recent_attendance"`
	RecentPromotions []*models.PromotionResponse  `json:"recent_promotions"`
	ActiveNotices    int64                        `json:"active_notices"`
}

// GetMemberDashboard returns the dashboard for a linked roster member
func (s *DashboardService) GetMemberDashboard(ctx context.Context, userID uint) (*MemberDashboardData, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRosterLink
		}
		return nil, err
	}

	data := &MemberDashboardData{
		Member:           member.ToResponse(),
		RecentAttendance: []*models.AttendanceResponse{},
		RecentPromotions: []*models.PromotionResponse{},
	}

	if next, ok := rank.NextEligible(member.RankState()); ok {
		view := models.NewRankView(string(next.Belt), next.Stripes)
		data.NextEligible = &view
	}

	since := time.Now().AddDate(0, 0, -30)
	s.db.WithContext(ctx).Table("attendances").
		Where("member_id = ? AND checked_in_at >= ?", member.ID, since).
		Count(&data.AttendanceCount)

	var attendance []models.Attendance
	s.db.WithContext(ctx).
		Preload("Session").
		Where("member_id = ?", member.ID).
		Order("checked_in_at DESC").
		Limit(5).
		Find(&attendance)
	for i := range attendance {
		data.RecentAttendance = append(data.RecentAttendance, attendance[i].ToResponse())
	}

	var promotions []models.Promotion
	s.db.WithContext(ctx).
		Where("member_id = ?", member.ID).
		Order("promoted_at DESC, id DESC").
		Limit(5).
		Find(&promotions)
	for i := range promotions {
		data.RecentPromotions = append(data.RecentPromotions, promotions[i].ToResponse())
	}

	now := time.Now()
	s.db.WithContext(ctx).Table("notices").
		Where("gym_id = ? AND publish_at <= ? AND (expire_at IS NULL OR expire_at > ?) AND deleted_at IS NULL",
			member.GymID, now, now).
		Count(&data.ActiveNotices)

	return data, nil
}
