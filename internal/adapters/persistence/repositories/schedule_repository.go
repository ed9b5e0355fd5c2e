package repositories

import (
	"context"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ClassTemplateRepository handles weekly timetable template data access
type ClassTemplateRepository struct {
	db *gorm.DB
}

// NewClassTemplateRepository creates a new class template repository
func NewClassTemplateRepository(db *gorm.DB) *ClassTemplateRepository {
	return &ClassTemplateRepository{db: db}
}

// Create creates a new class template
func (r *ClassTemplateRepository) Create(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// GetByID gets a template by ID
func (r *ClassTemplateRepository) GetByID(ctx context.Context, id uint) (*models.ClassTemplate, error) {
	var template models.ClassTemplate
	err := r.db.WithContext(ctx).Preload("Coach").First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListByGym lists active templates of a gym in timetable order
func (r *ClassTemplateRepository) ListByGym(ctx context.Context, gymID uint) ([]*models.ClassTemplate, error) {
	var templates []*models.ClassTemplate
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("gym_id = ?", gymID).
		Where("is_active = ?", true).
		Order("weekday ASC, start_time ASC").
		Find(&templates).Error
	return templates, err
}

// CountActive counts active templates of a gym (plan quota checks)
func (r *ClassTemplateRepository) CountActive(ctx context.Context, gymID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassTemplate{}).
		Where("gym_id = ?", gymID).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// Update updates a template
func (r *ClassTemplateRepository) Update(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// Delete soft deletes a template
func (r *ClassTemplateRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ClassTemplate{}, id).Error
}

// ClassSessionRepository handles dated class occurrence data access
type ClassSessionRepository struct {
	db *gorm.DB
}

// NewClassSessionRepository creates a new class session repository
func NewClassSessionRepository(db *gorm.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// Create creates a new session
func (r *ClassSessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID gets a session by ID with relations
func (r *ClassSessionRepository) GetByID(ctx context.Context, id uint) (*models.ClassSession, error) {
	var session models.ClassSession
	err := r.db.WithContext(ctx).
		Preload("Template").
		Preload("Coach").
		First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ExistsForTemplateAt checks whether a template occurrence already
// exists at the given start (week generation is a seed-if-missing loop)
func (r *ClassSessionRepository) ExistsForTemplateAt(ctx context.Context, templateID uint, startsAt time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("template_id = ?", templateID).
		Where("starts_at = ?", startsAt).
		Count(&count).Error
	return count > 0, err
}

// ListByGymRange lists sessions of a gym inside [from, to)
func (r *ClassSessionRepository) ListByGymRange(ctx context.Context, gymID uint, from, to time.Time) ([]*models.ClassSession, error) {
	var sessions []*models.ClassSession
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("gym_id = ?", gymID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListUpcoming lists the next scheduled sessions of a gym
func (r *ClassSessionRepository) ListUpcoming(ctx context.Context, gymID uint, now time.Time, limit int) ([]*models.ClassSession, error) {
	var sessions []*models.ClassSession
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("gym_id = ?", gymID).
		Where("status = ?", "SCHEDULED").
		Where("starts_at >= ?", now).
		Order("starts_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// ListByCoach lists sessions led by a coach inside [from, to)
func (r *ClassSessionRepository) ListByCoach(ctx context.Context, coachID uint, from, to time.Time) ([]*models.ClassSession, error) {
	var sessions []*models.ClassSession
	err := r.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListStartingBetween lists scheduled sessions across all gyms starting
// inside [from, to) (reminder job)
func (r *ClassSessionRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.ClassSession, error) {
	var sessions []*models.ClassSession
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("status = ?", "SCHEDULED").
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// Update updates a session
func (r *ClassSessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// CompleteFinished marks scheduled sessions whose end has passed as
// completed (nightly sweep). Returns the number of rows moved.
func (r *ClassSessionRepository) CompleteFinished(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("status = ?", "SCHEDULED").
		Where("ends_at < ?", now).
		Update("status", "COMPLETED")
	return result.RowsAffected, result.Error
}

// CountInRange counts sessions of a gym inside [from, to) (plan quota checks)
func (r *ClassSessionRepository) CountInRange(ctx context.Context, gymID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("gym_id = ?", gymID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Where("status <> ?", "CANCELLED").
		Count(&count).Error
	return count, err
}

// AttendanceRepository handles check-in data access
type AttendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create creates a check-in row
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

// Delete removes a check-in row (front desk correction)
func (r *AttendanceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Attendance{}, id).Error
}

// GetByID gets a check-in by ID
func (r *AttendanceRepository) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var attendance models.Attendance
	err := r.db.WithContext(ctx).First(&attendance, id).Error
	if err != nil {
		return nil, err
	}
	return &attendance, nil
}

// Exists checks whether a member is already checked in to a session
func (r *AttendanceRepository) Exists(ctx context.Context, sessionID, memberID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("session_id = ?", sessionID).
		Where("member_id = ?", memberID).
		Count(&count).Error
	return count > 0, err
}

// ListBySession lists check-ins of a session in arrival order
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID uint) ([]*models.Attendance, error) {
	var attendances []*models.Attendance
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("session_id = ?", sessionID).
		Order("checked_in_at ASC").
		Find(&attendances).Error
	return attendances, err
}

// CountBySession counts check-ins of a session
func (r *AttendanceRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// CountForSessions counts check-ins for a set of sessions in one query
func (r *AttendanceRepository) CountForSessions(ctx context.Context, sessionIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	type row struct {
		SessionID uint
		Count     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Select("session_id, COUNT(*) as count").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.SessionID] = r.Count
	}
	return counts, nil
}

// ListByMember lists a member's check-in history with pagination
func (r *AttendanceRepository) ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Attendance, int64, error) {
	var attendances []*models.Attendance
	var total int64

	r.db.WithContext(ctx).Model(&models.Attendance{}).Where("member_id = ?", memberID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("member_id = ?", memberID).
		Order("checked_in_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&attendances).Error

	return attendances, total, err
}

// CountByMemberSince counts a member's check-ins since a point in time
func (r *AttendanceRepository) CountByMemberSince(ctx context.Context, memberID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("member_id = ?", memberID).
		Where("checked_in_at >= ?", since).
		Count(&count).Error
	return count, err
}

// CountByGymSince counts a gym's check-ins since a point in time
func (r *AttendanceRepository) CountByGymSince(ctx context.Context, gymID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("gym_id = ?", gymID).
		Where("checked_in_at >= ?", since).
		Count(&count).Error
	return count, err
}
