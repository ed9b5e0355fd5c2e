package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Timetable & Attendance Tables
// ============================================================

// ClassTemplate 週間クラス雛形 — one row per recurring weekly slot.
// Weekday follows time.Weekday (0 = Sunday).
type ClassTemplate struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GymID       uint           `gorm:"not null;index" json:"gym_id"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Discipline  string         `gorm:"size:20;default:'GI'" json:"discipline"`
	Weekday     int            `gorm:"not null" json:"weekday"`
	StartTime   string         `gorm:"size:10;not null" json:"start_time"`
	DurationMin int            `gorm:"not null;default:60" json:"duration_min"`
	CoachID     *uint          `gorm:"index" json:"coach_id"`
	Capacity    int            `gorm:"not null;default:20" json:"capacity"`
	Level       string         `gorm:"size:20;default:'ALL'" json:"level"`
	Location    string         `gorm:"size:100" json:"location"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Coach *User `gorm:"foreignKey:CoachID" json:"coach,omitempty"`
}

func (ClassTemplate) TableName() string {
	return "class_templates"
}

// ClassSession クラス実施回 — a concrete dated occurrence. Template
// sessions carry their origin; one-off sessions have a nil TemplateID.
// The template+start unique index keeps week generation idempotent.
type ClassSession struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	GymID        uint           `gorm:"not null;index" json:"gym_id"`
	TemplateID   *uint          `gorm:"uniqueIndex:idx_template_start" json:"template_id"`
	Title        string         `gorm:"size:100;not null" json:"title"`
	Discipline   string         `gorm:"size:20;default:'GI'" json:"discipline"`
	StartsAt     time.Time      `gorm:"not null;index;uniqueIndex:idx_template_start" json:"starts_at"`
	EndsAt       time.Time      `gorm:"not null" json:"ends_at"`
	CoachID      *uint          `gorm:"index" json:"coach_id"`
	Capacity     int            `gorm:"not null;default:20" json:"capacity"`
	Level        string         `gorm:"size:20;default:'ALL'" json:"level"`
	Location     string         `gorm:"size:100" json:"location"`
	Status       string         `gorm:"size:20;default:'SCHEDULED';index" json:"status"`
	CancelReason *string        `gorm:"size:255" json:"cancel_reason"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Template *ClassTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Coach    *User          `gorm:"foreignKey:CoachID" json:"coach,omitempty"`
}

func (ClassSession) TableName() string {
	return "class_sessions"
}

func (s *ClassSession) IsUpcoming(now time.Time) bool {
	return s.Status == "SCHEDULED" && now.Before(s.StartsAt)
}

// CheckinOpen reports whether check-in is accepted for this session:
// from 30 minutes before start until the scheduled end.
func (s *ClassSession) CheckinOpen(now time.Time) bool {
	if s.Status != "SCHEDULED" {
		return false
	}
	open := s.StartsAt.Add(-30 * time.Minute)
	return !now.Before(open) && now.Before(s.EndsAt)
}

// ClassSessionResponse DTO
type ClassSessionResponse struct {
	ID            uint      `json:"id"`
	GymID         uint      `json:"gym_id"`
	TemplateID    *uint     `json:"template_id,omitempty"`
	Title         string    `json:"title"`
	Discipline    string    `json:"discipline"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	CoachID       *uint     `json:"coach_id,omitempty"`
	CoachName     string    `json:"coach_name,omitempty"`
	Capacity      int       `json:"capacity"`
	Level         string    `json:"level"`
	Location      string    `json:"location,omitempty"`
	Status        string    `json:"status"`
	CancelReason  *string   `json:"cancel_reason,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
}

func (s *ClassSession) ToResponse(attendeeCount int) *ClassSessionResponse {
	resp := &ClassSessionResponse{
		ID:            s.ID,
		GymID:         s.GymID,
		TemplateID:    s.TemplateID,
		Title:         s.Title,
		Discipline:    s.Discipline,
		StartsAt:      s.StartsAt,
		EndsAt:        s.EndsAt,
		CoachID:       s.CoachID,
		Capacity:      s.Capacity,
		Level:         s.Level,
		Location:      s.Location,
		Status:        s.Status,
		CancelReason:  s.CancelReason,
		AttendeeCount: attendeeCount,
	}
	if s.Coach != nil {
		resp.CoachName = s.Coach.Username
	}
	return resp
}

// Attendance 出席記録 — one row per member per session, written at
// check-in time. The session+member unique index rejects double
// check-ins at the database even under concurrent kiosk taps.
type Attendance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GymID       uint      `gorm:"not null;index" json:"gym_id"`
	SessionID   uint      `gorm:"not null;uniqueIndex:idx_session_member" json:"session_id"`
	MemberID    uint      `gorm:"not null;uniqueIndex:idx_session_member;index" json:"member_id"`
	Method      string    `gorm:"size:20;default:'FRONT_DESK'" json:"method"`
	CheckedInAt time.Time `gorm:"not null" json:"checked_in_at"`
	CheckedInBy *uint     `json:"checked_in_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Session *ClassSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Member  *Member       `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// AttendanceResponse DTO
type AttendanceResponse struct {
	ID          uint      `json:"id"`
	SessionID   uint      `json:"session_id"`
	MemberID    uint      `json:"member_id"`
	MemberNo    string    `json:"member_no,omitempty"`
	MemberName  string    `json:"member_name,omitempty"`
	Rank        *RankView `json:"rank,omitempty"`
	Method      string    `json:"method"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

func (a *Attendance) ToResponse() *AttendanceResponse {
	resp := &AttendanceResponse{
		ID:          a.ID,
		SessionID:   a.SessionID,
		MemberID:    a.MemberID,
		Method:      a.Method,
		CheckedInAt: a.CheckedInAt,
	}
	if a.Member != nil {
		resp.MemberNo = a.Member.MemberNo
		resp.MemberName = a.Member.FullName()
		view := NewRankView(a.Member.BeltCode, a.Member.Stripes)
		resp.Rank = &view
	}
	return resp
}
