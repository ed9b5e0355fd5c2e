package models

import (
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MemberNo  string         `gorm:"uniqueIndex;size:20;not null" json:"member_no"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	GymID     uint           `gorm:"index;not null;default:1" json:"gym_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	MemberNo  string    `json:"member_no"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	GymID     uint      `json:"gym_id"`
	IsActive  bool      `json:"is_active"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		MemberNo:  u.MemberNo,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		GymID:     u.GymID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Tenancy & Master Tables
// ============================================================

// Gym 道場 (tenant)
type Gym struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Address   *string        `gorm:"size:255" json:"address"`
	Phone     *string        `gorm:"size:20" json:"phone"`
	OpenTime  *string        `gorm:"size:10;default:'09:00'" json:"open_time"`
	CloseTime *string        `gorm:"size:10;default:'22:00'" json:"close_time"`
	Timezone  string         `gorm:"size:40;default:'Asia/Tokyo'" json:"timezone"`
	PlanCode  string         `gorm:"size:20;default:'FREE'" json:"plan_code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Gym) TableName() string {
	return "gyms"
}

// GymConfig per-gym key/value settings
type GymConfig struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	GymID       uint   `gorm:"not null;index" json:"gym_id"`
	ConfigKey   string `gorm:"size:50;not null" json:"config_key"`
	ConfigValue string `gorm:"size:255;not null" json:"config_value"`
	Description string `gorm:"size:255" json:"description"`
	Gym         Gym    `gorm:"foreignKey:GymID" json:"gym,omitempty"`
}

func (GymConfig) TableName() string {
	return "gym_config"
}

// Belt 帯マスタ (Master) — display metadata seeded from the rank table;
// the in-code table stays authoritative, rows here are read-only.
type Belt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Code       string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Color      string    `gorm:"size:20" json:"color"`
	BeltOrder  int       `gorm:"not null" json:"belt_order"`
	MaxStripes int       `gorm:"not null" json:"max_stripes"`
	IsTerminal bool      `gorm:"default:false" json:"is_terminal"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Belt) TableName() string {
	return "belts"
}

// Plan 料金プラン (Master) — seeded from the plan quota table.
type Plan struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Code              string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	PriceMonthly      int       `gorm:"not null" json:"price_monthly"`
	MaxMembers        int       `gorm:"not null" json:"max_members"`
	MaxCoaches        int       `gorm:"not null" json:"max_coaches"`
	MaxClassesPerWeek int       `gorm:"not null" json:"max_classes_per_week"`
	MaxNoticesActive  int       `gorm:"not null" json:"max_notices_active"`
	DisplayOrder      int       `gorm:"default:0" json:"display_order"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// ============================================================
// Roster & Grading Tables
// ============================================================

// Member 会員名簿 (roster)
type Member struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	GymID            uint           `gorm:"not null;uniqueIndex:idx_gym_member_no" json:"gym_id"`
	MemberNo         string         `gorm:"size:20;not null;uniqueIndex:idx_gym_member_no" json:"member_no"`
	FirstName        string         `gorm:"size:50;not null" json:"first_name"`
	LastName         string         `gorm:"size:50;not null" json:"last_name"`
	Email            string         `gorm:"size:100;index" json:"email"`
	Phone            string         `gorm:"size:30" json:"phone"`
	DateOfBirth      *time.Time     `gorm:"type:date" json:"date_of_birth"`
	EmergencyContact string         `gorm:"size:200" json:"emergency_contact"`
	BeltCode         string         `gorm:"size:20;not null;default:'WHITE'" json:"belt_code"`
	Stripes          int            `gorm:"not null;default:0" json:"stripes"`
	JoinedAt         time.Time      `gorm:"type:date;not null" json:"joined_at"`
	UserID           *uint          `gorm:"index" json:"user_id"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Gym  *Gym  `gorm:"foreignKey:GymID" json:"gym,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// RankState returns the member's current grade for the progression engine.
func (m *Member) RankState() rank.State {
	return rank.State{Belt: rank.Belt(m.BeltCode), Stripes: m.Stripes}
}

// FullName joins the roster name for display and notifications.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// RankView DTO for the nested rank object in responses
type RankView struct {
	Belt      string `json:"belt"`
	Stripes   int    `json:"stripes"`
	BeltLabel string `json:"belt_label,omitempty"`
	BeltColor string `json:"belt_color,omitempty"`
}

// NewRankView resolves display metadata from the in-code belt table.
func NewRankView(beltCode string, stripes int) RankView {
	view := RankView{Belt: beltCode, Stripes: stripes}
	if info, ok := rank.Lookup(rank.Belt(beltCode)); ok {
		view.BeltLabel = info.Label
		view.BeltColor = info.Color
	}
	return view
}

// MemberResponse DTO
type MemberResponse struct {
	ID               uint       `json:"id"`
	GymID            uint       `json:"gym_id"`
	MemberNo         string     `json:"member_no"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	Rank             RankView   `json:"rank"`
	JoinedAt         time.Time  `json:"joined_at"`
	HasAccount       bool       `json:"has_account"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:               m.ID,
		GymID:            m.GymID,
		MemberNo:         m.MemberNo,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            m.Phone,
		DateOfBirth:      m.DateOfBirth,
		EmergencyContact: m.EmergencyContact,
		Rank:             NewRankView(m.BeltCode, m.Stripes),
		JoinedAt:         m.JoinedAt,
		HasAccount:       m.UserID != nil,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// Promotion 昇帯履歴 — append-only grading history. Rows are written
// inside the same transaction that moves the member's current rank and
// are never updated or deleted afterwards.
type Promotion struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GymID           uint      `gorm:"not null;index" json:"gym_id"`
	MemberID        uint      `gorm:"not null;index" json:"member_id"`
	FromBeltCode    string    `gorm:"size:20;not null" json:"from_belt_code"`
	FromStripes     int       `gorm:"not null" json:"from_stripes"`
	ToBeltCode      string    `gorm:"size:20;not null" json:"to_belt_code"`
	ToStripes       int       `gorm:"not null" json:"to_stripes"`
	PromotedAt      time.Time `gorm:"not null;index" json:"promoted_at"`
	PerformedBy     uint      `gorm:"not null" json:"performed_by"`
	PerformedByName string    `gorm:"size:100" json:"performed_by_name"`
	Note            string    `gorm:"size:500" json:"note"`
	RequestID       *string   `gorm:"size:36;uniqueIndex" json:"request_id,omitempty"`
	IPAddress       string    `gorm:"size:50" json:"ip_address"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Member    *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Performer *User   `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
}

func (Promotion) TableName() string {
	return "promotions"
}

// PromotionResponse DTO
type PromotionResponse struct {
	ID              uint      `json:"id"`
	MemberID        uint      `json:"member_id"`
	MemberName      string    `json:"member_name,omitempty"`
	From            RankView  `json:"from"`
	To              RankView  `json:"to"`
	PromotedAt      time.Time `json:"promoted_at"`
	PerformedBy     uint      `json:"performed_by"`
	PerformedByName string    `json:"performed_by_name"`
	Note            string    `json:"note,omitempty"`
}

func (p *Promotion) ToResponse() *PromotionResponse {
	resp := &PromotionResponse{
		ID:              p.ID,
		MemberID:        p.MemberID,
		From:            NewRankView(p.FromBeltCode, p.FromStripes),
		To:              NewRankView(p.ToBeltCode, p.ToStripes),
		PromotedAt:      p.PromotedAt,
		PerformedBy:     p.PerformedBy,
		PerformedByName: p.PerformedByName,
		Note:            p.Note,
	}
	if p.Member != nil {
		resp.MemberName = p.Member.FullName()
	}
	return resp
}

// ============================================================
// Notices & Waivers
// ============================================================

// Notice お知らせ
type Notice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GymID     uint           `gorm:"not null;index" json:"gym_id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Type      string         `gorm:"size:20;default:'INFO'" json:"type"`
	Audience  string         `gorm:"size:20;default:'ALL'" json:"audience"`
	PublishAt time.Time      `gorm:"not null;index" json:"publish_at"`
	ExpireAt  *time.Time     `gorm:"index" json:"expire_at"`
	IsPinned  bool           `gorm:"default:false" json:"is_pinned"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Author *User `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`
}

func (Notice) TableName() string {
	return "notices"
}

// Notice UI statuses — computed from the clock, never stored.
const (
	NoticeStatusActive    = "active"
	NoticeStatusScheduled = "scheduled"
	NoticeStatusExpired   = "expired"
)

// UiStatus derives the display state from publish/expire times.
func (n *Notice) UiStatus(now time.Time) string {
	if now.Before(n.PublishAt) {
		return NoticeStatusScheduled
	}
	if n.ExpireAt != nil && now.After(*n.ExpireAt) {
		return NoticeStatusExpired
	}
	return NoticeStatusActive
}

// VisibleTo reports whether a role may read this notice. Staff see
// everything; the COACHES audience is hidden from plain members.
func (n *Notice) VisibleTo(role string) bool {
	if n.Audience == "COACHES" {
		return role == "COACH" || role == "ADMIN"
	}
	return true
}

// NoticeResponse DTO
type NoticeResponse struct {
	ID         uint       `json:"id"`
	GymID      uint       `json:"gym_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Type       string     `json:"type"`
	Audience   string     `json:"audience"`
	PublishAt  time.Time  `json:"publish_at"`
	ExpireAt   *time.Time `json:"expire_at,omitempty"`
	IsPinned   bool       `json:"is_pinned"`
	UiStatus   string     `json:"ui_status"`
	AuthorName string     `json:"author_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (n *Notice) ToResponse(now time.Time) *NoticeResponse {
	resp := &NoticeResponse{
		ID:        n.ID,
		GymID:     n.GymID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		Audience:  n.Audience,
		PublishAt: n.PublishAt,
		ExpireAt:  n.ExpireAt,
		IsPinned:  n.IsPinned,
		UiStatus:  n.UiStatus(now),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Author != nil {
		resp.AuthorName = n.Author.Username
	}
	return resp
}

// Waiver 誓約書 — visitor liability waiver, signed from the public
// endpoint. Voiding is a soft delete so the signed fact stays on record.
type Waiver struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	GymID            uint           `gorm:"not null;index" json:"gym_id"`
	Reference        string         `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	VisitorName      string         `gorm:"size:100;not null" json:"visitor_name"`
	VisitorEmail     string         `gorm:"size:100;index" json:"visitor_email"`
	VisitorPhone     string         `gorm:"size:30" json:"visitor_phone"`
	DateOfBirth      *time.Time     `gorm:"type:date" json:"date_of_birth"`
	EmergencyContact string         `gorm:"size:200" json:"emergency_contact"`
	DocumentVersion  string         `gorm:"size:20;not null" json:"document_version"`
	SignatureName    string         `gorm:"size:100;not null" json:"signature_name"`
	SignedAt         time.Time      `gorm:"not null" json:"signed_at"`
	ExpiresAt        time.Time      `gorm:"not null;index" json:"expires_at"`
	EmailSentAt      *time.Time     `json:"email_sent_at"`
	IPAddress        string         `gorm:"size:50" json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Gym *Gym `gorm:"foreignKey:GymID" json:"gym,omitempty"`
}

func (Waiver) TableName() string {
	return "waivers"
}

// IsValid reports whether the waiver still covers a visit at now.
func (w *Waiver) IsValid(now time.Time) bool {
	return now.Before(w.ExpiresAt)
}

// WaiverResponse DTO
type WaiverResponse struct {
	ID              uint      `json:"id"`
	GymID           uint      `json:"gym_id"`
	Reference       string    `json:"reference"`
	VisitorName     string    `json:"visitor_name"`
	VisitorEmail    string    `json:"visitor_email"`
	VisitorPhone    string    `json:"visitor_phone,omitempty"`
	DocumentVersion string    `json:"document_version"`
	SignedAt        time.Time `json:"signed_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsValid         bool      `json:"is_valid"`
}

func (w *Waiver) ToResponse(now time.Time) *WaiverResponse {
	return &WaiverResponse{
		ID:              w.ID,
		GymID:           w.GymID,
		Reference:       w.Reference,
		VisitorName:     w.VisitorName,
		VisitorEmail:    w.VisitorEmail,
		VisitorPhone:    w.VisitorPhone,
		DocumentVersion: w.DocumentVersion,
		SignedAt:        w.SignedAt,
		ExpiresAt:       w.ExpiresAt,
		IsValid:         w.IsValid(now),
	}
}

// Subscription 契約 — one row per gym per plan period. Renewal is a
// bookkeeping sweep; no payment provider is called from this system.
type Subscription struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	GymID       uint       `gorm:"not null;index" json:"gym_id"`
	PlanCode    string     `gorm:"size:20;not null" json:"plan_code"`
	Status      string     `gorm:"size:20;default:'ACTIVE';index" json:"status"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	RenewsAt    time.Time  `gorm:"not null;index" json:"renews_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Gym *Gym `gorm:"foreignKey:GymID" json:"gym,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth
		&User{},
		&RefreshToken{},
		// Tenancy & masters
		&Gym{},
		&GymConfig{},
		&Belt{},
		&Plan{},
		// Roster & grading
		&Member{},
		&Promotion{},
		// Notices & waivers
		&Notice{},
		&Waiver{},
		&Subscription{},
		// Timetable & attendance
		&ClassTemplate{},
		&ClassSession{},
		&Attendance{},
	)
}
