package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleCoach  Role = "COACH"
	RoleAdmin  Role = "ADMIN"
)

// IsStaff reports whether the role may manage rosters and gradings.
func (r Role) IsStaff() bool {
	return r == RoleCoach || r == RoleAdmin
}

// User represents a login account in the domain layer
type User struct {
	ID        uint
	MemberNo  string // Maps to the roster's member number
	Username  string
	Email     string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionStatus values for a scheduled class instance.
const (
	SessionScheduled = "SCHEDULED"
	SessionCancelled = "CANCELLED"
	SessionCompleted = "COMPLETED"
)

// Check-in methods recorded on attendance rows.
const (
	CheckinFrontDesk = "FRONT_DESK"
	CheckinSelf      = "SELF"
)

// Notice types and audiences.
const (
	NoticeInfo   = "INFO"
	NoticeEvent  = "EVENT"
	NoticeUrgent = "URGENT"

	AudienceAll     = "ALL"
	AudienceMembers = "MEMBERS"
	AudienceCoaches = "COACHES"
)

// Subscription statuses. Renewal is a bookkeeping sweep, not a payment.
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionPastDue   = "PAST_DUE"
	SubscriptionCancelled = "CANCELLED"
)
