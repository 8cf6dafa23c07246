package models

import "time"

// SubmissionStatus tracks a submission through its lifecycle.
type SubmissionStatus string

const (
	StatusPending        SubmissionStatus = "pending"
	StatusApproved       SubmissionStatus = "approved"
	StatusRejected       SubmissionStatus = "rejected"
	StatusKickedInactive SubmissionStatus = "kicked_inactive"
)

// User is created on first interaction and never deleted.
// LastSubmitAt backs the submission cooldown.
type User struct {
	TgUserID     int64  `gorm:"primaryKey;column:tg_user_id"`
	Username     string `gorm:"column:username"`
	FirstName    string `gorm:"column:first_name"`
	LastName     string `gorm:"column:last_name"`
	JoinedAt     time.Time
	LastSubmitAt time.Time
}

func (User) TableName() string { return "users" }

// Submission is one user's claim to own a broker account.
// LastTradeDate is stored as YYYY-MM-DD; empty means no trade ever observed.
type Submission struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	TgUserID         int64 `gorm:"column:tg_user_id;index"`
	Broker           string
	ClientID         string `gorm:"column:client_id;index"`
	ScreenshotFileID string `gorm:"column:screenshot_file_id"`
	Status           SubmissionStatus
	LastTradeDate    string `gorm:"column:last_trade_date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Submission) TableName() string { return "submissions" }

// VIPLink holds the invite link for a broker's VIP channel. One row per
// supported broker, seeded at startup; Link stays empty until an admin sets it.
type VIPLink struct {
	Broker string `gorm:"primaryKey"`
	Link   string `gorm:"column:invite_link"`
}

func (VIPLink) TableName() string { return "vip_links" }

// Ban marks a user as banned. Presence of a row is the ban.
type Ban struct {
	TgUserID int64 `gorm:"primaryKey;column:tg_user_id"`
	BannedAt time.Time
	Reason   string
}

func (Ban) TableName() string { return "bans" }

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Users          int64
	Pending        int64
	Approved       int64
	Rejected       int64
	KickedInactive int64
}
