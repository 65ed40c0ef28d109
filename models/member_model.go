package models

import "time"

const (
	MemberPending  = "PENDING"
	MemberApproved = "APPROVED"
)

const (
	TierBasic = "Basic"
	TierPro   = "Pro"
	TierElite = "Elite"
)

type Member struct {
	TelegramID int64     `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	Username   string    `gorm:"size:255" json:"username"`
	FullName   string    `gorm:"size:255" json:"full_name"`
	Balance    float64   `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	Status     string    `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Tier       string    `gorm:"size:20;not null;default:'Basic'" json:"tier"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Handle is the display name used in reports.
func (m Member) Handle() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	if m.FullName != "" {
		return m.FullName
	}
	return "N/A"
}
