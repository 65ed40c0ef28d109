package models

import "time"

// ApproverMessage remembers where an approval request was delivered so the
// message can be annotated once somebody decides.
type ApproverMessage struct {
	ID           uint  `gorm:"primaryKey"`
	SubmissionID uint  `gorm:"not null;index"`
	ChatID       int64 `gorm:"not null"`
	MessageID    int   `gorm:"not null"`
	HasPhoto     bool
	Caption      string `gorm:"type:text"`
	CreatedAt    time.Time
}
