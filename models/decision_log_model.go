package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type DecisionLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex" json:"submission_id"`
	ActorID      int64     `gorm:"not null" json:"actor_id"`
	ActorRole    string    `gorm:"size:20" json:"actor_role"`
	Decision     string    `gorm:"size:10;not null" json:"decision"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d *DecisionLog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
