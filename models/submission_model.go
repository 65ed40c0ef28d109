package models

import (
	"fmt"
	"time"
)

const (
	KindPayment = "payment"
	KindLoan    = "loan"
)

const (
	StatusAwaitingEvidence = "AWAITING_EVIDENCE"
	StatusPendingApproval  = "PENDING_APPROVAL"
	StatusApproved         = "APPROVED"
	StatusRejected         = "REJECTED"
)

const CodePrefix = "#EUDE"

type Submission struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OwnerID int64  `gorm:"not null;index;uniqueIndex:idx_submissions_awaiting_owner,where:status = 'AWAITING_EVIDENCE'" json:"owner_id"`
	Kind    string `gorm:"size:10;not null" json:"kind"`

	Purpose  string  `gorm:"size:255" json:"purpose"`
	Period   string  `gorm:"size:255" json:"period"`
	Amount   float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	Penalty  float64 `gorm:"type:numeric(12,2);not null;default:0" json:"penalty"`
	Duration int     `json:"duration,omitempty"`
	Note     string  `gorm:"type:text" json:"note,omitempty"`

	EvidenceRef *string `gorm:"size:255" json:"evidence_ref,omitempty"`
	ArchiveURL  *string `gorm:"size:512" json:"archive_url,omitempty"`

	Status         string `gorm:"size:20;not null;index" json:"status"`
	GroupMessageID *int   `json:"group_message_id,omitempty"`

	DecidedBy *int64     `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	Owner            Member            `gorm:"foreignKey:OwnerID;references:TelegramID" json:"owner"`
	ApproverMessages []ApproverMessage `gorm:"foreignKey:SubmissionID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Submission) Total() float64 {
	return s.Amount + s.Penalty
}

// Code is the human readable correlation id. It is derived from the row id,
// so it is unique for as long as the store's sequence is.
func (s Submission) Code() string {
	return fmt.Sprintf("%s%04d", CodePrefix, s.ID)
}

func (s Submission) IsTerminal() bool {
	return s.Status == StatusApproved || s.Status == StatusRejected
}
