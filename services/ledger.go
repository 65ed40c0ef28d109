package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anjiri1684/edirpay/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New()

var ErrMemberNotFound = errors.New("member not found")

// Payload is the structured part of a submission as it arrives from the form.
type Payload struct {
	Kind     string  `json:"kind" validate:"required,oneof=payment loan"`
	Purpose  string  `json:"purpose" validate:"max=255"`
	Period   string  `json:"period" validate:"max=255"`
	Amount   float64 `json:"amount" validate:"required,gt=0,lte=999999999"`
	Penalty  float64 `json:"penalty" validate:"gte=0,lte=999999999"`
	Duration int     `json:"duration" validate:"gte=0,lte=600"`
	Note     string  `json:"note" validate:"max=2000"`
}

func (p Payload) Validate() error {
	if !finite(p.Amount) || !finite(p.Penalty) {
		return &ValidationError{Fields: []string{"amount", "penalty"}, Reason: "not a finite number"}
	}
	if err := validate.Struct(p); err != nil {
		return newValidationError(err)
	}
	if p.Kind == models.KindLoan && p.Penalty > 0 {
		return &ValidationError{Fields: []string{"penalty"}, Reason: "loan requests carry no penalty"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) DB() *gorm.DB { return l.db }

// UpsertMember registers the identity on first contact and refreshes the
// display handle afterwards. Balance, status and tier are never touched.
func (l *Ledger) UpsertMember(ctx context.Context, identity int64, username, fullName string) (models.Member, error) {
	m := models.Member{
		TelegramID: identity,
		Username:   username,
		FullName:   fullName,
		Status:     models.MemberPending,
		Tier:       models.TierBasic,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "full_name", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return models.Member{}, fmt.Errorf("upsert member %d: %w", identity, err)
	}
	return l.Member(ctx, identity)
}

func (l *Ledger) Member(ctx context.Context, identity int64) (models.Member, error) {
	var m models.Member
	if err := l.db.WithContext(ctx).First(&m, "telegram_id = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, ErrMemberNotFound
		}
		return m, err
	}
	return m, nil
}

// CreateSubmission stores a new submission. Payments start out waiting for
// their receipt and replace any older payment of the same owner that is
// still waiting; loan requests go straight to approval. The number of
// replaced rows is returned so the caller can tell the member.
func (l *Ledger) CreateSubmission(ctx context.Context, owner int64, p Payload) (models.Submission, int64, error) {
	if err := p.Validate(); err != nil {
		return models.Submission{}, 0, err
	}

	sub := models.Submission{
		OwnerID:  owner,
		Kind:     p.Kind,
		Purpose:  p.Purpose,
		Period:   p.Period,
		Amount:   p.Amount,
		Penalty:  p.Penalty,
		Duration: p.Duration,
		Note:     p.Note,
		Status:   models.StatusPendingApproval,
	}
	var superseded int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Kind == models.KindPayment {
			sub.Status = models.StatusAwaitingEvidence
			res := tx.Where("owner_id = ? AND status = ?", owner, models.StatusAwaitingEvidence).
				Delete(&models.Submission{})
			if res.Error != nil {
				return res.Error
			}
			superseded = res.RowsAffected
		}
		return tx.Omit(clause.Associations).Create(&sub).Error
	})
	if err != nil {
		return models.Submission{}, 0, fmt.Errorf("create submission for %d: %w", owner, err)
	}
	return sub, superseded, nil
}

// PendingFor returns the owner's open slot, if any.
func (l *Ledger) PendingFor(ctx context.Context, owner int64) (models.Submission, error) {
	var sub models.Submission
	err := l.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", owner, models.StatusAwaitingEvidence).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, ErrNoPendingSubmission
	}
	return sub, err
}

// AttachEvidence moves a submission from AWAITING_EVIDENCE to
// PENDING_APPROVAL. The status check and the write are one statement.
func (l *Ledger) AttachEvidence(ctx context.Context, id uint, evidenceRef string) (models.Submission, error) {
	db := l.db.WithContext(ctx)
	res := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.StatusAwaitingEvidence).
		Updates(map[string]any{
			"evidence_ref": evidenceRef,
			"status":       models.StatusPendingApproval,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return models.Submission{}, fmt.Errorf("attach evidence to %d: %w", id, res.Error)
	}
	sub, err := l.Get(ctx, id)
	if err != nil {
		return sub, err
	}
	if res.RowsAffected == 0 {
		return sub, &StateError{SubmissionID: id, Current: sub.Status, Want: models.StatusAwaitingEvidence}
	}
	return sub, nil
}

type DecisionResult struct {
	Submission models.Submission
	Member     models.Member
	Credit     *CreditResult
}

// Decide applies a decision exactly once. The status change is a conditional
// update, so of two racing approvers only one sees a row affected; the other
// gets AlreadyDecidedError. Crediting the owner and the audit row commit in
// the same transaction.
func (l *Ledger) Decide(ctx context.Context, id uint, decision string, actor int64, role string) (DecisionResult, error) {
	target := models.StatusRejected
	switch decision {
	case models.DecisionApprove:
		target = models.StatusApproved
	case models.DecisionReject:
	default:
		return DecisionResult{}, &ValidationError{Fields: []string{"decision"}, Reason: "unknown decision " + decision}
	}

	var out DecisionResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", id, models.StatusPendingApproval).
			Updates(map[string]any{
				"status":     target,
				"decided_by": actor,
				"decided_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cur models.Submission
			if err := tx.Select("id", "status").First(&cur, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			return &AlreadyDecidedError{SubmissionID: id, Status: cur.Status}
		}

		if err := tx.Preload("Owner").First(&out.Submission, id).Error; err != nil {
			return err
		}

		if target == models.StatusApproved && out.Submission.Kind == models.KindPayment {
			credit, err := CreditMember(tx, out.Submission.OwnerID, out.Submission.Total())
			if err != nil {
				return err
			}
			out.Credit = &credit
			out.Member = credit.Member
		} else {
			out.Member = out.Submission.Owner
		}

		return tx.Create(&models.DecisionLog{
			SubmissionID: id,
			ActorID:      actor,
			ActorRole:    role,
			Decision:     decision,
		}).Error
	})
	if err != nil {
		return DecisionResult{}, err
	}
	out.Submission.Owner = out.Member
	return out, nil
}

type CreditResult struct {
	Member   models.Member
	Promoted bool   // first approved payment ever
	OldTier  string // tier before this credit
}

func (c CreditResult) TierChanged() bool {
	return c.OldTier != c.Member.Tier
}

// CreditMember adds amount to the member's balance, marks the member approved
// and recomputes the tier. tx must be the transaction that approved the
// payment.
func CreditMember(tx *gorm.DB, identity int64, amount float64) (CreditResult, error) {
	var before models.Member
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&before, "telegram_id = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CreditResult{}, ErrMemberNotFound
		}
		return CreditResult{}, err
	}

	var approved int64
	err := tx.Model(&models.Submission{}).
		Where("owner_id = ? AND kind = ? AND status = ?", identity, models.KindPayment, models.StatusApproved).
		Count(&approved).Error
	if err != nil {
		return CreditResult{}, err
	}

	err = tx.Model(&models.Member{}).Where("telegram_id = ?", identity).Updates(map[string]any{
		"balance":    gorm.Expr("balance + ?", amount),
		"status":     models.MemberApproved,
		"tier":       TierFor(approved),
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return CreditResult{}, err
	}

	var after models.Member
	if err := tx.First(&after, "telegram_id = ?", identity).Error; err != nil {
		return CreditResult{}, err
	}
	return CreditResult{
		Member:   after,
		Promoted: before.Status != models.MemberApproved,
		OldTier:  before.Tier,
	}, nil
}

func (l *Ledger) Get(ctx context.Context, id uint) (models.Submission, error) {
	var sub models.Submission
	err := l.db.WithContext(ctx).Preload("Owner").First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, ErrNotFound
	}
	return sub, err
}

func (l *Ledger) RecordGroupMessage(ctx context.Context, id uint, messageID int) error {
	return l.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("group_message_id", messageID).Error
}

func (l *Ledger) RecordApproverMessage(ctx context.Context, msg *models.ApproverMessage) error {
	return l.db.WithContext(ctx).Create(msg).Error
}

func (l *Ledger) ApproverMessages(ctx context.Context, id uint) ([]models.ApproverMessage, error) {
	var msgs []models.ApproverMessage
	err := l.db.WithContext(ctx).Where("submission_id = ?", id).Order("id").Find(&msgs).Error
	return msgs, err
}

func (l *Ledger) SetArchiveURL(ctx context.Context, id uint, url string) error {
	return l.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("archive_url", url).Error
}

func (l *Ledger) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Submission, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	scoped := func() *gorm.DB {
		query := l.db.WithContext(ctx).Model(&models.Submission{})
		if status != "" {
			query = query.Where("status = ?", status)
		}
		return query
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var subs []models.Submission
	err := scoped().Preload("Owner").Order("id desc").Limit(limit).Offset(offset).Find(&subs).Error
	return subs, total, err
}

// ExpireAwaiting drops open slots created before cutoff and returns the ones
// it actually removed. A slot completed in the meantime is left alone.
func (l *Ledger) ExpireAwaiting(ctx context.Context, cutoff time.Time) ([]models.Submission, error) {
	db := l.db.WithContext(ctx)
	var stale []models.Submission
	err := db.Where("status = ? AND created_at < ?", models.StatusAwaitingEvidence, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	expired := make([]models.Submission, 0, len(stale))
	for _, sub := range stale {
		res := db.Where("id = ? AND status = ?", sub.ID, models.StatusAwaitingEvidence).
			Delete(&models.Submission{})
		if res.Error != nil {
			return expired, res.Error
		}
		if res.RowsAffected > 0 {
			expired = append(expired, sub)
		}
	}
	return expired, nil
}

// AwaitingCreatedBetween lists open slots created in [from, to).
func (l *Ledger) AwaitingCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Submission, error) {
	var subs []models.Submission
	err := l.db.WithContext(ctx).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusAwaitingEvidence, from, to).
		Order("id").Find(&subs).Error
	return subs, err
}
