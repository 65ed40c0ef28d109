package services

import (
	"context"
	"errors"

	"github.com/anjiri1684/edirpay/models"
	"github.com/anjiri1684/edirpay/utils"
)

// Correlator pairs a form submission with the receipt that follows it. The
// open slot is the owner's AWAITING_EVIDENCE row, so it survives restarts and
// is shared by every bot instance using the same database.
type Correlator struct {
	ledger *Ledger
}

func NewCorrelator(l *Ledger) *Correlator {
	return &Correlator{ledger: l}
}

type Slot struct {
	Submission models.Submission
	Superseded bool
}

// Open records a structured payload. For payments it becomes the owner's only
// open slot; loan requests need no receipt and come back ready for approval.
func (c *Correlator) Open(ctx context.Context, owner int64, p Payload) (Slot, error) {
	sub, superseded, err := c.ledger.CreateSubmission(ctx, owner, p)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Submission: sub, Superseded: superseded > 0}, nil
}

// Match closes the owner's slot with the given receipt. Evidence never
// creates a submission: without an open slot it fails with
// ErrNoPendingSubmission.
func (c *Correlator) Match(ctx context.Context, owner int64, evidenceRef string) (models.Submission, error) {
	slot, err := c.ledger.PendingFor(ctx, owner)
	if err != nil {
		return models.Submission{}, err
	}
	sub, err := c.ledger.AttachEvidence(ctx, slot.ID, evidenceRef)
	if err != nil {
		// the slot expired or was superseded between the lookup and the update
		var stateErr *StateError
		if errors.As(err, &stateErr) || errors.Is(err, ErrNotFound) {
			return models.Submission{}, ErrNoPendingSubmission
		}
		return models.Submission{}, err
	}
	return sub, nil
}

// Resolve turns a human readable code back into a submission.
func (c *Correlator) Resolve(ctx context.Context, code string) (models.Submission, error) {
	id, err := utils.ParseSubmissionCode(code)
	if err != nil {
		return models.Submission{}, ErrNotFound
	}
	return c.ledger.Get(ctx, id)
}
