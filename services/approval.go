package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/anjiri1684/edirpay/utils"
	"golang.org/x/sync/errgroup"
)

// DecisionRequest is an approver pressing approve or reject on a submission.
type DecisionRequest struct {
	Action       string `validate:"required,oneof=approve reject"`
	SubmissionID uint   `validate:"required"`
	ActorID      int64  `validate:"required"`
	ActorName    string
}

// ParseDecisionRequest decodes an inline button payload pressed by actor.
func ParseDecisionRequest(data string, actor int64, actorName string) (DecisionRequest, error) {
	action, id, err := utils.DecodeCallback(data)
	if err != nil {
		return DecisionRequest{}, &ValidationError{Fields: []string{"callback"}, Reason: err.Error()}
	}
	req := DecisionRequest{Action: action, SubmissionID: id, ActorID: actor, ActorName: actorName}
	if err := req.Validate(); err != nil {
		return DecisionRequest{}, err
	}
	return req, nil
}

func (r DecisionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return newValidationError(err)
	}
	return nil
}

type ApprovalConfig struct {
	GroupID   int64
	Approvers map[int64]string
}

// Approvals applies approver decisions and the effects that follow them.
type Approvals struct {
	ledger   *Ledger
	notifier Notifier
	events   EventSink
	cfg      ApprovalConfig
}

func NewApprovals(l *Ledger, n Notifier, cfg ApprovalConfig) *Approvals {
	return &Approvals{ledger: l, notifier: n, cfg: cfg}
}

func (a *Approvals) WithEvents(sink EventSink) *Approvals {
	a.events = sink
	return a
}

func (a *Approvals) IsApprover(identity int64) bool {
	_, ok := a.cfg.Approvers[identity]
	return ok
}

// Decide validates and authorizes req, then commits the transition. Once the
// transition is committed the effects are best-effort: a failed notification
// is logged and the result is still returned as a success.
func (a *Approvals) Decide(ctx context.Context, req DecisionRequest) (DecisionResult, error) {
	if err := req.Validate(); err != nil {
		return DecisionResult{}, err
	}
	role, ok := a.cfg.Approvers[req.ActorID]
	if !ok {
		log.Printf("⚠️ decision on %d denied for %d", req.SubmissionID, req.ActorID)
		return DecisionResult{}, ErrUnauthorized
	}

	res, err := a.ledger.Decide(ctx, req.SubmissionID, req.Action, req.ActorID, role)
	if err != nil {
		return DecisionResult{}, err
	}
	log.Printf("✅ %s %s by %d (%s)", res.Submission.Code(), res.Submission.Status, req.ActorID, role)

	a.afterDecision(ctx, req, res)
	return res, nil
}

func (a *Approvals) afterDecision(ctx context.Context, req DecisionRequest, res DecisionResult) {
	sub := res.Submission
	approver := req.ActorName
	if approver == "" {
		approver = strconv.FormatInt(req.ActorID, 10)
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := a.notifier.Notify(ctx, sub.OwnerID, outcomeMessage(sub)); err != nil {
			logDelivery(sub, &NotificationDeliveryError{Target: sub.OwnerID, Op: "outcome", Err: err})
		}
		return nil
	})
	if a.cfg.GroupID != 0 && sub.GroupMessageID != nil {
		g.Go(func() error {
			ref := MessageRef{ChatID: a.cfg.GroupID, MessageID: *sub.GroupMessageID}
			if err := a.notifier.UpdateMessage(ctx, ref, GroupReport(sub)); err != nil {
				logDelivery(sub, &NotificationDeliveryError{Target: a.cfg.GroupID, Op: "group update", Err: err})
			}
			return nil
		})
	}
	if a.cfg.GroupID != 0 && res.Credit != nil && res.Credit.TierChanged() {
		g.Go(func() error {
			text := fmt.Sprintf(MsgTierUp, res.Member.Handle(), res.Member.Tier)
			if _, err := a.notifier.Publish(ctx, a.cfg.GroupID, text); err != nil {
				logDelivery(sub, &NotificationDeliveryError{Target: a.cfg.GroupID, Op: "tier announcement", Err: err})
			}
			return nil
		})
	}

	msgs, err := a.ledger.ApproverMessages(ctx, sub.ID)
	if err != nil {
		log.Printf("🔥 loading approver messages for %s: %v", sub.Code(), err)
	}
	footer := decisionFooter(sub, approver)
	for _, m := range msgs {
		g.Go(func() error {
			ref := MessageRef{ChatID: m.ChatID, MessageID: m.MessageID, HasPhoto: m.HasPhoto}
			if err := a.notifier.UpdateMessage(ctx, ref, m.Caption+footer); err != nil {
				logDelivery(sub, &NotificationDeliveryError{Target: m.ChatID, Op: "annotate", Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()

	emitEvent(a.events, sub, req.ActorID)
}
