package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/anjiri1684/edirpay/models"
	"github.com/anjiri1684/edirpay/utils"
	"golang.org/x/sync/errgroup"
)

// Identity is the submitting member as seen by the platform.
type Identity struct {
	ID       int64
	Username string
	FullName string
}

type PipelineConfig struct {
	GroupID   int64            // broadcast destination, 0 disables it
	Approvers map[int64]string // identity -> role
}

// Pipeline turns form payloads and receipts into routed approval requests.
type Pipeline struct {
	ledger     *Ledger
	correlator *Correlator
	notifier   Notifier
	archiver   ReceiptArchiver
	events     EventSink
	cfg        PipelineConfig
}

func NewPipeline(l *Ledger, c *Correlator, n Notifier, cfg PipelineConfig) *Pipeline {
	return &Pipeline{ledger: l, correlator: c, notifier: n, cfg: cfg}
}

// WithArchiver enables receipt archiving.
func (p *Pipeline) WithArchiver(a ReceiptArchiver) *Pipeline {
	p.archiver = a
	return p
}

func (p *Pipeline) WithEvents(sink EventSink) *Pipeline {
	p.events = sink
	return p
}

// SubmitForm handles a structured payload. Payments open a slot and ask for
// the receipt; loans are routed to approvers right away.
func (p *Pipeline) SubmitForm(ctx context.Context, who Identity, payload Payload) (models.Submission, error) {
	member, err := p.ledger.UpsertMember(ctx, who.ID, who.Username, who.FullName)
	if err != nil {
		return models.Submission{}, err
	}
	slot, err := p.correlator.Open(ctx, who.ID, payload)
	if err != nil {
		return models.Submission{}, err
	}
	sub := slot.Submission
	sub.Owner = member
	p.emit(sub, 0)

	if sub.Kind == models.KindLoan {
		p.route(ctx, sub)
		p.tell(ctx, who.ID, fmt.Sprintf(MsgLoanForwarded, sub.Code(), money(sub.Amount), currency))
		return sub, nil
	}

	text := fmt.Sprintf(MsgSendReceipt, money(sub.Total()), currency, sub.Code())
	if slot.Superseded {
		text = MsgSuperseded + "\n\n" + text
	}
	p.tell(ctx, who.ID, text)
	return sub, nil
}

// SubmitEvidence completes the owner's open payment with a receipt and routes
// it for approval.
func (p *Pipeline) SubmitEvidence(ctx context.Context, who Identity, evidenceRef string) (models.Submission, error) {
	sub, err := p.correlator.Match(ctx, who.ID, evidenceRef)
	if err != nil {
		return models.Submission{}, err
	}
	p.emit(sub, 0)
	p.archive(ctx, sub, evidenceRef)
	p.route(ctx, sub)
	p.tell(ctx, who.ID, fmt.Sprintf(MsgReceiptForwarded, sub.Code()))
	return sub, nil
}

func (p *Pipeline) archive(ctx context.Context, sub models.Submission, evidenceRef string) {
	if p.archiver == nil {
		return
	}
	url, err := p.archiver.Archive(ctx, sub, evidenceRef)
	if err != nil {
		log.Printf("⚠️ receipt archive for %s failed: %v", sub.Code(), err)
		return
	}
	if err := p.ledger.SetArchiveURL(ctx, sub.ID, url); err != nil {
		log.Printf("⚠️ saving archive url for %s failed: %v", sub.Code(), err)
	}
}

// route publishes the report to the group and fans the approval request out
// to every approver. Delivery failures are logged and never abort routing.
func (p *Pipeline) route(ctx context.Context, sub models.Submission) {
	if p.cfg.GroupID != 0 {
		ref, err := p.notifier.Publish(ctx, p.cfg.GroupID, GroupReport(sub))
		if err != nil {
			logDelivery(sub, &NotificationDeliveryError{Target: p.cfg.GroupID, Op: "publish", Err: err})
		} else if err := p.ledger.RecordGroupMessage(ctx, sub.ID, ref.MessageID); err != nil {
			log.Printf("🔥 recording group message for %s: %v", sub.Code(), err)
		}
	}

	evidence := ""
	if sub.EvidenceRef != nil {
		evidence = *sub.EvidenceRef
	}
	caption := ApprovalCaption(sub)
	actions := []Action{
		{Label: ApproveLabel, Data: utils.EncodeCallback(models.DecisionApprove, sub.ID)},
		{Label: RejectLabel, Data: utils.EncodeCallback(models.DecisionReject, sub.ID)},
	}

	var g errgroup.Group
	for _, approver := range sortedIDs(p.cfg.Approvers) {
		g.Go(func() error {
			ref, err := p.notifier.NotifyWithImage(ctx, approver, evidence, caption, actions)
			if err != nil {
				logDelivery(sub, &NotificationDeliveryError{Target: approver, Op: "approval request", Err: err})
				return nil
			}
			msg := &models.ApproverMessage{
				SubmissionID: sub.ID,
				ChatID:       ref.ChatID,
				MessageID:    ref.MessageID,
				HasPhoto:     ref.HasPhoto,
				Caption:      caption,
			}
			if err := p.ledger.RecordApproverMessage(ctx, msg); err != nil {
				log.Printf("🔥 recording approver message for %s: %v", sub.Code(), err)
				return nil
			}
			p.annotateIfDecided(ctx, sub, msg)
			return nil
		})
	}
	_ = g.Wait()
}

// annotateIfDecided covers a decision taken while msg was still being sent:
// the decider could not see the row yet, so the outcome is written here.
func (p *Pipeline) annotateIfDecided(ctx context.Context, sub models.Submission, msg *models.ApproverMessage) {
	cur, err := p.ledger.Get(ctx, sub.ID)
	if err != nil || !cur.IsTerminal() {
		return
	}
	approver := ""
	if cur.DecidedBy != nil {
		approver = strconv.FormatInt(*cur.DecidedBy, 10)
	}
	ref := MessageRef{ChatID: msg.ChatID, MessageID: msg.MessageID, HasPhoto: msg.HasPhoto}
	if err := p.notifier.UpdateMessage(ctx, ref, msg.Caption+decisionFooter(cur, approver)); err != nil {
		logDelivery(sub, &NotificationDeliveryError{Target: msg.ChatID, Op: "annotate", Err: err})
	}
}

func (p *Pipeline) tell(ctx context.Context, chatID int64, text string) {
	if err := p.notifier.Notify(ctx, chatID, text); err != nil {
		log.Printf("🔥 %v", &NotificationDeliveryError{Target: chatID, Op: "notify", Err: err})
	}
}

func (p *Pipeline) emit(sub models.Submission, actor int64) {
	emitEvent(p.events, sub, actor)
}

func emitEvent(sink EventSink, sub models.Submission, actor int64) {
	if sink == nil {
		return
	}
	sink.Emit(SubmissionEvent{
		ID:      sub.ID,
		Code:    sub.Code(),
		Kind:    sub.Kind,
		OwnerID: sub.OwnerID,
		Status:  sub.Status,
		Total:   sub.Total(),
		ActorID: actor,
		At:      time.Now(),
	})
}

func logDelivery(sub models.Submission, err *NotificationDeliveryError) {
	log.Printf("🔥 %s: %v", sub.Code(), err)
}

func sortedIDs(m map[int64]string) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
