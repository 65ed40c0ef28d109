package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/anjiri1684/edirpay/database/dbtest"
	"github.com/anjiri1684/edirpay/models"
)

type sent struct {
	Kind     string
	ChatID   int64
	Text     string
	Evidence string
	Actions  []Action
	Ref      MessageRef
}

// fakeNotifier records every outbound call. Calls to a chat listed in failFor
// return an error.
type fakeNotifier struct {
	mu      sync.Mutex
	calls   []sent
	nextID  int
	failFor map[int64]bool
	failAll bool
	onImage func(sent) // runs after an approval request is delivered
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: map[int64]bool{}}
}

var errDelivery = errors.New("chat unreachable")

func (f *fakeNotifier) record(s sent) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failFor[s.ChatID] {
		return MessageRef{}, errDelivery
	}
	f.nextID++
	if s.Ref.ChatID == 0 {
		s.Ref = MessageRef{ChatID: s.ChatID, MessageID: f.nextID, HasPhoto: s.Evidence != ""}
	}
	f.calls = append(f.calls, s)
	return s.Ref, nil
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	_, err := f.record(sent{Kind: "notify", ChatID: chatID, Text: text})
	return err
}

func (f *fakeNotifier) NotifyWithImage(_ context.Context, chatID int64, evidenceRef, text string, actions []Action) (MessageRef, error) {
	s := sent{Kind: "image", ChatID: chatID, Text: text, Evidence: evidenceRef, Actions: actions}
	ref, err := f.record(s)
	if err == nil && f.onImage != nil {
		f.onImage(s)
	}
	return ref, err
}

func (f *fakeNotifier) Publish(_ context.Context, chatID int64, text string) (MessageRef, error) {
	return f.record(sent{Kind: "publish", ChatID: chatID, Text: text})
}

func (f *fakeNotifier) UpdateMessage(_ context.Context, ref MessageRef, text string) error {
	_, err := f.record(sent{Kind: "update", ChatID: ref.ChatID, Text: text, Ref: ref})
	return err
}

func (f *fakeNotifier) SendDocument(_ context.Context, chatID int64, name string, _ []byte, caption string) error {
	_, err := f.record(sent{Kind: "document", ChatID: chatID, Text: name + " " + caption})
	return err
}

func (f *fakeNotifier) byKind(kind string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, c := range f.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeNotifier) to(chatID int64) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, c := range f.calls {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

type eventRecorder struct {
	mu     sync.Mutex
	events []SubmissionEvent
}

func (r *eventRecorder) Emit(e SubmissionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Status)
	}
	return out
}

const (
	groupID   int64 = -1001
	adminID   int64 = 11
	financeID int64 = 22
	ownerID   int64 = 500
)

type harness struct {
	ledger    *Ledger
	notifier  *fakeNotifier
	events    *eventRecorder
	pipeline  *Pipeline
	approvals *Approvals
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ledger := NewLedger(dbtest.Open(t))
	n := newFakeNotifier()
	ev := &eventRecorder{}
	approvers := map[int64]string{adminID: "admin", financeID: "finance"}
	return &harness{
		ledger:    ledger,
		notifier:  n,
		events:    ev,
		pipeline:  NewPipeline(ledger, NewCorrelator(ledger), n, PipelineConfig{GroupID: groupID, Approvers: approvers}).WithEvents(ev),
		approvals: NewApprovals(ledger, n, ApprovalConfig{GroupID: groupID, Approvers: approvers}).WithEvents(ev),
	}
}

var owner = Identity{ID: ownerID, Username: "abebe", FullName: "Abebe Kebede"}

// pendingPayment drives a payment up to PENDING_APPROVAL.
func (h *harness) pendingPayment(t *testing.T, amount, penalty float64) models.Submission {
	t.Helper()
	ctx := context.Background()
	if _, err := h.pipeline.SubmitForm(ctx, owner, Payload{Kind: models.KindPayment, Purpose: "Monthly Fee", Period: "March", Amount: amount, Penalty: penalty}); err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	sub, err := h.pipeline.SubmitEvidence(ctx, owner, "photo-file-id")
	if err != nil {
		t.Fatalf("SubmitEvidence: %v", err)
	}
	return sub
}

func (h *harness) member(t *testing.T, id int64) models.Member {
	t.Helper()
	m, err := h.ledger.Member(context.Background(), id)
	if err != nil {
		t.Fatalf("Member(%d): %v", id, err)
	}
	return m
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
