package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anjiri1684/edirpay/models"
)

func TestParseDecisionRequest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		actor   int64
		want    DecisionRequest
		wantErr bool
	}{
		{"approve", "approve:12", adminID, DecisionRequest{Action: "approve", SubmissionID: 12, ActorID: adminID, ActorName: "x"}, false},
		{"reject", "reject:3", financeID, DecisionRequest{Action: "reject", SubmissionID: 3, ActorID: financeID, ActorName: "x"}, false},
		{"unknown action", "delete:3", adminID, DecisionRequest{}, true},
		{"no id", "approve:", adminID, DecisionRequest{}, true},
		{"zero id", "approve:0", adminID, DecisionRequest{}, true},
		{"no actor", "approve:3", 0, DecisionRequest{}, true},
		{"garbage", "hello", adminID, DecisionRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecisionRequest(tt.data, tt.actor, "x")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// A payment of 500 is approved once, credits the balance, and a second
// approver only learns that it was already processed.
func TestApprovePaymentScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.pendingPayment(t, 500, 0)

	res, err := h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: adminID, ActorName: "Admin"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Submission.Status != models.StatusApproved {
		t.Errorf("status = %s", res.Submission.Status)
	}
	m := h.member(t, ownerID)
	if m.Balance != 500 || m.Status != models.MemberApproved {
		t.Errorf("member = %+v", m)
	}

	owned := h.notifier.to(ownerID)
	last := owned[len(owned)-1]
	if !strings.Contains(last.Text, "approved") || !strings.Contains(last.Text, sub.Code()) {
		t.Errorf("owner outcome = %q", last.Text)
	}

	updates := h.notifier.byKind("update")
	var groupUpdated bool
	annotated := map[int64]bool{}
	for _, u := range updates {
		if u.ChatID == groupID {
			groupUpdated = strings.Contains(u.Text, "Approved")
			continue
		}
		if strings.Contains(u.Text, "Approver: Admin") {
			annotated[u.ChatID] = true
			if !u.Ref.HasPhoto {
				t.Errorf("annotation for %d lost the photo flag", u.ChatID)
			}
		}
	}
	if !groupUpdated {
		t.Error("group report not updated")
	}
	if !annotated[adminID] || !annotated[financeID] {
		t.Errorf("annotated approvers = %v", annotated)
	}

	_, err = h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: financeID, ActorName: "Finance"})
	var already *AlreadyDecidedError
	if !errors.As(err, &already) {
		t.Fatalf("second decision err = %v, want AlreadyDecidedError", err)
	}
	if m := h.member(t, ownerID); m.Balance != 500 {
		t.Errorf("balance after second decision = %v", m.Balance)
	}

	want := []string{models.StatusAwaitingEvidence, models.StatusPendingApproval, models.StatusApproved}
	if got := h.events.statuses(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

// A loan of 2000 over 6 months skips the receipt step and is rejected
// without touching the balance.
func TestRejectLoanScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sub, err := h.pipeline.SubmitForm(ctx, owner, Payload{Kind: models.KindLoan, Amount: 2000, Duration: 6})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.StatusPendingApproval {
		t.Fatalf("status = %s", sub.Status)
	}

	res, err := h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionReject, SubmissionID: sub.ID, ActorID: financeID})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Submission.Status != models.StatusRejected {
		t.Errorf("status = %s", res.Submission.Status)
	}
	if m := h.member(t, ownerID); m.Balance != 0 || m.Status != models.MemberPending {
		t.Errorf("member = %+v", m)
	}
	owned := h.notifier.to(ownerID)
	if last := owned[len(owned)-1]; !strings.Contains(last.Text, "not approved") {
		t.Errorf("owner outcome = %q", last.Text)
	}
	for _, u := range h.notifier.byKind("update") {
		if u.ChatID != groupID && !strings.Contains(u.Text, "Approver: 22") {
			t.Errorf("annotation without actor fallback: %q", u.Text)
		}
	}
}

func TestDecideDeniesNonApprover(t *testing.T) {
	h := newHarness(t)
	sub := h.pendingPayment(t, 500, 0)
	before := len(h.notifier.calls)

	_, err := h.approvals.Decide(context.Background(), DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: ownerID})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	stored, _ := h.ledger.Get(context.Background(), sub.ID)
	if stored.Status != models.StatusPendingApproval {
		t.Errorf("status = %s", stored.Status)
	}
	if len(h.notifier.calls) != before {
		t.Error("denied decision sent messages")
	}
}

func TestDecideSurvivesNotificationFailure(t *testing.T) {
	h := newHarness(t)
	sub := h.pendingPayment(t, 300, 0)
	h.notifier.failAll = true

	res, err := h.approvals.Decide(context.Background(), DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: adminID})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Submission.Status != models.StatusApproved {
		t.Errorf("status = %s", res.Submission.Status)
	}
	if m := h.member(t, ownerID); m.Balance != 300 {
		t.Errorf("balance = %v, want 300", m.Balance)
	}
}

func TestDecideOnAwaitingSubmission(t *testing.T) {
	h := newHarness(t)
	sub, _ := h.pipeline.SubmitForm(context.Background(), owner, Payload{Kind: models.KindPayment, Amount: 100})

	_, err := h.approvals.Decide(context.Background(), DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: adminID})
	var already *AlreadyDecidedError
	if !errors.As(err, &already) || already.Status != models.StatusAwaitingEvidence {
		t.Fatalf("err = %v, want AlreadyDecidedError from %s", err, models.StatusAwaitingEvidence)
	}
}

func TestTierUpgradeIsAnnounced(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		sub := h.pendingPayment(t, 100, 0)
		if _, err := h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: adminID}); err != nil {
			t.Fatal(err)
		}
	}

	var announcements int
	for _, p := range h.notifier.byKind("publish") {
		if strings.Contains(p.Text, "Tier upgrade") {
			announcements++
			if !strings.Contains(p.Text, models.TierPro) || !strings.Contains(p.Text, "@abebe") {
				t.Errorf("announcement = %q", p.Text)
			}
		}
	}
	if announcements != 1 {
		t.Errorf("announcements = %d, want 1", announcements)
	}
	if m := h.member(t, ownerID); m.Tier != models.TierPro || m.Balance != 500 {
		t.Errorf("member = %+v", m)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{0, models.TierBasic},
		{4, models.TierBasic},
		{5, models.TierPro},
		{11, models.TierPro},
		{12, models.TierElite},
		{40, models.TierElite},
	}
	for _, tt := range tests {
		if got := TierFor(tt.count); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}
