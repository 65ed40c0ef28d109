package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/anjiri1684/edirpay/models"
)

func seedReports(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	ctx := context.Background()

	for _, amount := range []float64{500, 300} {
		sub := h.pendingPayment(t, amount, 0)
		if _, err := h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionApprove, SubmissionID: sub.ID, ActorID: adminID}); err != nil {
			t.Fatal(err)
		}
	}
	rejected := h.pendingPayment(t, 50, 0)
	h.approvals.Decide(ctx, DecisionRequest{Action: models.DecisionReject, SubmissionID: rejected.ID, ActorID: adminID})
	h.pipeline.SubmitForm(ctx, owner, Payload{Kind: models.KindLoan, Purpose: "Medical", Amount: 1000, Duration: 3})
	h.pipeline.SubmitForm(ctx, owner, Payload{Kind: models.KindPayment, Purpose: "Penalty", Amount: 20})
	return h
}

func TestSummary(t *testing.T) {
	h := seedReports(t)
	s, err := NewReports(h.ledger).Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Members != 1 || s.ApprovedMembers != 1 {
		t.Errorf("members = %d/%d", s.Members, s.ApprovedMembers)
	}
	if s.ApprovedPayments != 2 || s.TotalCollected != 800 {
		t.Errorf("approved = %d total = %v", s.ApprovedPayments, s.TotalCollected)
	}
	if s.ByStatus[models.StatusRejected] != 1 || s.ByStatus[models.StatusPendingApproval] != 1 || s.ByStatus[models.StatusAwaitingEvidence] != 1 {
		t.Errorf("by status = %v", s.ByStatus)
	}
	if len(s.ByPurpose) != 1 || s.ByPurpose[0].Purpose != "Monthly Fee" {
		t.Errorf("by purpose = %+v", s.ByPurpose)
	}
	if text := FormatSummary(s); !strings.Contains(text, "800 birr") {
		t.Errorf("formatted summary = %q", text)
	}
}

func TestRecentApprovedAndMemberStatus(t *testing.T) {
	h := seedReports(t)
	r := NewReports(h.ledger)
	ctx := context.Background()

	recent, err := r.RecentApproved(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Amount != 300 || recent[0].Owner.Username != "abebe" {
		t.Errorf("recent = %+v", recent)
	}
	if text := FormatApprovedList(recent); !strings.Contains(text, recent[0].Code()) {
		t.Errorf("list = %q", text)
	}

	rep, err := r.MemberStatus(ctx, ownerID)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Member.Balance != 800 || len(rep.Open) != 2 {
		t.Errorf("member report = %+v", rep)
	}
	if _, err := r.MemberStatus(ctx, 404); err != ErrMemberNotFound {
		t.Errorf("unknown member err = %v", err)
	}
}

func TestExportSubmissionsCSV(t *testing.T) {
	h := seedReports(t)
	var buf bytes.Buffer
	if err := NewReports(h.ledger).ExportSubmissionsCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want header + 5", len(rows))
	}
	if rows[0][0] != "Code" || rows[1][0] != "#EUDE0001" || rows[1][9] != models.StatusApproved {
		t.Errorf("first rows = %v / %v", rows[0], rows[1])
	}
	if rows[1][10] != "11" {
		t.Errorf("decided by = %q", rows[1][10])
	}
}

func TestExportMembersCSV(t *testing.T) {
	h := seedReports(t)
	var buf bytes.Buffer
	if err := NewReports(h.ledger).ExportMembersCSV(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	rows, _ := csv.NewReader(&buf).ReadAll()
	if len(rows) != 2 || rows[1][1] != "abebe" || rows[1][3] != "800" {
		t.Errorf("rows = %v", rows)
	}
}

func TestFormatApprovedListTruncates(t *testing.T) {
	subs := make([]models.Submission, 200)
	for i := range subs {
		subs[i] = models.Submission{ID: uint(i + 1), Purpose: strings.Repeat("x", 40), Amount: 100, Owner: models.Member{Username: "member"}}
	}
	if text := FormatApprovedList(subs); len(text) > maxMessageLen+3 {
		t.Errorf("len = %d", len(text))
	}
}
