package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anjiri1684/edirpay/models"
)

const maxMessageLen = 4000

type PurposeTotal struct {
	Purpose string  `json:"purpose"`
	Count   int64   `json:"count"`
	Total   float64 `json:"total"`
}

type Summary struct {
	Members          int64            `json:"members"`
	ApprovedMembers  int64            `json:"approved_members"`
	ApprovedPayments int64            `json:"approved_payments"`
	TotalCollected   float64          `json:"total_collected"`
	ByStatus         map[string]int64 `json:"by_status"`
	ByPurpose        []PurposeTotal   `json:"by_purpose"`
}

type MemberReport struct {
	Member models.Member       `json:"member"`
	Open   []models.Submission `json:"open"`
}

// Reports are read-only queries over the ledger.
type Reports struct {
	ledger *Ledger
}

func NewReports(l *Ledger) *Reports {
	return &Reports{ledger: l}
}

func (r *Reports) Summary(ctx context.Context) (Summary, error) {
	db := r.ledger.db.WithContext(ctx)
	s := Summary{ByStatus: map[string]int64{}}

	if err := db.Model(&models.Member{}).Count(&s.Members).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Member{}).Where("status = ?", models.MemberApproved).Count(&s.ApprovedMembers).Error; err != nil {
		return s, err
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Submission{}).Select("status, COUNT(*) AS count").Group("status").Scan(&statusRows).Error; err != nil {
		return s, err
	}
	for _, row := range statusRows {
		s.ByStatus[row.Status] = row.Count
	}

	err := db.Model(&models.Submission{}).
		Where("kind = ? AND status = ?", models.KindPayment, models.StatusApproved).
		Select("purpose, COUNT(*) AS count, COALESCE(SUM(amount + penalty), 0) AS total").
		Group("purpose").Order("purpose").
		Scan(&s.ByPurpose).Error
	if err != nil {
		return s, err
	}
	for _, p := range s.ByPurpose {
		s.ApprovedPayments += p.Count
		s.TotalCollected += p.Total
	}
	return s, nil
}

func (r *Reports) RecentApproved(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	var subs []models.Submission
	err := r.ledger.db.WithContext(ctx).Preload("Owner").
		Where("kind = ? AND status = ?", models.KindPayment, models.StatusApproved).
		Order("id desc").Limit(limit).Find(&subs).Error
	return subs, err
}

func (r *Reports) MemberStatus(ctx context.Context, identity int64) (MemberReport, error) {
	m, err := r.ledger.Member(ctx, identity)
	if err != nil {
		return MemberReport{}, err
	}
	rep := MemberReport{Member: m}
	err = r.ledger.db.WithContext(ctx).
		Where("owner_id = ? AND status IN ?", identity, []string{models.StatusAwaitingEvidence, models.StatusPendingApproval}).
		Order("id").Find(&rep.Open).Error
	return rep, err
}

func (r *Reports) Members(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := r.ledger.db.WithContext(ctx).Order("joined_at").Find(&members).Error
	return members, err
}

func (r *Reports) ExportSubmissionsCSV(ctx context.Context, w io.Writer) error {
	var subs []models.Submission
	if err := r.ledger.db.WithContext(ctx).Preload("Owner").Order("id").Find(&subs).Error; err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	headers := []string{"Code", "Date", "Member", "Kind", "Purpose", "Period", "Amount", "Penalty", "Total", "Status", "Decided By", "Receipt"}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, s := range subs {
		decidedBy := ""
		if s.DecidedBy != nil {
			decidedBy = strconv.FormatInt(*s.DecidedBy, 10)
		}
		receipt := ""
		if s.ArchiveURL != nil {
			receipt = *s.ArchiveURL
		} else if s.EvidenceRef != nil {
			receipt = *s.EvidenceRef
		}
		row := []string{
			s.Code(),
			s.CreatedAt.Format(time.RFC3339),
			s.Owner.Handle(),
			s.Kind,
			s.Purpose,
			s.Period,
			money(s.Amount),
			money(s.Penalty),
			money(s.Total()),
			s.Status,
			decidedBy,
			receipt,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Reports) ExportMembersCSV(ctx context.Context, w io.Writer) error {
	members, err := r.Members(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Telegram ID", "Username", "Full Name", "Balance", "Status", "Tier", "Joined"}); err != nil {
		return err
	}
	for _, m := range members {
		row := []string{
			strconv.FormatInt(m.TelegramID, 10),
			m.Username,
			m.FullName,
			money(m.Balance),
			m.Status,
			m.Tier,
			m.JoinedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func FormatSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("📊 Overall summary\n\n")
	fmt.Fprintf(&b, "👥 Members: %d (%d approved)\n", s.Members, s.ApprovedMembers)
	fmt.Fprintf(&b, "✅ Approved payments: %d\n", s.ApprovedPayments)
	fmt.Fprintf(&b, "💰 Total collected: %s %s\n", money(s.TotalCollected), currency)
	fmt.Fprintf(&b, "⏳ Waiting for approval: %d\n", s.ByStatus[models.StatusPendingApproval])
	fmt.Fprintf(&b, "📷 Waiting for receipt: %d\n", s.ByStatus[models.StatusAwaitingEvidence])
	fmt.Fprintf(&b, "❌ Rejected: %d\n", s.ByStatus[models.StatusRejected])
	if len(s.ByPurpose) > 0 {
		b.WriteString("\nBy purpose:\n")
		for _, p := range s.ByPurpose {
			fmt.Fprintf(&b, " - %s: %d × %s %s\n", p.Purpose, p.Count, money(p.Total), currency)
		}
	}
	return b.String()
}

// FormatApprovedList renders the detailed report, cut to fit one message.
func FormatApprovedList(subs []models.Submission) string {
	if len(subs) == 0 {
		return "No approved payments yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📑 Approved payments (last %d)\n\n", len(subs))
	for i, s := range subs {
		fmt.Fprintf(&b, "%d. %s %s - %s %s (%s)\n", i+1, s.Code(), s.Owner.Handle(), money(s.Total()), currency, s.Purpose)
	}
	return clip(b.String())
}

func FormatMemberStatus(rep MemberReport) string {
	var b strings.Builder
	m := rep.Member
	fmt.Fprintf(&b, "👤 %s\n💰 Savings: %s %s\n🏅 Tier: %s\n📌 Membership: %s\n",
		m.Handle(), money(m.Balance), currency, m.Tier, strings.ToLower(m.Status))
	if len(rep.Open) == 0 {
		b.WriteString("\nNo open submissions.")
		return b.String()
	}
	b.WriteString("\nOpen submissions:\n")
	for _, s := range rep.Open {
		_, label := statusLabel(s.Status)
		fmt.Fprintf(&b, " - %s %s %s: %s\n", s.Code(), money(s.Total()), currency, label)
	}
	return b.String()
}

func FormatPending(subs []models.Submission) string {
	if len(subs) == 0 {
		return "Nothing is waiting for approval."
	}
	var b strings.Builder
	b.WriteString("📑 Waiting for approval\n\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "%s %s %s - %s %s (%s)\n", s.Code(), s.Kind, s.Owner.Handle(), money(s.Total()), currency, s.Purpose)
	}
	return clip(b.String())
}

// clip cuts text to one chat message without splitting a rune.
func clip(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
