package services

import (
	"fmt"
	"strings"

	"github.com/anjiri1684/edirpay/models"
)

const (
	currency = "birr"
	rule     = "━━━━━━━━━━━━━━━━━━"

	ApproveLabel = "✅ Approve"
	RejectLabel  = "❌ Reject"

	MsgSendReceipt        = "✅ Your %s %s payment is recorded.\nReference: %s\n\n📷 Now send a photo of your bank receipt."
	MsgSuperseded         = "ℹ️ Your previous unfinished form was replaced by this one."
	MsgReceiptForwarded   = "📩 Your receipt reached the finance officer (reference %s). You will be notified once it is checked."
	MsgLoanForwarded      = "📩 Your loan request %s for %s %s was sent for approval."
	MsgNoPending          = "❌ Please fill in the form in the mini app first, then send the receipt."
	MsgPendingExpired     = "⌛ Your form %s expired before a receipt arrived. Please fill in the form again."
	MsgReceiptReminder    = "⏰ Reminder: we are still waiting for the receipt of %s (%s %s). Send the photo here to finish."
	MsgPaymentApproved    = "✅ Your payment is approved!\nReference: %s\n%s %s was added to your savings. Thank you!"
	MsgPaymentRejected    = "❌ Your payment was rejected.\nReference: %s\nThe receipt could not be verified, please send it again."
	MsgLoanApproved       = "✅ Your loan request %s for %s %s is approved."
	MsgLoanRejected       = "❌ Your loan request %s was not approved."
	MsgTierUp             = "🌟 Tier upgrade!\nMember %s reached the %s tier. 🎉"
	MsgNewPaymentApproval = "🚨 New payment to verify\n" + rule + "\n🆔 Reference: %s\n👤 Member: %s\n🎯 Purpose: %s\n📅 Period: %s\n💰 Amount: %s %s\n⚠️ Penalty: %s\n💵 Total: %s %s\n📝 Note: %s"
	MsgNewLoanApproval    = "🚨 New loan request\n" + rule + "\n🆔 Reference: %s\n👤 Member: %s\n🎯 Purpose: %s\n💰 Amount: %s %s\n🗓 Duration: %d months\n📝 Note: %s"
	MsgDecisionFooter     = "\n\n🏁 Decision: %s\n👤 Approver: %s"
)

func money(v float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.2f", v), "0"), ".0")
}

func statusLabel(status string) (string, string) {
	switch status {
	case models.StatusApproved:
		return "✅", "Approved"
	case models.StatusRejected:
		return "❌", "Rejected"
	case models.StatusAwaitingEvidence:
		return "📷", "Waiting for receipt"
	default:
		return "⏳", "Waiting for approval"
	}
}

func penaltyText(p float64) string {
	if p > 0 {
		return money(p) + " " + currency
	}
	return "none"
}

// GroupReport is the broadcast text for a submission in its current status.
func GroupReport(sub models.Submission) string {
	emoji, label := statusLabel(sub.Status)
	var b strings.Builder
	if sub.Kind == models.KindLoan {
		fmt.Fprintf(&b, "📋 Loan request %s\n%s\n", sub.Code(), rule)
		fmt.Fprintf(&b, "👤 Member: %s\n🎯 Purpose: %s\n💰 Amount: %s %s\n🗓 Duration: %d months\n",
			sub.Owner.Handle(), sub.Purpose, money(sub.Amount), currency, sub.Duration)
	} else {
		fmt.Fprintf(&b, "📋 Payment report %s\n%s\n", sub.Code(), rule)
		fmt.Fprintf(&b, "👤 Member: %s\n🎯 Purpose: %s\n📅 Period: %s\n💰 Amount: %s %s\n⚠️ Penalty: %s\n",
			sub.Owner.Handle(), sub.Purpose, sub.Period, money(sub.Amount), currency, penaltyText(sub.Penalty))
	}
	fmt.Fprintf(&b, "%s\n%s Status: %s", rule, emoji, label)
	return b.String()
}

// ApprovalCaption is the text delivered to each approver.
func ApprovalCaption(sub models.Submission) string {
	note := sub.Note
	if note == "" {
		note = "-"
	}
	if sub.Kind == models.KindLoan {
		return fmt.Sprintf(MsgNewLoanApproval, sub.Code(), sub.Owner.Handle(), sub.Purpose,
			money(sub.Amount), currency, sub.Duration, note)
	}
	return fmt.Sprintf(MsgNewPaymentApproval, sub.Code(), sub.Owner.Handle(), sub.Purpose, sub.Period,
		money(sub.Amount), currency, penaltyText(sub.Penalty), money(sub.Total()), currency, note)
}

func outcomeMessage(sub models.Submission) string {
	switch {
	case sub.Kind == models.KindLoan && sub.Status == models.StatusApproved:
		return fmt.Sprintf(MsgLoanApproved, sub.Code(), money(sub.Amount), currency)
	case sub.Kind == models.KindLoan:
		return fmt.Sprintf(MsgLoanRejected, sub.Code())
	case sub.Status == models.StatusApproved:
		return fmt.Sprintf(MsgPaymentApproved, sub.Code(), money(sub.Total()), currency)
	default:
		return fmt.Sprintf(MsgPaymentRejected, sub.Code())
	}
}

func decisionFooter(sub models.Submission, approver string) string {
	emoji, label := statusLabel(sub.Status)
	return fmt.Sprintf(MsgDecisionFooter, emoji+" "+label, approver)
}

func ReceiptReminder(sub models.Submission) string {
	return fmt.Sprintf(MsgReceiptReminder, sub.Code(), money(sub.Total()), currency)
}
