package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/anjiri1684/edirpay/models"
	"github.com/anjiri1684/edirpay/notifications"
	"github.com/anjiri1684/edirpay/services"
)

const (
	msgWelcome = "👋 Welcome to EdirPay, %s!\n\n" +
		"📝 Open the form to report a payment or request a loan, then send the receipt photo here.\n\n" +
		"Without the form:\n/pay <amount> <purpose>\n/loan <amount> <months> <purpose>\n/status - your savings"
	msgAdminHelp = "\n\nAdmin:\n/pending - waiting for approval\n/summary - overall numbers\n/report - approved payments\n/backup - CSV backup"
	msgFailed    = "⚠️ Something went wrong, please try again later."
	msgAdminOnly = "⛔ This command is for administrators."
	msgUnknown   = "🤔 Unknown command. Send /start for help."

	cbDone     = "✅ Done"
	cbAlready  = "⚠️ Already processed"
	cbDenied   = "⛔ You are not allowed to decide"
	cbInvalid  = "❌ Invalid action"
	cbNoChange = "⏳ Still waiting for a receipt"
	cbNotFound = "❌ Submission not found"
	cbFailed   = "⚠️ Failed, try again"
)

// BackupSender sends a full CSV backup to a chat.
type BackupSender interface {
	SendTo(ctx context.Context, chatID int64) error
}

type BotConfig struct {
	MiniAppURL string
	AdminIDs   []int64
}

// BotHandler turns Telegram updates into pipeline and approval calls.
type BotHandler struct {
	api       notifications.API
	ledger    *services.Ledger
	pipeline  *services.Pipeline
	approvals *services.Approvals
	reports   *services.Reports
	backup    BackupSender
	cfg       BotConfig
	admins    map[int64]bool
}

func NewBotHandler(api notifications.API, l *services.Ledger, p *services.Pipeline, a *services.Approvals, r *services.Reports, b BackupSender, cfg BotConfig) *BotHandler {
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	return &BotHandler{api: api, ledger: l, pipeline: p, approvals: a, reports: r, backup: b, cfg: cfg, admins: admins}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	msg := upd.Message
	if msg == nil || msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	who := identityOf(msg.From)

	switch {
	case len(msg.Photo) > 0:
		// the last size is the largest
		h.handleEvidence(ctx, msg.Chat.ID, who, msg.Photo[len(msg.Photo)-1].FileID)
	case msg.Document != nil:
		h.handleEvidence(ctx, msg.Chat.ID, who, notifications.DocumentPrefix+msg.Document.FileID)
	case msg.IsCommand():
		h.handleCommand(ctx, msg, who)
	}
}

func (h *BotHandler) handleCommand(ctx context.Context, msg *tgbotapi.Message, who services.Identity) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, chatID, who)
	case "status":
		h.handleStatus(ctx, chatID, who)
	case "pay":
		h.handleTextForm(ctx, chatID, who, ParsePayCommand, msg.CommandArguments())
	case "loan":
		h.handleTextForm(ctx, chatID, who, ParseLoanCommand, msg.CommandArguments())
	case "pending", "summary", "report", "backup":
		if !h.admins[who.ID] {
			h.reply(chatID, msgAdminOnly)
			return
		}
		h.handleAdmin(ctx, chatID, msg.Command())
	default:
		h.reply(chatID, msgUnknown)
	}
}

func (h *BotHandler) handleStart(ctx context.Context, chatID int64, who services.Identity) {
	m, err := h.ledger.UpsertMember(ctx, who.ID, who.Username, who.FullName)
	if err != nil {
		log.Printf("🔥 upsert member %d: %v", who.ID, err)
		h.reply(chatID, msgFailed)
		return
	}
	text := fmt.Sprintf(msgWelcome, m.Handle())
	if h.admins[who.ID] {
		text += msgAdminHelp
	}
	out := tgbotapi.NewMessage(chatID, text)
	if h.cfg.MiniAppURL != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("📝 Open form", h.cfg.MiniAppURL)),
		)
	}
	if _, err := h.api.Send(out); err != nil {
		log.Printf("🔥 send welcome to %d: %v", chatID, err)
	}
}

func (h *BotHandler) handleStatus(ctx context.Context, chatID int64, who services.Identity) {
	rep, err := h.reports.MemberStatus(ctx, who.ID)
	if errors.Is(err, services.ErrMemberNotFound) {
		h.reply(chatID, "You are not registered yet. Send /start first.")
		return
	}
	if err != nil {
		log.Printf("🔥 member status %d: %v", who.ID, err)
		h.reply(chatID, msgFailed)
		return
	}
	h.reply(chatID, services.FormatMemberStatus(rep))
}

func (h *BotHandler) handleTextForm(ctx context.Context, chatID int64, who services.Identity, parse func(string) (services.Payload, error), args string) {
	p, err := parse(args)
	if err != nil {
		h.reply(chatID, replyForError(err))
		return
	}
	if _, err := h.pipeline.SubmitForm(ctx, who, p); err != nil {
		h.reply(chatID, replyForError(err))
	}
}

func (h *BotHandler) handleEvidence(ctx context.Context, chatID int64, who services.Identity, ref string) {
	if _, err := h.pipeline.SubmitEvidence(ctx, who, ref); err != nil {
		h.reply(chatID, replyForError(err))
	}
}

func (h *BotHandler) handleAdmin(ctx context.Context, chatID int64, command string) {
	var (
		text string
		err  error
	)
	switch command {
	case "pending":
		var subs []models.Submission
		subs, _, err = h.ledger.ListByStatus(ctx, models.StatusPendingApproval, 50, 0)
		text = services.FormatPending(subs)
	case "summary":
		var s services.Summary
		s, err = h.reports.Summary(ctx)
		text = services.FormatSummary(s)
	case "report":
		var subs []models.Submission
		subs, err = h.reports.RecentApproved(ctx, 100)
		text = services.FormatApprovedList(subs)
	case "backup":
		if h.backup == nil {
			h.reply(chatID, "Backup is not configured.")
			return
		}
		if err := h.backup.SendTo(ctx, chatID); err != nil {
			log.Printf("🔥 backup to %d: %v", chatID, err)
			h.reply(chatID, msgFailed)
		}
		return
	}
	if err != nil {
		log.Printf("🔥 /%s: %v", command, err)
		h.reply(chatID, msgFailed)
		return
	}
	h.reply(chatID, text)
}

func (h *BotHandler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}
	req, err := services.ParseDecisionRequest(q.Data, q.From.ID, actorName(q.From))
	if err != nil {
		h.answer(q.ID, cbInvalid, false)
		return
	}
	if _, err := h.approvals.Decide(ctx, req); err != nil {
		text, alert := callbackReply(err)
		h.answer(q.ID, text, alert)
		return
	}
	h.answer(q.ID, cbDone, false)
}

func callbackReply(err error) (string, bool) {
	var (
		already *services.AlreadyDecidedError
		invalid *services.ValidationError
	)
	switch {
	case errors.As(err, &already) && already.Status == models.StatusAwaitingEvidence:
		return cbNoChange, true
	case errors.As(err, &already):
		return cbAlready, true
	case errors.Is(err, services.ErrUnauthorized):
		return cbDenied, true
	case errors.Is(err, services.ErrNotFound):
		return cbNotFound, true
	case errors.As(err, &invalid):
		return cbInvalid, false
	default:
		log.Printf("🔥 decision failed: %v", err)
		return cbFailed, true
	}
}

// replyForError maps a pipeline error to what the member is told.
func replyForError(err error) string {
	var invalid *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNoPendingSubmission):
		return services.MsgNoPending
	case errors.As(err, &invalid):
		return "❌ " + invalid.Reason
	default:
		log.Printf("🔥 %v", err)
		return msgFailed
	}
}

func (h *BotHandler) answer(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := h.api.Request(cb); err != nil {
		log.Printf("⚠️ answer callback: %v", err)
	}
}

func (h *BotHandler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("🔥 reply to %d: %v", chatID, err)
	}
}

func identityOf(u *tgbotapi.User) services.Identity {
	return services.Identity{
		ID:       u.ID,
		Username: u.UserName,
		FullName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

func actorName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return ""
}
