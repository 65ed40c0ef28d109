package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/anjiri1684/edirpay/services"
)

// DocumentPrefix marks an evidence reference that was sent as a file rather
// than a compressed photo.
const DocumentPrefix = "document:"

// API is the part of *tgbotapi.BotAPI the notifier uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramNotifier delivers messages through the Bot API.
type TelegramNotifier struct {
	api API
}

func NewTelegramNotifier(api API) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// NotifyWithImage sends text as the caption of the evidence, or as a plain
// message when there is none, with the actions as an inline keyboard.
func (n *TelegramNotifier) NotifyWithImage(ctx context.Context, chatID int64, evidenceRef, text string, actions []services.Action) (services.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return services.MessageRef{}, err
	}
	markup := keyboard(actions)

	var c tgbotapi.Chattable
	switch {
	case evidenceRef == "":
		msg := tgbotapi.NewMessage(chatID, text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		c = msg
	case strings.HasPrefix(evidenceRef, DocumentPrefix):
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(strings.TrimPrefix(evidenceRef, DocumentPrefix)))
		doc.Caption = text
		if markup != nil {
			doc.ReplyMarkup = *markup
		}
		c = doc
	default:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(evidenceRef))
		photo.Caption = text
		if markup != nil {
			photo.ReplyMarkup = *markup
		}
		c = photo
	}

	sent, err := n.api.Send(c)
	if err != nil {
		return services.MessageRef{}, fmt.Errorf("send approval request: %w", err)
	}
	return services.MessageRef{ChatID: chatID, MessageID: sent.MessageID, HasPhoto: evidenceRef != ""}, nil
}

func (n *TelegramNotifier) Publish(ctx context.Context, chatID int64, text string) (services.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return services.MessageRef{}, err
	}
	sent, err := n.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return services.MessageRef{}, fmt.Errorf("publish: %w", err)
	}
	return services.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// UpdateMessage replaces the text of a delivered message and drops its
// buttons. Media messages get their caption edited instead.
func (n *TelegramNotifier) UpdateMessage(ctx context.Context, ref services.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}

	var c tgbotapi.Chattable
	if ref.HasPhoto {
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, text)
		edit.ReplyMarkup = &empty
		c = edit
	} else {
		edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
		edit.ReplyMarkup = &empty
		c = edit
	}
	if _, err := n.api.Request(c); err != nil {
		return fmt.Errorf("edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (n *TelegramNotifier) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := n.api.Send(doc); err != nil {
		return fmt.Errorf("send document %s: %w", name, err)
	}
	log.Printf("✅ Sent %s to %d", name, chatID)
	return nil
}

// FileURL resolves an evidence reference to a download link for archiving.
func (n *TelegramNotifier) FileURL(_ context.Context, evidenceRef string) (string, error) {
	return n.api.GetFileDirectURL(strings.TrimPrefix(evidenceRef, DocumentPrefix))
}

func keyboard(actions []services.Action) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}
