package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramUI asks the trainer to decide on encounters through inline buttons.
type TelegramUI struct {
	Bot      *tgbotapi.BotAPI
	ChatID   int64
	Logger   *zap.Logger
	channels map[int]chan ports.UserAction
	mu       sync.Mutex
}

func NewTelegramUI(token string, chatIDStr string, logger *zap.Logger) (*TelegramUI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}

	ui := &TelegramUI{
		Bot:      bot,
		ChatID:   chatID,
		Logger:   logger,
		channels: make(map[int]chan ports.UserAction),
	}

	go ui.listen()
	return ui, nil
}

var _ ports.EncounterInteraction = (*TelegramUI)(nil)

func (ui *TelegramUI) listen() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := ui.Bot.GetUpdatesChan(u)

	for update := range updates {
		callback := update.CallbackQuery
		if callback == nil || callback.Message == nil {
			continue
		}

		action := ports.UserAction(callback.Data)
		msgID := callback.Message.MessageID
		if !ui.route(msgID, action) {
			continue
		}

		if _, err := ui.Bot.Request(tgbotapi.NewCallback(callback.ID, actionReply(action))); err != nil {
			ui.Logger.Warn("Failed to answer callback", zap.Error(err))
		}
		edit := tgbotapi.NewEditMessageReplyMarkup(ui.ChatID, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		if _, err := ui.Bot.Send(edit); err != nil {
			ui.Logger.Debug("Failed to clear keyboard", zap.Error(err))
		}
	}
}

// route hands action to the Confirm waiting on msgID. Presses on messages
// nobody waits for any more are dropped.
func (ui *TelegramUI) route(msgID int, action ports.UserAction) bool {
	ui.mu.Lock()
	ch, ok := ui.channels[msgID]
	delete(ui.channels, msgID)
	ui.mu.Unlock()
	if ok {
		ch <- action
	}
	return ok
}

// Stop ends the update loop.
func (ui *TelegramUI) Stop() {
	ui.Bot.StopReceivingUpdates()
}

func (ui *TelegramUI) Confirm(ctx context.Context, title, body string) (ports.UserAction, error) {
	msg := tgbotapi.NewMessage(ui.ChatID, fmt.Sprintf("*[%s]*\n\n%s", escapeMarkdown(title), escapeMarkdown(body)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = decisionKeyboard()

	sent, err := ui.Bot.Send(msg)
	if err != nil {
		return ports.ActionSkip, err
	}
	return ui.await(ctx, sent.MessageID)
}

// ConfirmEncounter posts the creature's sprite with its stats as caption.
// When Telegram cannot fetch the sprite the card is sent as text instead.
func (ui *TelegramUI) ConfirmEncounter(ctx context.Context, c domain.Creature) (ports.UserAction, error) {
	if c.SpriteURL == "" {
		return ui.Confirm(ctx, encounterTitle(c), encounterStats(c))
	}

	photo := tgbotapi.NewPhoto(ui.ChatID, tgbotapi.FileURL(c.SpriteURL))
	photo.Caption = encounterCaption(c)
	photo.ParseMode = tgbotapi.ModeMarkdown
	photo.ReplyMarkup = decisionKeyboard()

	sent, err := ui.Bot.Send(photo)
	if err != nil {
		ui.Logger.Debug("Sprite upload failed, sending text card", zap.Int("id", c.ID), zap.Error(err))
		return ui.Confirm(ctx, encounterTitle(c), encounterStats(c))
	}
	return ui.await(ctx, sent.MessageID)
}

func (ui *TelegramUI) await(ctx context.Context, msgID int) (ports.UserAction, error) {
	respCh := make(chan ports.UserAction, 1)
	ui.mu.Lock()
	ui.channels[msgID] = respCh
	ui.mu.Unlock()

	select {
	case action := <-respCh:
		return action, nil
	case <-ctx.Done():
		ui.mu.Lock()
		delete(ui.channels, msgID)
		ui.mu.Unlock()
		return ports.ActionSkip, ctx.Err()
	}
}

func decisionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚡ Catch", string(ports.ActionApprove)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Another", string(ports.ActionRegenerate)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Let it go", string(ports.ActionSkip)),
		),
	)
}

func encounterTitle(c domain.Creature) string {
	return fmt.Sprintf("A wild %s appeared! #%03d", c.DisplayName(), c.ID)
}

func encounterStats(c domain.Creature) string {
	types := "???"
	if len(c.Types) > 0 {
		types = strings.Join(c.Types, " / ")
	}
	return fmt.Sprintf("Type: %s\nHeight: %.1fm · Weight: %.1fkg",
		types, float64(c.HeightDm)/10, float64(c.WeightDg)/10)
}

func encounterCaption(c domain.Creature) string {
	return fmt.Sprintf("*%s*\n%s", escapeMarkdown(encounterTitle(c)), escapeMarkdown(encounterStats(c)))
}

func actionReply(action ports.UserAction) string {
	switch action {
	case ports.ActionApprove:
		return "Gotcha! ⚡"
	case ports.ActionRegenerate:
		return "Searching the tall grass..."
	default:
		return "It ran away."
	}
}

// escapeMarkdown keeps legacy Markdown parse mode from choking on names.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
