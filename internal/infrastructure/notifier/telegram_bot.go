package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"nft_market/internal/domain/entity"
	"nft_market/pkg/contextx"
	"nft_market/pkg/logx"
)

const queueSize = 64

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramBot сообщает в чат о каждом завершённом расчёте.
type TelegramBot struct {
	bot    sender
	chatID int64
	queue  chan *entity.Settlement
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return newTelegramBot(bot, chatID), nil
}

func newTelegramBot(bot sender, chatID int64) *TelegramBot {
	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan *entity.Settlement, queueSize),
	}
}

// SettlementResolved ставит уведомление в очередь и не блокирует расчёт.
// При переполненной очереди уведомление теряется.
func (b *TelegramBot) SettlementResolved(ctx context.Context, settlement *entity.Settlement) {
	select {
	case b.queue <- settlement:
	default:
		logger(ctx).Warn("notification queue is full, dropping",
			slog.String(logx.FieldSettlementID, settlement.ID),
		)
	}
}

// Run отправляет уведомления из очереди.
func (b *TelegramBot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case settlement := <-b.queue:
			if err := b.SendSettlement(ctx, settlement); err != nil {
				logger(ctx).Error("failed to send settlement",
					slog.String(logx.FieldSettlementID, settlement.ID),
					logx.Error(err),
				)
			}
		}
	}
}

func (b *TelegramBot) SendSettlement(ctx context.Context, settlement *entity.Settlement) error {
	msg := tu.Message(
		tu.ID(b.chatID),
		FormatSettlement(settlement),
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func FormatSettlement(settlement *entity.Settlement) string {
	var sb strings.Builder

	if settlement.Status == entity.SettlementPaid {
		sb.WriteString("✅ <b>Продажа оплачена</b>\n\n")
	} else {
		sb.WriteString("↩️ <b>Покупка возвращена</b>\n\n")
	}

	fmt.Fprintf(&sb, "🎁 <b>Лот:</b> <code>%s</code>\n", html.EscapeString(settlement.ListingKey.String()))
	fmt.Fprintf(&sb, "👤 <b>Покупатель:</b> %s\n", html.EscapeString(settlement.BuyerID.String()))
	fmt.Fprintf(&sb, "💰 <b>Цена:</b> %s %s\n", settlement.Price, html.EscapeString(settlement.Currency.String()))

	for _, receiver := range settlement.Payout.Receivers() {
		fmt.Fprintf(&sb, "   • %s: %s\n", html.EscapeString(receiver.String()), settlement.Payout[receiver])
	}

	if settlement.FailureReason != "" {
		fmt.Fprintf(&sb, "⚠️ <b>Причина:</b> %s\n", settlement.FailureReason)
	}

	if !settlement.Leftover.IsZero() {
		fmt.Fprintf(&sb, "🔁 <b>К возврату токеном:</b> %s\n", settlement.Leftover)
	}

	fmt.Fprintf(&sb, "\n<code>%s</code>", settlement.ID)

	return sb.String()
}
