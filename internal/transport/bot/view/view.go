package view

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/samber/lo"

	"nft_market/internal/domain/entity"
)

const (
	StartMessage = "👋 <b>NFT market</b>\n\n" +
		"/sale <code>collection</code> <code>asset</code> - продажа\n" +
		"/settlement <code>id</code> - расчёт по покупке\n" +
		"/recover - перезапустить зависшие расчёты"

	SaleUsage       = "❌ Использование: /sale <code>collection</code> <code>asset</code>"
	SettlementUsage = "❌ Использование: /settlement <code>id</code>"
	RecoverDone     = "✅ Перезапущено расчётов: %d"
	ErrorTemplate   = "❌ <code>%s</code>: %s"
)

func Sale(sale *entity.Sale) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🎁 <b>%s</b>\n", html.EscapeString(sale.Key().String()))
	fmt.Fprintf(&sb, "👤 <b>Владелец:</b> %s\n", html.EscapeString(sale.OwnerID.String()))
	fmt.Fprintf(&sb, "🔑 <b>Approval:</b> %d\n", sale.ApprovalID)

	currencies := lo.Keys(sale.Conditions)
	slices.Sort(currencies)

	for _, currency := range currencies {
		fmt.Fprintf(&sb, "💰 %s: %s\n", html.EscapeString(currency.String()), sale.Conditions[currency])
	}

	return sb.String()
}

func Settlement(settlement *entity.Settlement) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🧾 <b>Расчёт</b> <code>%s</code>\n", settlement.ID)
	fmt.Fprintf(&sb, "📌 <b>Статус:</b> %s\n", settlement.Status)
	fmt.Fprintf(&sb, "🎁 <b>Лот:</b> %s\n", html.EscapeString(settlement.ListingKey.String()))
	fmt.Fprintf(&sb, "👤 <b>Покупатель:</b> %s\n", html.EscapeString(settlement.BuyerID.String()))
	fmt.Fprintf(&sb, "💰 <b>Цена:</b> %s %s\n", settlement.Price, html.EscapeString(settlement.Currency.String()))

	if settlement.FailureReason != "" {
		fmt.Fprintf(&sb, "⚠️ <b>Причина:</b> %s\n", settlement.FailureReason)
	}

	return sb.String()
}
