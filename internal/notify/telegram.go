package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

const maxNameLen = 40

// botClient is the slice of the Telegram bot API the notifier uses.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier implements Notifier over the Telegram bot API.
type TelegramNotifier struct {
	bot botClient
}

// NewTelegramNotifier creates a notifier authenticated with the given bot
// token.
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

// newTelegramNotifierWithClient is the test seam.
func newTelegramNotifierWithClient(bot botClient) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

// SendPriceAlert sends a Markdown alert message with a product link
// button to the alert's chat.
func (n *TelegramNotifier) SendPriceAlert(ctx context.Context, alert PriceAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(alert.ChatID, buildAlertMessage(alert))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🛒 Ver Produto", alert.ProductURL),
		),
	)

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram alert: %w", err)
	}
	return nil
}

func buildAlertMessage(alert PriceAlert) string {
	change := alert.NewPrice - alert.OldPrice
	var changePct float64
	if alert.OldPrice > 0 {
		changePct = change / alert.OldPrice * 100
	}

	name := alert.ProductName
	if len([]rune(name)) > maxNameLen {
		name = string([]rune(name)[:maxNameLen]) + "..."
	}

	return fmt.Sprintf(`%s *ALERTA DE PREÇO!*

📦 *%s*

💰 *Preço:*
• Anterior: R$ %.2f
• Atual: R$ %.2f
• Economia: R$ %.2f (%.1f%%)

🕒 %s

🛒 Aproveite a oferta!`,
		alertEmoji(alert.AlertType),
		name,
		alert.OldPrice,
		alert.NewPrice,
		abs(change),
		abs(changePct),
		alertTypeLabel(alert.AlertType),
	)
}

func alertEmoji(t types.AlertType) string {
	switch t {
	case types.AlertStatic:
		return "💰"
	case types.AlertPercentage:
		return "📊"
	case types.AlertLowestEver:
		return "🎯"
	default:
		return "🔔"
	}
}

func alertTypeLabel(t types.AlertType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
