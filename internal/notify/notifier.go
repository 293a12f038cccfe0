// Package notify turns new signals into chat alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
	"github.com/web3-frozen/llama-sentinel/internal/telegram"
)

// ErrDelivery marks an alert that did not reach the chat.
var ErrDelivery = errors.New("alert delivery failed")

// Sender is the chat transport; *telegram.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string, markup *telegram.InlineKeyboard) error
}

// Telegram sends every alert to one fixed chat.
type Telegram struct {
	sender Sender
	chatID string
}

func NewTelegram(sender Sender, chatID string) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// Notify sends the alert for sig. It makes one attempt.
func (n *Telegram) Notify(ctx context.Context, sig monitor.Signal) error {
	if err := n.sender.SendMessage(ctx, n.chatID, FormatMessage(sig), Keyboard(sig)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDelivery, sig.ID, err)
	}
	return nil
}

// FormatMessage renders the HTML alert body.
func FormatMessage(sig monitor.Signal) string {
	var b strings.Builder
	b.WriteString("🚨 <b>JUNKSCAN SIGNAL</b>\n")
	b.WriteString("\n<b>" + html.EscapeString(sig.Title) + "</b>")
	b.WriteString("\nSource: " + html.EscapeString(sig.Source))
	b.WriteString("\n" + html.EscapeString(sig.Description))
	return b.String()
}

// Keyboard builds the link buttons: the record itself, then the lookup services
// searched by the signal's query.
func Keyboard(sig monitor.Signal) *telegram.InlineKeyboard {
	q := escapeQuery(sig.Query)
	var rows [][]telegram.InlineButton
	// Telegram rejects the whole message if any button URL is empty
	if sig.Link != "" {
		rows = append(rows, []telegram.InlineButton{{Text: "🔗 OPEN SOURCE", URL: sig.Link}})
	}
	rows = append(rows,
		[]telegram.InlineButton{
			{Text: "🔎 ARKHAM", URL: "https://platform.arkhamintelligence.com/explorer/search?q=" + q},
			{Text: "🫧 BUBBLES", URL: "https://app.bubblemaps.io/eth/?q=" + q},
		},
		[]telegram.InlineButton{
			{Text: "📊 DEXSCR", URL: "https://dexscreener.com/search?q=" + q},
			{Text: "🐦 TWITTER", URL: "https://twitter.com/search?q=" + q},
		},
	)
	return &telegram.InlineKeyboard{InlineKeyboard: rows}
}

// escapeQuery encodes s as a URL component, spaces as %20. Everything outside
// the unreserved set, including !'()*, is percent-encoded.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
