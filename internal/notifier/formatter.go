package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"StockAlert/internal/model"
)

// FormatAlert formats a trigger into a Telegram message.
func FormatAlert(key string, alert model.Alert, q model.Quote, reason string, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔔 <b>%s</b> | %s\n\n", html.EscapeString(alert.Symbol), at.Local().Format(model.TimeLayout)))
	b.WriteString(fmt.Sprintf("Condition: <code>%s</code>\n", html.EscapeString(alert.Condition())))
	b.WriteString(fmt.Sprintf("Reason: %s\n\n", html.EscapeString(reason)))
	b.WriteString(fmt.Sprintf("Price: %.2f | Day: %+.2f%% | Volume: %d\n", q.Price, q.PctDay, q.Volume))
	if alert.CooldownSeconds > 0 {
		b.WriteString(fmt.Sprintf("Cooldown: %s\n", (time.Duration(alert.CooldownSeconds) * time.Second).String()))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", html.EscapeString(key)))
	return b.String()
}

// FormatQuoteLine renders one quote for console output.
func FormatQuoteLine(q model.Quote) string {
	return fmt.Sprintf("%s: price=%s pct_day=%s%% volume=%d",
		q.Symbol, model.FormatNumber(q.Price), model.FormatNumber(q.PctDay), q.Volume)
}

// FormatQuotes renders a tick's quotes, one per line, sorted by symbol.
func FormatQuotes(quotes map[string]model.Quote) string {
	symbols := make([]string, 0, len(quotes))
	for sym := range quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	lines := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		q := quotes[sym]
		if q.Symbol == "" {
			q.Symbol = sym
		}
		lines = append(lines, FormatQuoteLine(q))
	}
	return strings.Join(lines, "\n")
}
