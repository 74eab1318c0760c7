package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MoexSentinel/internal/model"
)

// Digest is everything one daily message reports.
type Digest struct {
	Date         time.Time
	Ranked       []model.Recommendation
	Summary      model.Summary
	Personalized []model.PersonalizedAction
	Event        *model.EventSignal
}

var actionIcons = map[model.Action]string{
	model.ActionBuy:  "🟢",
	model.ActionHold: "⚪",
	model.ActionSell: "🔴",
}

var levelIcons = map[model.EventLevel]string{
	model.EventHighProbability:   "🚀",
	model.EventMediumProbability: "📈",
	model.EventLow:               "➖",
	model.EventNegativeSignal:    "⚠️",
}

// FormatDigest formats the daily report into a Telegram HTML message.
func FormatDigest(d Digest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>MoexSentinel</b> | %s\n\n", d.Date.Format("2006-01-02")))

	s := d.Summary
	b.WriteString(fmt.Sprintf("Instruments: %d | BUY %d | HOLD %d | SELL %d", s.Total, s.Buy, s.Hold, s.Sell))
	if s.Failed > 0 {
		b.WriteString(fmt.Sprintf(" | failed %d", s.Failed))
	}
	b.WriteString("\n\n")

	if len(s.TopBuys) > 0 {
		b.WriteString("🟢 <b>Top buys:</b>\n")
		for _, r := range s.TopBuys {
			writeTopLine(&b, r)
		}
		b.WriteString("\n")
	}
	if len(s.TopSells) > 0 {
		b.WriteString("🔴 <b>Top sells:</b>\n")
		for _, r := range s.TopSells {
			writeTopLine(&b, r)
		}
		b.WriteString("\n")
	}

	b.WriteString("📋 <b>Ranking:</b>\n")
	for i, r := range d.Ranked {
		if r.Error != "" {
			b.WriteString(fmt.Sprintf("%d. %s ❌ %s\n", i+1, html.EscapeString(r.Symbol), html.EscapeString(r.Error)))
			continue
		}
		b.WriteString(fmt.Sprintf("%d. %s %s %s %+.2f (%s)\n",
			i+1, actionIcons[r.Action], html.EscapeString(r.Symbol), r.Action, r.Score, r.Confidence))
	}

	if len(d.Personalized) > 0 {
		b.WriteString("\n💼 <b>Portfolio actions:</b>\n")
		for _, a := range d.Personalized {
			if a.QtySuggested == 0 || a.Action == model.ActionHold {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s %s × %d @ %.2f (cash %+.2f, held %d)\n",
				a.Action, html.EscapeString(a.Symbol), a.QtySuggested, a.Price, a.CashImpact, a.CurrentPosition))
		}
	}

	if d.Event != nil {
		b.WriteString("\n")
		b.WriteString(FormatEventSignal(d.Event))
	}
	return b.String()
}

func writeTopLine(b *strings.Builder, r model.Recommendation) {
	b.WriteString(fmt.Sprintf("  %s %.2f ₽ score %+.2f", html.EscapeString(r.Symbol), r.Price, r.Score))
	if hint := r.SizingHint.String(); hint != "" {
		b.WriteString(fmt.Sprintf(" [%s]", hint))
	}
	b.WriteString("\n")
	for _, reason := range r.Reasons {
		b.WriteString(fmt.Sprintf("    · %s\n", html.EscapeString(reason)))
	}
}

// FormatEventSignal formats an event signal with its strongest items.
func FormatEventSignal(sig *model.EventSignal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Event signal:</b> %s\n", levelIcons[sig.Level], sig.Level))
	b.WriteString(html.EscapeString(sig.Reason))
	b.WriteString("\n")

	st := sig.Stats
	b.WriteString(fmt.Sprintf("Items %d | relevant %d | avg %+.2f", st.Total, st.Relevant, st.AvgScore))
	if sig.LLMUsed {
		b.WriteString(" | LLM")
	}
	b.WriteString("\n")

	for _, it := range sig.TopItems {
		title := it.Item.Title
		if it.Item.Link != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(it.Item.Link), html.EscapeString(title))
		} else {
			title = html.EscapeString(title)
		}
		b.WriteString(fmt.Sprintf("  %+.2f %s (%s)\n", it.CombinedScore, title, html.EscapeString(it.Item.Source)))
	}
	return b.String()
}
