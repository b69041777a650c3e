package telegramBot

import (
	"fmt"
	"html"
	"strings"

	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/models/domain"
)

const maxDescriptionRunes = 600

func formatPendingEvent(event domain.Event) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🆕 <b>%s</b>\n\n", html.EscapeString(event.Title))

	if event.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", html.EscapeString(truncate(event.Description, maxDescriptionRunes)))
	}

	if !event.StartAt.IsZero() {
		fmt.Fprintf(&sb, "📅 <b>Starts:</b> %s\n", event.StartAt.Format("02.01.2006 15:04 MST"))
	}

	switch {
	case event.PriceType == domain.PriceFree:
		sb.WriteString("💰 <b>Price:</b> free\n")
	case event.PriceLow != nil && event.PriceHigh != nil && *event.PriceHigh > *event.PriceLow:
		fmt.Fprintf(&sb, "💰 <b>Price:</b> %.2f – %.2f\n", *event.PriceLow, *event.PriceHigh)
	case event.PriceLow != nil:
		fmt.Fprintf(&sb, "💰 <b>Price:</b> %.2f\n", *event.PriceLow)
	}

	fmt.Fprintf(&sb, "🔖 <code>%s</code> · %s\n", event.Status, event.ID)

	if event.SourceURL != "" {
		fmt.Fprintf(&sb, "\n🔗 <a href=\"%s\">Source</a>\n", html.EscapeString(event.SourceURL))
	}

	return sb.String()
}

func formatMigrationSummary(s migration.Summary) string {
	icon := "✅"
	if s.Failed > 0 {
		icon = "⚠️"
	}
	return fmt.Sprintf("%s <b>Media migration finished</b>\nEvents: %d\nSlots: %d\nHosted: %d\nFailed: %d",
		icon, s.Events, s.Slots, s.Succeeded, s.Failed)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
