package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/ccdash/internal/dashboard"
	"github.com/hay-kot/ccdash/internal/styles"
)

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(bannerStyle.Render(styles.Banner))
	b.WriteString("\n")

	managed, plain := 0, 0
	for _, c := range m.cards {
		if c.IsClaudeManaged {
			managed++
		} else {
			plain++
		}
	}

	if len(m.cards) == 0 {
		b.WriteString(emptyStyle.Render("No terminals yet. Press n to start Claude Code."))
		b.WriteString("\n")
	}

	for i, c := range m.cards {
		switch {
		case i == 0 && c.IsClaudeManaged:
			b.WriteString(sectionStyle.Render(fmt.Sprintf("Claude Code (%d)", managed)))
			b.WriteString("\n")
		case !c.IsClaudeManaged && (i == 0 || m.cards[i-1].IsClaudeManaged):
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(sectionStyle.Render(fmt.Sprintf("Terminals (%d)", plain)))
			b.WriteString("\n")
		}
		b.WriteString(renderCard(c, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(metaStyle.Render(" new terminal model: "))
	b.WriteString(modelBadgeStyle.Render(m.modelLabel()))
	b.WriteString("\n")

	if m.state == stateRenaming {
		b.WriteString("\n ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(helpBarStyle.Render(m.help.View(m.keys)))

	out := b.String()
	if m.state == stateConfirming {
		return m.modal.Overlay(out, m.width, m.height)
	}
	return out
}

func (m Model) modelLabel() string {
	if m.modelIdx < 0 || m.modelIdx >= len(m.models) {
		return "default"
	}
	return m.models[m.modelIdx].Label
}

func renderCard(c dashboard.Card, selected bool) string {
	prefix, nameStyle := "  ", normalStyle
	if selected {
		prefix, nameStyle = "> ", selectedStyle
	}

	parts := []string{
		nameStyle.Render(prefix + c.DisplayName()),
		styles.StatusBadge(c.Status),
	}
	if c.IsClaudeManaged && c.Model != "" {
		parts = append(parts, modelBadgeStyle.Render(strings.ToUpper(c.Model[:1])+c.Model[1:]))
	}

	meta := "#" + c.ID
	if c.CreatedAt > 0 {
		meta += " · " + time.UnixMilli(c.CreatedAt).Format("15:04")
	}
	parts = append(parts, metaStyle.Render(meta))

	return strings.Join(parts, "  ")
}
