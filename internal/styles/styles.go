// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorRed    = lipgloss.Color("#f7768e")
	ColorGray   = lipgloss.Color("#565f89")
	ColorWhite  = lipgloss.Color("#c0caf5")
)

// Banner ASCII art for the header.
const Banner = `
 ╔═╗╔═╗╔╦╗╔═╗╔═╗╦ ╦
 ║  ║   ║║╠═╣╚═╗╠═╣
 ╚═╝╚═╝═╩╝╩ ╩╚═╝╩ ╩`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// DividerStyle styles horizontal dividers.
var DividerStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// FormTheme is the huh theme used by interactive prompts.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorBlue).Bold(true)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorGreen)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorGreen)
	t.Focused.Description = t.Focused.Description.Foreground(ColorGray)
	return t
}

// StatusColor returns the badge colour for a terminal status.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "active":
		return ColorGreen
	case "pending":
		return ColorYellow
	case "idle":
		return ColorBlue
	case "exited":
		return ColorRed
	default:
		return ColorGray
	}
}

// StatusLabel returns the human label for a terminal status. Plain shells
// read as "Terminal".
func StatusLabel(status string) string {
	switch status {
	case "active":
		return "Active"
	case "pending":
		return "Pending"
	case "idle":
		return "Idle"
	case "exited":
		return "Exited"
	case "plain":
		return "Terminal"
	default:
		return status
	}
}

// StatusBadge renders a coloured dot and label for status.
func StatusBadge(status string) string {
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render("● " + StatusLabel(status))
}
