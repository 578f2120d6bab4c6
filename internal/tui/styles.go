// Package tui implements the Bubble Tea dashboard for ccdash.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/ccdash/internal/styles"
)

var (
	bannerStyle = styles.BannerStyle.
			PaddingLeft(1).
			PaddingBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorBlue).
			PaddingLeft(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(styles.ColorBlue).
			Bold(true)

	normalStyle = lipgloss.NewStyle()

	metaStyle = lipgloss.NewStyle().
			Foreground(styles.ColorGray)

	modelBadgeStyle = lipgloss.NewStyle().
			Foreground(styles.ColorWhite).
			Background(lipgloss.Color("#3b4261")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.ColorRed).
			PaddingLeft(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(styles.ColorGray).
			Italic(true).
			PaddingLeft(2)

	helpBarStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingTop(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.ColorBlue).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorWhite)

	modalHelpStyle = lipgloss.NewStyle().
			Foreground(styles.ColorGray).
			MarginTop(1)

	modalButtonStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("#3b4261")).
				Foreground(lipgloss.Color("#a9b1d6"))

	modalButtonSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(styles.ColorBlue).
					Foreground(lipgloss.Color("#1a1b26")).
					Bold(true)
)
