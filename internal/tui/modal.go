package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Modal is a confirmation dialog.
type Modal struct {
	title           string
	message         string
	visible         bool
	confirmSelected bool
}

// NewModal creates a visible modal with the confirm button selected.
func NewModal(title, message string) Modal {
	return Modal{
		title:           title,
		message:         message,
		visible:         true,
		confirmSelected: true,
	}
}

// ToggleSelection switches the selected button.
func (m *Modal) ToggleSelection() {
	m.confirmSelected = !m.confirmSelected
}

// ConfirmSelected reports whether the confirm button is selected.
func (m Modal) ConfirmSelected() bool {
	return m.confirmSelected
}

// Visible reports whether the modal should be drawn.
func (m Modal) Visible() bool {
	return m.visible
}

// Overlay draws the modal centred in a width x height area in place of
// background.
func (m Modal) Overlay(background string, width, height int) string {
	if !m.visible {
		return background
	}

	confirmBtn, cancelBtn := modalButtonStyle.Render("Close"), modalButtonSelectedStyle.Render("Cancel")
	if m.confirmSelected {
		confirmBtn, cancelBtn = modalButtonSelectedStyle.Render("Close"), modalButtonStyle.Render("Cancel")
	}

	buttons := lipgloss.NewStyle().MarginTop(1).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, confirmBtn, "  ", cancelBtn),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		modalTitleStyle.Render(m.title),
		"",
		m.message,
		buttons,
		modalHelpStyle.Render("←/→ select  enter confirm  esc cancel"),
	)

	if width <= 0 || height <= 0 {
		return modalStyle.Render(content)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}
