// Package ui is the terminal tree browser for beads issues.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors and base styles of the UI. All styles are created
// through Renderer so tests can render without a terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor

	Open       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Blocked    lipgloss.AdaptiveColor
	Closed     lipgloss.AdaptiveColor

	Bug     lipgloss.AdaptiveColor
	Feature lipgloss.AdaptiveColor
	Task    lipgloss.AdaptiveColor
	Epic    lipgloss.AdaptiveColor
	Chore   lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Marked   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// DefaultTheme returns the Dracula-like palette bt ships with.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6A3FD0", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#8A6D00", Dark: "#F1FA8C"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0A7A8A", Dark: "#8BE9FD"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8F98", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#5C6370", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"},

		Open:       lipgloss.AdaptiveColor{Light: "#1E8E3E", Dark: "#50FA7B"},
		InProgress: lipgloss.AdaptiveColor{Light: "#0A7A8A", Dark: "#8BE9FD"},
		Blocked:    lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5555"},
		Closed:     lipgloss.AdaptiveColor{Light: "#8A8F98", Dark: "#6272A4"},

		Bug:     lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5555"},
		Feature: lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFB86C"},
		Task:    lipgloss.AdaptiveColor{Light: "#8A6D00", Dark: "#F1FA8C"},
		Epic:    lipgloss.AdaptiveColor{Light: "#6A3FD0", Dark: "#BD93F9"},
		Chore:   lipgloss.AdaptiveColor{Light: "#5C6370", Dark: "#BFBFBF"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#F8F8F2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E8E0F8", Dark: "#44475A"}).
		Bold(true)
	t.Marked = r.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Status = r.NewStyle().
		Foreground(t.Subtext).
		Background(lipgloss.AdaptiveColor{Light: "#EDEDED", Dark: "#282A36"}).
		Padding(0, 1)
	t.Error = r.NewStyle().Foreground(t.Blocked).Bold(true)
	return t
}

// GetTypeIcon returns the glyph and color for an issue type.
func (t Theme) GetTypeIcon(typ string) (string, lipgloss.AdaptiveColor) {
	switch typ {
	case "bug":
		return TypeIcon(typ), t.Bug
	case "feature":
		return TypeIcon(typ), t.Feature
	case "task":
		return TypeIcon(typ), t.Task
	case "epic":
		return TypeIcon(typ), t.Epic
	case "chore":
		return TypeIcon(typ), t.Chore
	default:
		return TypeIcon(typ), t.Muted
	}
}

// TypeIcon returns the glyph for an issue type.
func TypeIcon(typ string) string {
	switch typ {
	case "bug":
		return "🐛"
	case "feature":
		return "✨"
	case "task":
		return "📋"
	case "epic":
		return "🏔"
	case "chore":
		return "🧹"
	default:
		return "•"
	}
}

// GetStatusColor returns the color for a status.
func (t Theme) GetStatusColor(status string) lipgloss.AdaptiveColor {
	switch status {
	case "open":
		return t.Open
	case "in_progress", "review", "hooked":
		return t.InProgress
	case "blocked":
		return t.Blocked
	case "closed":
		return t.Closed
	default:
		return t.Subtext
	}
}

// GetStatusIcon returns a one-cell status marker.
func GetStatusIcon(status string) string {
	switch status {
	case "open":
		return "○"
	case "in_progress":
		return "◐"
	case "review":
		return "◑"
	case "blocked":
		return "●"
	case "deferred", "pinned", "hooked":
		return "◇"
	case "closed":
		return "✓"
	default:
		return "·"
	}
}

// GetPriorityIcon renders a priority for the detail pane.
func GetPriorityIcon(priority int) string {
	switch priority {
	case 0:
		return "🔥 P0"
	case 1:
		return "⚡ P1"
	default:
		return fmt.Sprintf("P%d", priority)
	}
}
