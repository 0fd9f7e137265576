package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// HelpBar represents a help bar component showing keyboard shortcuts
type HelpBar struct {
	keyBindings []key.Binding
	width       int

	keyStyle       lipgloss.Style
	descStyle      lipgloss.Style
	sepStyle       lipgloss.Style
	containerStyle lipgloss.Style
}

// NewHelpBar creates a new help bar component
func NewHelpBar() *HelpBar {
	palette := style.DefaultPalette()

	return &HelpBar{
		width: 80,

		keyStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		descStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		sepStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		containerStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Margin(1, 0, 0, 0),
	}
}

// SetKeyBindings sets the key bindings to display
func (h *HelpBar) SetKeyBindings(bindings []key.Binding) *HelpBar {
	h.keyBindings = bindings
	return h
}

// SetWidth sets the help bar width
func (h *HelpBar) SetWidth(width int) *HelpBar {
	h.width = width
	return h
}

// View renders the help bar, wrapping onto more lines when it does not fit
func (h *HelpBar) View() string {
	items := h.items()
	if len(items) == 0 {
		return ""
	}

	separator := h.sepStyle.Render(" • ")
	content := wrapItems(items, h.width-4, separator)
	return h.containerStyle.Render(content)
}

// items renders "key description" pairs for the enabled bindings
func (h *HelpBar) items() []string {
	items := make([]string, 0, len(h.keyBindings))
	for _, binding := range h.keyBindings {
		if !binding.Enabled() {
			continue
		}
		help := binding.Help()
		if help.Key == "" || help.Desc == "" {
			continue
		}
		items = append(items, h.keyStyle.Render(help.Key)+" "+h.descStyle.Render(help.Desc))
	}
	return items
}

func wrapItems(items []string, maxWidth int, separator string) string {
	var lines []string
	var currentLine []string
	currentWidth := 0
	sepWidth := lipgloss.Width(separator)

	for _, item := range items {
		itemWidth := lipgloss.Width(item) + sepWidth
		if currentWidth+itemWidth > maxWidth && len(currentLine) > 0 {
			lines = append(lines, strings.Join(currentLine, separator))
			currentLine = nil
			currentWidth = 0
		}
		currentLine = append(currentLine, item)
		currentWidth += itemWidth
	}
	if len(currentLine) > 0 {
		lines = append(lines, strings.Join(currentLine, separator))
	}
	return strings.Join(lines, "\n")
}
