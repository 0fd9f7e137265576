package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the application
type KeyMap struct {
	// Global navigation
	Quit key.Binding
	Back key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding

	// Application specific
	NewPosition key.Binding
	Logs        key.Binding

	// Position management
	Save    key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Export  key.Binding
	Refresh key.Binding
	Reset   key.Binding

	// Logs
	FilterInfo  key.Binding
	FilterWarn  key.Binding
	FilterError key.Binding
	FilterAll   key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev"),
		),

		NewPosition: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new position"),
		),
		Logs: key.NewBinding(
			key.WithKeys("f12", "L"),
			key.WithHelp("F12", "logs"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/F5", "refresh"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset"),
		),

		FilterInfo: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "info"),
		),
		FilterWarn: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "warn"),
		),
		FilterError: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "error"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "all"),
		),
	}
}

// ShortHelp returns key help text for the current context
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Quit}
}

// ContextualHelp returns help text based on the current route
func (k KeyMap) ContextualHelp(route Route) []key.Binding {
	switch route {
	case RoutePortfolio:
		return []key.Binding{k.Up, k.Down, k.Enter, k.NewPosition, k.Edit, k.Delete, k.Export, k.Refresh, k.Logs, k.Quit}
	case RouteCalculator:
		return []key.Binding{k.Tab, k.ShiftTab, k.Save, k.Reset, k.Back, k.Quit}
	case RouteDetail:
		return []key.Binding{k.Edit, k.Delete, k.Back, k.Quit}
	case RouteLogs:
		return []key.Binding{k.Up, k.Down, k.FilterInfo, k.FilterWarn, k.FilterError, k.FilterAll, k.Back, k.Quit}
	default:
		return k.ShortHelp()
	}
}
