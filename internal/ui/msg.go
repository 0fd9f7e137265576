package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

// Tea message types for UI communication

// RouterMsg represents navigation between screens. RecordID selects the
// position for RouteDetail and, when set, puts RouteCalculator into edit mode.
type RouterMsg struct {
	To       Route
	RecordID string
}

// PositionSavedMsg is sent after the calculator stores a position
type PositionSavedMsg struct {
	Record portfolio.Record
	Edited bool
}

// PositionDeletedMsg is sent after a position is removed from the portfolio
type PositionDeletedMsg struct {
	ID string
}

// ExportDoneMsg carries the result of an export run
type ExportDoneMsg struct {
	Paths []string
	Err   error
}

// ErrorMsg represents error conditions
type ErrorMsg struct {
	Error error
	Title string
}

// SuccessMsg represents success conditions
type SuccessMsg struct {
	Message string
	Title   string
}

// BusMsg wraps a message delivered through Bus so the application model can
// re-arm the listener exactly once per delivery.
type BusMsg struct {
	Msg tea.Msg
}

// Bus is the global event bus for notifications raised outside Update
var Bus = make(chan tea.Msg, 64)

var (
	busSent    uint64
	busDropped uint64
)

func publish(msg tea.Msg) {
	select {
	case Bus <- msg:
		atomic.AddUint64(&busSent, 1)
	default:
		// Bus is full, drop the notification
		atomic.AddUint64(&busDropped, 1)
	}
}

// BusStats returns how many notifications were delivered and dropped.
func BusStats() (sent, dropped uint64) {
	return atomic.LoadUint64(&busSent), atomic.LoadUint64(&busDropped)
}

// PublishError publishes an error message to the UI bus
func PublishError(err error, title string) {
	publish(ErrorMsg{Error: err, Title: title})
}

// PublishSuccess publishes a success message to the UI bus
func PublishSuccess(message, title string) {
	publish(SuccessMsg{Message: message, Title: title})
}

// ListenBus returns a tea.Cmd that waits for the next bus message
func ListenBus() tea.Cmd {
	return func() tea.Msg {
		return BusMsg{Msg: <-Bus}
	}
}

// Route represents different screens in the application
type Route int

const (
	RoutePortfolio Route = iota
	RouteCalculator
	RouteDetail
	RouteLogs
)

// String returns the string representation of the route
func (r Route) String() string {
	switch r {
	case RoutePortfolio:
		return "portfolio"
	case RouteCalculator:
		return "calculator"
	case RouteDetail:
		return "detail"
	case RouteLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// Navigate returns a command that requests navigation to route
func Navigate(route Route, recordID string) tea.Cmd {
	return func() tea.Msg {
		return RouterMsg{To: route, RecordID: recordID}
	}
}
