package router

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/margin-tracker/internal/ui"
)

// Screen represents a screen that can be navigated to
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	SetSize(width, height int)
}

type entry struct {
	at     ui.RouterMsg
	screen Screen
}

// Router manages navigation between screens using a stack-based approach.
// Each screen is stored with the navigation that opened it, so a route is on
// the stack at most once. Building screens is left to the application model.
type Router struct {
	stack  []entry
	width  int
	height int
}

// New creates a router rooted at the portfolio screen.
func New(portfolio Screen) *Router {
	return &Router{
		stack: []entry{{at: ui.RouterMsg{To: ui.RoutePortfolio}, screen: portfolio}},
	}
}

func (r *Router) top() Screen {
	return r.stack[len(r.stack)-1].screen
}

// Init initializes the router
func (r *Router) Init() tea.Cmd {
	return r.top().Init()
}

// Update processes messages and updates the current screen
func (r *Router) Update(msg tea.Msg) (*Router, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.SetSize(msg.Width, msg.Height)
		return r, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && r.CanGoBack() {
			return r, r.Back()
		}
	}

	updated, cmd := r.top().Update(msg)
	r.stack[len(r.stack)-1].screen = updated
	return r, cmd
}

// View renders the current screen
func (r *Router) View() string {
	return r.top().View()
}

// SetSize sets the size for the router and current screen
func (r *Router) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.top().SetSize(width, height)
}

// Push opens screen for at. A route already on the stack is not opened twice:
// Push returns to it instead and screen is discarded.
func (r *Router) Push(at ui.RouterMsg, screen Screen) tea.Cmd {
	if cmd, ok := r.PopTo(at); ok {
		return cmd
	}
	screen.SetSize(r.width, r.height)
	r.stack = append(r.stack, entry{at: at, screen: screen})
	return screen.Init()
}

// PopTo unwinds the stack to the screen opened for at. It reports false and
// leaves the stack alone when at is not open.
func (r *Router) PopTo(at ui.RouterMsg) (tea.Cmd, bool) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].at != at {
			continue
		}
		if i == len(r.stack)-1 {
			return nil, true
		}
		r.stack = r.stack[:i+1]
		return r.reveal(), true
	}
	return nil, false
}

// Back drops the current screen. The root screen is never popped.
func (r *Router) Back() tea.Cmd {
	if !r.CanGoBack() {
		return nil
	}
	r.stack = r.stack[:len(r.stack)-1]
	return r.reveal()
}

// reveal re-initializes the uncovered screen so it picks up changes made
// above it.
func (r *Router) reveal() tea.Cmd {
	current := r.top()
	current.SetSize(r.width, r.height)
	return current.Init()
}

// Current returns the current screen
func (r *Router) Current() Screen {
	return r.top()
}

// Route returns the navigation that opened the current screen.
func (r *Router) Route() ui.RouterMsg {
	return r.stack[len(r.stack)-1].at
}

// Path lists the open routes from the root.
func (r *Router) Path() []string {
	path := make([]string, len(r.stack))
	for i, e := range r.stack {
		path[i] = e.at.To.String()
	}
	return path
}

// Depth returns the current navigation depth
func (r *Router) Depth() int {
	return len(r.stack)
}

// CanGoBack returns true if there are screens to go back to
func (r *Router) CanGoBack() bool {
	return len(r.stack) > 1
}
