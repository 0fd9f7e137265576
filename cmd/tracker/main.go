package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/config"
	"github.com/rovshanmuradov/margin-tracker/internal/logger"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/router"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/screen"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

const flashTTL = 5 * time.Second

// AppModel represents the main TUI application model
type AppModel struct {
	router *router.Router
	svc    *ui.Services
	width  int
	height int

	flash     string
	flashErr  bool
	flashTime time.Time
}

// NewAppModel creates a new application model rooted at the portfolio
func NewAppModel(svc *ui.Services) *AppModel {
	return &AppModel{
		router: router.New(screen.NewPortfolioScreen(svc)),
		svc:    svc,
	}
}

// Init initializes the application
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.router.Init(),
		ui.ListenBus(),
	)
}

// Update handles application-level updates
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// keep two lines for the flash message
		m.router.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ui.BusMsg:
		model, cmd := m.Update(msg.Msg)
		return model, tea.Batch(cmd, ui.ListenBus())

	case ui.RouterMsg:
		return m, m.handleNavigation(msg)

	case ui.SuccessMsg:
		m.setFlash(msg.Message, false)
		return m, nil

	case ui.ErrorMsg:
		text := msg.Error.Error()
		if msg.Title != "" {
			text = msg.Title + ": " + text
		}
		m.setFlash(text, true)
		return m, nil
	}

	var cmd tea.Cmd
	m.router, cmd = m.router.Update(msg)
	return m, cmd
}

func (m *AppModel) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashTime = time.Now()
}

// handleNavigation handles navigation to different screens. A route that is
// already open, the portfolio included, is returned to rather than rebuilt.
func (m *AppModel) handleNavigation(msg ui.RouterMsg) tea.Cmd {
	if cmd, ok := m.router.PopTo(msg); ok {
		m.svc.Logger.Debug("Navigate back", zap.Strings("path", m.router.Path()))
		return cmd
	}

	var newScreen router.Screen
	switch msg.To {
	case ui.RouteCalculator:
		newScreen = screen.NewCalculatorScreen(m.svc, msg.RecordID)
	case ui.RouteDetail:
		newScreen = screen.NewDetailScreen(m.svc, msg.RecordID)
	case ui.RouteLogs:
		newScreen = screen.NewLogsScreen(m.svc.Logs)
	default:
		return nil
	}

	cmd := m.router.Push(msg, newScreen)
	m.svc.Logger.Debug("Navigate", zap.Strings("path", m.router.Path()), zap.String("record", msg.RecordID))
	return cmd
}

// View renders the application
func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	flash := ""
	if m.flash != "" && time.Since(m.flashTime) < flashTTL {
		if m.flashErr {
			flash = style.ErrorStyle.Render("❌ " + m.flash)
		} else {
			flash = style.SuccessStyle.Render("✅ " + m.flash)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.router.View(), flash)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The alt screen owns the terminal, so console logs go to the buffer
	// shown on the logs screen and, optionally, to the rotating file.
	logBuffer := logger.NewLogBuffer(500)
	appLogger := logger.New(logger.Config{
		Debug:      cfg.Log.Debug,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}, logBuffer)
	appLogger = logger.WithComponent(appLogger, "tracker")
	defer func() {
		_ = appLogger.Sync()
	}()

	svc, err := ui.NewServices(rootCtx, cfg, appLogger, logBuffer)
	if err != nil {
		log.Fatalf("Failed to init services: %v", err)
	}

	appLogger.Info("Starting margin tracker")

	// Restarts rebuild the screens against the same services, so the
	// in-memory portfolio outlives a crashed program.
	supervisor := ui.NewSupervisor(appLogger, func() (tea.Model, []tea.ProgramOption) {
		return ui.NewSafeModel(NewAppModel(svc), appLogger), []tea.ProgramOption{
			tea.WithAltScreen(),
		}
	})
	if err := supervisor.Run(rootCtx); err != nil {
		appLogger.Error("TUI application failed", zap.Error(err))
	}

	appLogger.Info("Shutting down margin tracker")
}
