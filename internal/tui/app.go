// Package tui provides the interactive Bubble Tea dashboard for costlens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jrmromao/costlens/internal/billing"
	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/store"
	"github.com/Jrmromao/costlens/internal/tracking"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// dashboardData is everything one refresh pulls from the ledger.
type dashboardData struct {
	Summary  model.MonthlyCostSummary
	Savings  model.SavingsSummary
	Daily    []model.DailySavings
	Runs     []model.PromptRun
	TopUsers []model.UserSpend
	Platform model.PlatformCosts
}

// DataLoadedMsg is sent when a ledger refresh finishes.
type DataLoadedMsg struct {
	Data     dashboardData
	Err      error
	LoadTime time.Duration
}

// ActualsMsg is sent when the billed-actuals fetch completes.
type ActualsMsg struct {
	Data *billing.ActualsData
}

type tickMsg time.Time

// Deps bundles the services the dashboard reads from.
type Deps struct {
	Config  config.Config
	Ledger  *store.Ledger
	Catalog *catalog.Catalog
	Tracker *tracking.Tracker
	Calc    *savings.Calculator
	Billing *billing.Client // nil when no API key is configured
}

// App is the root Bubble Tea model.
type App struct {
	deps Deps

	// Active query scope
	userID string
	plan   model.PlanType
	days   int

	// Data
	data     dashboardData
	actuals  *billing.ActualsData
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Refresh state
	refreshing      bool
	actualsFetching bool
	lastRefresh     time.Time
	ticks           int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	// Settings tab state
	settings settingsState
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	refreshInterval = 30 * time.Second
	queryTimeout    = 30 * time.Second
)

// NewApp creates the dashboard model. userID may be empty for the
// platform-wide view.
func NewApp(deps Deps, userID string, plan model.PlanType, days int) App {
	theme.SetActive(deps.Config.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	if days <= 0 {
		days = 30
	}

	return App{
		deps:     deps,
		userID:   userID,
		plan:     plan,
		days:     days,
		spinner:  sp,
		settings: newSettingsState(deps.Config),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.loadDataCmd(),
		a.spinner.Tick,
		tickCmd(),
	}
	if a.deps.Billing != nil {
		cmds = append(cmds, a.fetchActualsCmd())
	}
	return tea.Batch(cmds...)
}

// loadDataCmd reads the dashboard dataset from the ledger in one pass.
func (a App) loadDataCmd() tea.Cmd {
	deps := a.deps
	userID := a.userID
	plan := a.plan
	days := a.days

	return func() tea.Msg {
		started := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		var d dashboardData
		var err error

		if d.Summary, err = deps.Tracker.UserMonthlyCost(ctx, userID, plan); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if d.Savings, err = deps.Calc.Summary(ctx, userID); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if d.Daily, err = deps.Calc.Daily(ctx, userID, days); err != nil {
			return DataLoadedMsg{Err: err}
		}

		now := time.Now().UTC()
		since := now.AddDate(0, 0, -days)
		if d.Runs, err = deps.Ledger.RunsInRange(ctx, userID, since, now); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if d.TopUsers, err = deps.Tracker.UsersApproachingLimit(ctx, config.NearLimitFraction); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if d.Platform, err = deps.Tracker.PlatformCosts(ctx, since, now); err != nil {
			return DataLoadedMsg{Err: err}
		}

		return DataLoadedMsg{Data: d, LoadTime: time.Since(started)}
	}
}

func (a App) fetchActualsCmd() tea.Cmd {
	client := a.deps.Billing
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		now := time.Now()
		return ActualsMsg{Data: client.FetchActuals(ctx, now.AddDate(0, -1, 0), now)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Y == 1 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.data = msg.Data
			a.loadTime = msg.LoadTime
			a.loaded = true
		}
		return a, nil

	case ActualsMsg:
		a.actuals = msg.Data
		a.actualsFetching = false
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		a.ticks++
		cmds := []tea.Cmd{tickCmd()}

		if a.loaded && !a.refreshing && time.Since(a.lastRefresh) >= refreshInterval {
			a.refreshing = true
			cmds = append(cmds, a.loadDataCmd())
		}
		// Billed actuals move slowly; refetch every 5 minutes.
		if a.loaded && a.deps.Billing != nil && !a.actualsFetching && a.ticks%300 == 0 {
			a.actualsFetching = true
			cmds = append(cmds, a.fetchActualsCmd())
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the settings input (cursor blinks, etc.)
	if a.activeTab == tabSettings && a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}

	return a, nil
}

// Tab indices, matching components.Tabs order.
const (
	tabOverview = iota
	tabCosts
	tabSavings
	tabModels
	tabSettings
)

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Settings text input intercepts all keys while editing
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Settings tab navigation
	if a.activeTab == tabSettings {
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsActivate()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, a.loadDataCmd()
		}
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
		// Number keys mirror the tab order
		if key[0] >= '1' && key[0] <= '5' {
			a.activeTab = int(key[0] - '1')
			return a, nil
		}
	}

	return a, nil
}

// tabAtX maps a click column on the tab bar row to a tab index, or -1.
func (a App) tabAtX(x int) int {
	pos := 1 // leading space
	for i := range components.Tabs {
		w := components.TabPlainWidth(i)
		if i == a.activeTab {
			// Active tab renders without shortcut brackets
			w = len(components.Tabs[i].Name)
		}
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 2
	}
	return -1
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  costlens needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ costlens"))
	b.WriteString(subtitleStyle.Render(" · AI Spend & Routing"))
	b.WriteString("\n\n")

	if a.loadErr != nil {
		b.WriteString(errStyle.Render("Failed to load ledger: " + a.loadErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render("[r] retry  [q] quit"))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Reading ledger"))
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	rows := []struct{ key, desc string }{
		{"o / c / s / m / x", "switch tab (also 1-5, arrows, tab)"},
		{"j / k", "move cursor (settings)"},
		{"enter", "edit / cycle setting"},
		{"r", "refresh data now"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true).Render("Keyboard"))
	b.WriteString("\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-18s", r.key)),
			descStyle.Render(r.desc))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	cw := a.contentWidth()

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	header := " " + titleStyle.Render("◈ costlens") + subStyle.Render("  AI Spend & Routing")
	tabBar := components.RenderTabBar(a.activeTab, cw)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabCosts:
		content = a.renderCostsTab(cw)
	case tabSavings:
		content = a.renderSavingsTab(cw)
	case tabModels:
		content = a.renderModelsTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	scope := "all users"
	if a.userID != "" {
		scope = a.userID
	}
	right := fmt.Sprintf("%s · %s · %s", scope, a.plan, dataAge(a.lastRefresh))
	if a.refreshing {
		right = "refreshing… · " + right
	}
	status := components.RenderStatusBar(cw, right)

	body := header + "\n" + tabBar + "\n\n" + content

	h := a.height - 1
	if h < 5 {
		h = 5
	}
	body = padHeight(truncateHeight(body, h), h)

	return body + "\n" + status
}

func dataAge(last time.Time) string {
	if last.IsZero() {
		return "no data"
	}
	age := time.Since(last)
	if age < 2*time.Second {
		return "just now"
	}
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(age.Minutes()))
}

// truncateHeight limits s to at most h lines.
func truncateHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= h {
		return s
	}
	return strings.Join(lines[:h], "\n")
}

// padHeight pads s with blank lines up to h lines.
func padHeight(s string, h int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= h {
		return s
	}
	return s + strings.Repeat("\n", h-lines)
}
