package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/tui/components"
	"github.com/Jrmromao/costlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Settings field indices.
const (
	fieldDefaultUser = iota
	fieldDefaultDays
	fieldPlan
	fieldTheme
	fieldBillingKey
	fieldDataDir
	settingsFieldCount
)

var planCycle = []model.PlanType{model.PlanFree, model.PlanPro, model.PlanEnterprise}

type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	cfg     config.Config // working copy, persisted on every committed change
	status  string
}

func newSettingsState(cfg config.Config) settingsState {
	return settingsState{cfg: cfg}
}

// settingsActivate handles enter on the settings tab: cycle fields flip in
// place, text fields open an input.
func (a App) settingsActivate() (tea.Model, tea.Cmd) {
	switch a.settings.cursor {
	case fieldPlan:
		next := planCycle[0]
		for i, p := range planCycle {
			if p == a.plan {
				next = planCycle[(i+1)%len(planCycle)]
				break
			}
		}
		a.plan = next
		a.settings.cfg.Routing.DefaultPlan = string(next)
		a.settings.status = saveStatus(config.Save(a.settings.cfg))
		a.refreshing = true
		return a, a.loadDataCmd()

	case fieldTheme:
		cur := theme.Active.Name
		next := theme.All[0]
		for i, th := range theme.All {
			if th.Name == cur {
				next = theme.All[(i+1)%len(theme.All)]
				break
			}
		}
		theme.SetActive(next.Name)
		a.settings.cfg.Appearance.Theme = next.Name
		a.settings.status = saveStatus(config.Save(a.settings.cfg))
		return a, nil

	default:
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 40
		ti.SetValue(a.settingsFieldValue(a.settings.cursor))
		if a.settings.cursor == fieldBillingKey {
			ti.EchoMode = textinput.EchoPassword
		}
		ti.Focus()
		a.settings.input = ti
		a.settings.editing = true
		return a, textinput.Blink
	}
}

func (a App) settingsFieldValue(field int) string {
	cfg := a.settings.cfg
	switch field {
	case fieldDefaultUser:
		return cfg.General.DefaultUser
	case fieldDefaultDays:
		return strconv.Itoa(cfg.General.DefaultDays)
	case fieldBillingKey:
		return cfg.Billing.APIKey
	case fieldDataDir:
		return cfg.General.DataDir
	}
	return ""
}

// updateSettingsInput handles keys while a settings text input is open.
func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.settings.editing = false
		a.settings.status = ""
		return a, nil

	case "enter":
		val := strings.TrimSpace(a.settings.input.Value())
		a.settings.editing = false

		reload := false
		switch a.settings.cursor {
		case fieldDefaultUser:
			a.settings.cfg.General.DefaultUser = val
			a.userID = val
			reload = true
		case fieldDefaultDays:
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > 365 {
				a.settings.status = "days must be 1-365"
				return a, nil
			}
			a.settings.cfg.General.DefaultDays = n
			a.days = n
			reload = true
		case fieldBillingKey:
			a.settings.cfg.Billing.APIKey = val
		case fieldDataDir:
			a.settings.cfg.General.DataDir = val
			a.settings.status = "data dir change applies on restart"
		}

		if a.settings.status == "" || reload {
			a.settings.status = saveStatus(config.Save(a.settings.cfg))
		} else {
			_ = config.Save(a.settings.cfg)
		}
		if reload {
			a.refreshing = true
			return a, a.loadDataCmd()
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func saveStatus(err error) string {
	if err != nil {
		return "save failed: " + err.Error()
	}
	return "saved"
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	s := a.settings

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	cursorStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	rows := []struct {
		label string
		value string
		hint  string
	}{
		{"Default user", orDash(s.cfg.General.DefaultUser), "empty = platform-wide view"},
		{"Window (days)", strconv.Itoa(a.days), "range for charts and run tables"},
		{"Plan", string(a.plan), "enter cycles FREE → PRO → ENTERPRISE"},
		{"Theme", theme.Active.Name, "enter cycles available themes"},
		{"Billing API key", maskKey(s.cfg.Billing.APIKey), "COSTLENS_BILLING_KEY overrides"},
		{"Data directory", orDash(config.DataDir(s.cfg)), "ledger.db location"},
	}

	var body strings.Builder
	for i, r := range rows {
		marker := "  "
		ls := labelStyle
		if i == s.cursor {
			marker = cursorStyle.Render("> ")
			ls = cursorStyle
		}

		value := valStyle.Render(r.value)
		if s.editing && i == s.cursor {
			value = s.input.View()
		}

		fmt.Fprintf(&body, "%s%s %s\n", marker, ls.Render(fmt.Sprintf("%-16s", r.label)), value)
		fmt.Fprintf(&body, "   %s\n", dimStyle.Render(r.hint))
	}

	if s.status != "" {
		body.WriteString("\n")
		body.WriteString(dimStyle.Render(s.status))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", body.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Config File",
		dimStyle.Render(config.ConfigPath()), cw))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func maskKey(key string) string {
	if key == "" {
		return "—"
	}
	if len(key) <= 6 {
		return "••••"
	}
	return key[:3] + "…" + key[len(key)-3:]
}
