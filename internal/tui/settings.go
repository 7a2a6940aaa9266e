package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

// settingsModel — экран настроек профиля.
type settingsModel struct {
	form     *huh.Form
	defaults api.UpdateProfileRequest
	inflight bool
	errMsg   string
}

func newSettingsModel(_ Styles, user *models.User) settingsModel {
	defaults := api.UpdateProfileRequest{}
	if user != nil {
		defaults.FullName = user.FullName
		defaults.CompanyName = user.CompanyName
	}
	return settingsModel{
		form:     newSettingsForm(defaults),
		defaults: defaults,
	}
}

func newSettingsForm(defaults api.UpdateProfileRequest) *huh.Form {
	fullName := defaults.FullName
	company := defaults.CompanyName
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Key("full_name").
			Title("Full name").
			Value(&fullName),
		huh.NewInput().
			Key("company_name").
			Title("Company").
			Value(&company),
	))
}

func (m settingsModel) update(app App, msg tea.Msg) (settingsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" {
			return m, nav(ViewDashboard)
		}
		if m.inflight {
			return m, nil
		}
		if m.errMsg != "" {
			m.errMsg = ""
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.inflight {
		m.inflight = true
		req := api.UpdateProfileRequest{
			FullName:    m.form.GetString("full_name"),
			CompanyName: m.form.GetString("company_name"),
		}
		m.defaults = req
		return m, tea.Batch(cmd, submitProfile(app, req))
	}
	return m, cmd
}

// applyFailure возвращает форму в рабочее состояние после отказа.
func (m settingsModel) applyFailure(err error) (settingsModel, tea.Cmd) {
	m.inflight = false
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		m.errMsg = "network error, please try again"
	} else {
		m.errMsg = "failed to update profile"
	}
	m.form = newSettingsForm(m.defaults)
	return m, m.form.Init()
}

func submitProfile(app App, req api.UpdateProfileRequest) tea.Cmd {
	return func() tea.Msg {
		return profileSavedMsg{err: app.Sessions.UpdateProfile(context.Background(), req)}
	}
}

func (m settingsModel) view(styles Styles) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Account Settings"))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(styles.Error.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	if m.inflight {
		b.WriteString(styles.Muted.Render("Saving..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.form.View())
	}

	b.WriteString(styles.Help.Render("esc: back to dashboard"))
	b.WriteString("\n")
	return b.String()
}
