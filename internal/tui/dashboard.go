package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

// dashboardKeyMap описывает горячие клавиши главного экрана.
type dashboardKeyMap struct {
	Dismiss  key.Binding
	Portal   key.Binding
	Settings key.Binding
	Admin    key.Binding
	Plans    key.Binding
	Logout   key.Binding
	Quit     key.Binding
}

var dashboardKeys = dashboardKeyMap{
	Dismiss:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Portal:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "billing portal")),
	Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Admin:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "admin")),
	Plans:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "plans")),
	Logout:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "sign out")),
	Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

// dashboardModel — основной экран авторизованного пользователя.
// Экран рисуется сразу из имеющегося снимка сессии: фоновая сверка
// подписки обновляет его по месту и никогда не показывает ошибок.
type dashboardModel struct {
	banner         bool // баннер "оплата прошла", гаснет сам через 5 секунд
	flash          string
	alert          string
	portalInflight bool
}

func newDashboardModel(Styles) dashboardModel {
	return dashboardModel{}
}

func (m dashboardModel) update(app App, _ models.Session, msg tea.Msg) (dashboardModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, dashboardKeys.Dismiss):
		// Баннер можно убрать, не дожидаясь таймера
		m.banner = false
	case key.Matches(keyMsg, dashboardKeys.Portal):
		if m.portalInflight {
			return m, nil
		}
		m.portalInflight = true
		m.alert = ""
		return m, openPortal(app)
	case key.Matches(keyMsg, dashboardKeys.Settings):
		return m, nav(ViewSettings)
	case key.Matches(keyMsg, dashboardKeys.Admin):
		return m, nav(ViewAdmin)
	case key.Matches(keyMsg, dashboardKeys.Plans):
		return m, nav(ViewPlans)
	case key.Matches(keyMsg, dashboardKeys.Logout):
		return m, logoutCmd(app)
	case key.Matches(keyMsg, dashboardKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func openPortal(app App) tea.Cmd {
	return func() tea.Msg {
		url, err := app.Billing.Portal(context.Background())
		return portalResultMsg{url: url, err: err}
	}
}

func (m dashboardModel) view(styles Styles, sess models.Session) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Dashboard"))
	b.WriteString("\n\n")

	if m.banner {
		b.WriteString(styles.Border.Render(
			styles.Success.Render("Payment received!") + " Your subscription is now active."))
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("x: dismiss"))
		b.WriteString("\n\n")
	}
	if m.flash != "" {
		b.WriteString(styles.Success.Render(m.flash))
		b.WriteString("\n\n")
	}
	if m.alert != "" {
		b.WriteString(styles.Error.Render("Billing portal failed: " + m.alert))
		b.WriteString("\n\n")
	}

	if sess.User != nil {
		b.WriteString(fmt.Sprintf("Welcome back, %s\n", styles.Status.Render(displayName(sess.User))))
		b.WriteString(styles.Muted.Render(sess.User.Email))
		b.WriteString("\n\n")
		b.WriteString(subscriptionSummary(styles, sess.User.Subscription))
		b.WriteString("\n")
	}

	if m.portalInflight {
		b.WriteString(styles.Muted.Render("Opening billing portal..."))
		b.WriteString("\n")
	}

	b.WriteString(styles.Help.Render(dashboardHelp(sess.User != nil && sess.User.Admin)))
	b.WriteString("\n")
	return b.String()
}

func dashboardHelp(admin bool) string {
	bindings := []key.Binding{
		dashboardKeys.Portal,
		dashboardKeys.Settings,
		dashboardKeys.Plans,
		dashboardKeys.Logout,
		dashboardKeys.Quit,
	}
	if admin {
		bindings = append([]key.Binding{dashboardKeys.Admin}, bindings...)
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

func displayName(user *models.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.FullName != "" {
		return user.FullName
	}
	return user.Email
}

// subscriptionSummary форматирует снимок подписки.
func subscriptionSummary(styles Styles, sub *models.Subscription) string {
	status := sub.EffectiveStatus()

	var lines []string
	lines = append(lines, "Subscription: "+statusStyle(styles, status).Render(status))
	if sub != nil && sub.CurrentPlan != nil {
		lines = append(lines, "Plan: "+sub.CurrentPlan.Name)
	}
	if sub != nil && sub.CurrentPeriodEnd != nil {
		lines = append(lines, "Current period ends: "+sub.CurrentPeriodEnd.Format("2 Jan 2006"))
	}
	return styles.Border.Render(strings.Join(lines, "\n"))
}

func statusStyle(styles Styles, status string) lipgloss.Style {
	switch status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing:
		return styles.Success
	case models.SubscriptionStatusPastDue, models.SubscriptionStatusCanceled:
		return styles.Error
	default:
		return styles.Muted
	}
}
