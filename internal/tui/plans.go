package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

// plansModel — витрина тарифных планов.
type plansModel struct {
	plans    []models.Plan
	cursor   int
	loaded   bool
	loading  bool
	choosing bool // выбор плана в полёте: повторный Enter игнорируется
	alert    string
	errMsg   string
}

func newPlansModel(Styles) plansModel {
	return plansModel{loading: true}
}

// applyLoaded применяет результат загрузки каталога.
func (m plansModel) applyLoaded(msg plansLoadedMsg) plansModel {
	m.loading = false
	if msg.err != nil {
		m.errMsg = "failed to load plans, please try again"
		return m
	}
	m.loaded = true
	m.errMsg = ""
	m.plans = msg.plans
	if m.cursor >= len(m.plans) {
		m.cursor = 0
	}
	return m
}

func (m plansModel) update(app App, sess models.Session, msg tea.Msg) (plansModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.plans)-1 {
			m.cursor++
		}
	case "enter":
		if m.choosing || len(m.plans) == 0 {
			return m, nil
		}
		m.choosing = true
		m.alert = ""
		return m, choosePlan(app, m.plans[m.cursor], sess.Authenticated())
	case "r":
		if !m.loading {
			m.loading = true
			m.errMsg = ""
			return m, loadPlans(app)
		}
	case "l":
		if !sess.Authenticated() {
			return m, nav(ViewLogin)
		}
	case "d":
		if sess.Authenticated() {
			return m, nav(ViewDashboard)
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func choosePlan(app App, plan models.Plan, authenticated bool) tea.Cmd {
	return func() tea.Msg {
		res, err := app.Handoff.Begin(context.Background(), plan, authenticated)
		return beginResultMsg{plan: plan, res: res, err: err}
	}
}

func (m plansModel) view(styles Styles, sess models.Session) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Plans & Pricing"))
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(styles.Error.Render("Checkout failed: " + m.alert))
		b.WriteString("\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(styles.Error.Render(m.errMsg))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(styles.Muted.Render("Loading plans..."))
		b.WriteString("\n")
	}

	for i, plan := range m.plans {
		line := planLine(plan)
		if i == m.cursor {
			line = styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if plan.Badge != "" {
			b.WriteString(" " + styles.Badge.Render(plan.Badge))
		}
		b.WriteString("\n")
	}

	if len(m.plans) > 0 && m.cursor < len(m.plans) {
		selected := m.plans[m.cursor]
		var detail strings.Builder
		detail.WriteString(selected.Description)
		for _, feature := range selected.Features {
			detail.WriteString("\n  - " + feature)
		}
		b.WriteString("\n")
		b.WriteString(styles.Border.Render(detail.String()))
		b.WriteString("\n")
	}

	help := "up/down: select • enter: choose plan • r: reload • q: quit"
	if sess.Authenticated() {
		help += " • d: dashboard"
	} else {
		help += " • l: sign in"
	}
	b.WriteString(styles.Help.Render(help))
	b.WriteString("\n")

	return b.String()
}

// planLine форматирует строку плана: название и цена.
func planLine(plan models.Plan) string {
	price := plan.PriceFormatted
	if price == "" {
		if plan.Price == nil {
			price = "contact us"
		} else {
			price = fmt.Sprintf("$%d.%02d/%s", *plan.Price/100, *plan.Price%100, plan.BillingPeriod)
		}
	}
	return fmt.Sprintf("%s — %s", plan.Name, price)
}
