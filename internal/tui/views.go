package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Экраны без собственного состояния: административный, контактный
// и экран ухода на внешний URL.

func (m Model) updateAdmin(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "esc", "d":
		return nav(ViewDashboard)
	case "l":
		return logoutCmd(m.app)
	case "q":
		return tea.Quit
	}
	return nil
}

func (m Model) viewAdmin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Admin"))
	b.WriteString("\n\n")

	if m.sess.User != nil {
		b.WriteString("Signed in as " + m.styles.Status.Render(m.sess.User.Email))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.Border.Render("Administrative tools live in the web console.\nThis screen is restricted to administrator accounts."))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("esc: back to dashboard • l: sign out • q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) updateContact(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "esc", "g":
		return nav(ViewPlans)
	case "q":
		return tea.Quit
	}
	return nil
}

func (m Model) viewContact() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Talk to Sales"))
	b.WriteString("\n\n")

	text := "This plan is tailored to your team.\nWrite to sales@subscription-portal.example and we will get back within one business day."
	if m.contactPlan != "" {
		text = "The " + m.contactPlan + " plan is tailored to your team.\nWrite to sales@subscription-portal.example and we will get back within one business day."
	}
	b.WriteString(m.styles.Border.Render(text))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("esc: back to plans • q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) updateRedirect(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "esc", "g":
		return nav(ViewPlans)
	case "d":
		return nav(ViewDashboard)
	case "q", "enter":
		return tea.Quit
	}
	return nil
}

// viewRedirect показывает внешний URL, выданный биллингом.
// URL непрозрачный: клиент его не проверяет и не переписывает.
func (m Model) viewRedirect() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Continue in Browser"))
	b.WriteString("\n\n")
	b.WriteString("Open this link to continue:\n\n")
	b.WriteString(m.styles.Border.Render(m.styles.Status.Render(m.redirectURL)))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter: quit and open • d: dashboard • esc: back to plans"))
	b.WriteString("\n")
	return b.String()
}
