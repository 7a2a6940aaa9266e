package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// loginModel — экран входа.
type loginModel struct {
	form     *huh.Form
	email    string // последний отправленный email, сохраняется при повторе
	pending  string // slug плана из слота отложенного checkout, если есть
	inflight bool
	flash    string
	errMsg   string
}

func newLoginModel(_ Styles, flash string) loginModel {
	return loginModel{
		form:  newLoginForm("", ""),
		flash: flash,
	}
}

func newLoginForm(email, password string) *huh.Form {
	emailVal := email
	passwordVal := password
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Key("email").
			Title("Email").
			Value(&emailVal),
		huh.NewInput().
			Key("password").
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&passwordVal),
	))
}

func (m loginModel) update(app App, msg tea.Msg) (loginModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" {
			return m, nav(ViewPlans)
		}
		// Пока вызов в полёте, форма выключена: повторная отправка невозможна
		if m.inflight {
			return m, nil
		}
		// Ошибка видима до следующего изменения ввода
		if m.errMsg != "" {
			m.errMsg = ""
			app.Sessions.ClearError()
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.inflight {
		m.inflight = true
		m.flash = ""
		m.email = m.form.GetString("email")
		password := m.form.GetString("password")
		return m, tea.Batch(cmd, submitLogin(app, m.email, password))
	}
	return m, cmd
}

// applyFailure возвращает форму в рабочее состояние после отказа входа,
// сохраняя email и показывая ошибку из хранилища сессии.
func (m loginModel) applyFailure(app App) (loginModel, tea.Cmd) {
	m.inflight = false
	m.errMsg = app.Sessions.Err()
	m.form = newLoginForm(m.email, "")
	return m, m.form.Init()
}

// submitLogin выполняет вход и сразу после успеха проверяет слот
// отложенного checkout: возобновление — часть результата входа.
// Результат несёт свежий снимок сессии, чтобы корневая модель
// применяла политику экрана не к снимку, снятому до входа.
func submitLogin(app App, email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := app.Sessions.Login(context.Background(), email, password); err != nil {
			return loginResultMsg{err: err}
		}
		url, resumed, err := app.Handoff.Resume(context.Background())
		return loginResultMsg{
			sess:      app.Sessions.Current(),
			resumed:   resumed,
			url:       url,
			resumeErr: err,
		}
	}
}

func (m loginModel) view(styles Styles) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Sign In"))
	b.WriteString("\n\n")

	if m.flash != "" {
		b.WriteString(styles.Success.Render(m.flash))
		b.WriteString("\n\n")
	}
	if m.pending != "" {
		b.WriteString(styles.Muted.Render("Checkout for the " + m.pending + " plan will continue after you sign in."))
		b.WriteString("\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(styles.Error.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	if m.inflight {
		b.WriteString(styles.Muted.Render("Signing in..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.form.View())
	}

	b.WriteString(styles.Help.Render("esc: back to plans"))
	b.WriteString("\n")
	return b.String()
}
