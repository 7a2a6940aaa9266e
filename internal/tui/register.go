package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
)

// registerForm — поля формы регистрации с правилами предварительной проверки.
// Несовпадающее подтверждение пароля перехватывается здесь,
// до любого сетевого вызова; содержательная валидация — на сервере.
type registerForm struct {
	FullName             string `validate:"required"`
	Email                string `validate:"required,email"`
	Password             string `validate:"required,min=8"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
	CompanyName          string
}

// registerDefaults — значения полей, сохраняемые при пересоздании формы.
type registerDefaults struct {
	FullName    string
	Email       string
	CompanyName string
}

// registerModel — экран регистрации.
type registerModel struct {
	form     *huh.Form
	validate *validator.Validate
	defaults registerDefaults
	pending  string // slug плана из слота отложенного checkout, если есть
	inflight bool
	errMsg   string
}

func newRegisterModel(_ Styles, defaults registerDefaults) registerModel {
	return registerModel{
		form:     newRegisterForm(defaults),
		validate: validator.New(),
		defaults: defaults,
	}
}

func newRegisterForm(defaults registerDefaults) *huh.Form {
	fullName := defaults.FullName
	email := defaults.Email
	company := defaults.CompanyName
	password := ""
	confirmation := ""
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Key("full_name").
			Title("Full name").
			Value(&fullName),
		huh.NewInput().
			Key("email").
			Title("Email").
			Value(&email),
		huh.NewInput().
			Key("company_name").
			Title("Company (optional)").
			Value(&company),
		huh.NewInput().
			Key("password").
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password),
		huh.NewInput().
			Key("password_confirmation").
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&confirmation),
	))
}

func (m registerModel) update(app App, msg tea.Msg) (registerModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" {
			return m, nav(ViewPlans)
		}
		if m.inflight {
			return m, nil
		}
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
		fields := registerForm{
			FullName:             m.form.GetString("full_name"),
			Email:                m.form.GetString("email"),
			Password:             m.form.GetString("password"),
			PasswordConfirmation: m.form.GetString("password_confirmation"),
			CompanyName:          m.form.GetString("company_name"),
		}
		m.defaults = registerDefaults{
			FullName:    fields.FullName,
			Email:       fields.Email,
			CompanyName: fields.CompanyName,
		}
		m.inflight = true
		return m, tea.Batch(cmd, submitRegister(app, m.validate, fields))
	}
	return m, cmd
}

// applyFailure возвращает форму в рабочее состояние после отказа,
// сохраняя всё, кроме паролей.
func (m registerModel) applyFailure(app App, err error) (registerModel, tea.Cmd) {
	m.inflight = false

	var validationErr *api.ValidationError
	if errors.As(err, &validationErr) {
		m.errMsg = validationErr.Message
	} else {
		m.errMsg = app.Sessions.Err()
	}
	m.form = newRegisterForm(m.defaults)
	return m, m.form.Init()
}

// submitRegister сначала проверяет форму локально; сетевой вызов
// делается только для формы, прошедшей предварительную проверку.
func submitRegister(app App, v *validator.Validate, fields registerForm) tea.Cmd {
	return func() tea.Msg {
		if err := validateForm(v, fields); err != nil {
			return registerResultMsg{err: err}
		}
		_, err := app.Sessions.Register(context.Background(), api.RegisterRequest{
			Email:                fields.Email,
			Password:             fields.Password,
			PasswordConfirmation: fields.PasswordConfirmation,
			FullName:             fields.FullName,
			CompanyName:          fields.CompanyName,
		})
		return registerResultMsg{err: err}
	}
}

func (m registerModel) view(styles Styles) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Create Account"))
	b.WriteString("\n\n")

	if m.pending != "" {
		b.WriteString(styles.Muted.Render("Checkout for the " + m.pending + " plan will continue after you sign in."))
		b.WriteString("\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(styles.Error.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	if m.inflight {
		b.WriteString(styles.Muted.Render("Creating account..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.form.View())
	}

	b.WriteString(styles.Help.Render("esc: back to plans"))
	b.WriteString("\n")
	return b.String()
}
