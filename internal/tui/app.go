package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
	"github.com/magabrotheeeer/subscription-portal/internal/checkout"
	"github.com/magabrotheeeer/subscription-portal/internal/guard"
	"github.com/magabrotheeeer/subscription-portal/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

// SessionService описывает операции хранилища сессии, нужные экранам.
type SessionService interface {
	Current() models.Session
	Err() string
	ClearError()
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) error
}

// CatalogAPI описывает каталог тарифных планов.
type CatalogAPI interface {
	Plans(ctx context.Context) ([]models.Plan, error)
}

// BillingAPI описывает операции биллинга, вызываемые напрямую экранами.
type BillingAPI interface {
	Portal(ctx context.Context) (string, error)
}

// HandoffService описывает протокол отложенного checkout.
type HandoffService interface {
	Begin(ctx context.Context, plan models.Plan, authenticated bool) (checkout.BeginResult, error)
	Resume(ctx context.Context) (url string, resumed bool, err error)
	Pending() (models.PendingCheckout, bool)
}

// ReconcilerService описывает фоновую сверку подписки.
type ReconcilerService interface {
	Run(ctx context.Context)
}

// App объединяет зависимости экранов. Все зависимости внедряются
// явно при сборке клиента, глобального состояния у пакета нет.
type App struct {
	Log        *slog.Logger
	Sessions   SessionService
	Catalog    CatalogAPI
	Billing    BillingAPI
	Handoff    HandoffService
	Reconciler ReconcilerService
}

// View — экран клиента.
type View int

// Экраны клиента.
const (
	ViewPlans View = iota
	ViewLogin
	ViewRegister
	ViewDashboard
	ViewSettings
	ViewAdmin
	ViewContact
	ViewRedirect
)

// policyFor сопоставляет экрану политику доступа.
func policyFor(v View) guard.Policy {
	switch v {
	case ViewDashboard, ViewSettings:
		return guard.Protected
	case ViewAdmin:
		return guard.Admin
	default:
		return guard.Public
	}
}

// bannerDuration — время показа баннера успешной оплаты.
const bannerDuration = 5 * time.Second

// SessionChangedMsg сообщает корневой модели о новом снимке сессии.
// Приходит и из команд экранов, и через мост Store.Subscribe -> Program.Send.
type SessionChangedMsg struct {
	Session models.Session
}

type navigateMsg struct {
	to              View
	checkoutSuccess bool   // одноразовый сигнал "оплата прошла" для dashboard
	flash           string // одноразовое сообщение на целевом экране
	alert           string // блокирующее сообщение об ошибке checkout/portal
	url             string // внешний URL для ViewRedirect
}

type plansLoadedMsg struct {
	plans []models.Plan
	err   error
}

type beginResultMsg struct {
	plan models.Plan
	res  checkout.BeginResult
	err  error
}

type loginResultMsg struct {
	err error

	// Снимок сессии после успешного входа. Снимок едет внутри
	// результата, как в logoutCmd и runReconcile: навигация на
	// защищённый экран не должна зависеть от порядка доставки
	// SessionChangedMsg из моста подписки.
	sess      models.Session
	resumed   bool
	url       string
	resumeErr error
}

type registerResultMsg struct {
	err error
}

type profileSavedMsg struct {
	err error
}

type portalResultMsg struct {
	url string
	err error
}

type bannerExpiredMsg struct{}

// Model — корневая модель клиента: активный экран, последний снимок
// сессии и подмодели экранов.
type Model struct {
	app    App
	styles Styles

	sess  models.Session
	view  View
	width int

	plans     plansModel
	login     loginModel
	register  registerModel
	dashboard dashboardModel
	settings  settingsModel

	redirectURL string
	contactPlan string

	quitting bool
}

// NewModel создает корневую модель. Стартовый экран — витрина планов;
// восстановленная из хранилища сессия сразу видна экранам.
func NewModel(app App) Model {
	styles := DefaultStyles()
	return Model{
		app:    app,
		styles: styles,
		sess:   app.Sessions.Current(),
		view:   ViewPlans,
		plans:  newPlansModel(styles),
	}
}

// Init загружает каталог планов.
func (m Model) Init() tea.Cmd {
	return loadPlans(m.app)
}

// Update обрабатывает сообщения: глобальные клавиши, изменения сессии,
// навигацию и результаты команд; остальное уходит активному экрану.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case SessionChangedMsg:
		m.sess = msg.Session
		// Политика активного экрана переоценивается на каждом изменении
		// сессии: выход с открытого административного экрана уводит сразу
		switch policyFor(m.view)(m.sess) {
		case guard.RedirectLogin:
			return m.navigate(navigateMsg{to: ViewLogin})
		case guard.RedirectDashboard:
			return m.navigate(navigateMsg{to: ViewDashboard})
		}
		return m, nil

	case navigateMsg:
		return m.navigate(msg)

	case plansLoadedMsg:
		m.plans = m.plans.applyLoaded(msg)
		return m, nil

	case beginResultMsg:
		m.plans.choosing = false
		if msg.err != nil {
			m.plans.alert = checkoutMessage(msg.err)
			return m, nil
		}
		switch msg.res.Directive {
		case checkout.GoContact:
			m.contactPlan = msg.plan.Name
			return m.navigate(navigateMsg{to: ViewContact})
		case checkout.GoExternal:
			return m.navigate(navigateMsg{to: ViewRedirect, url: msg.res.URL})
		case checkout.GoDashboard:
			return m.navigate(navigateMsg{to: ViewDashboard})
		default:
			return m.navigate(navigateMsg{to: ViewRegister})
		}

	case loginResultMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			m.login, cmd = m.login.applyFailure(m.app)
			return m, cmd
		}
		m.sess = msg.sess
		if !msg.resumed && msg.resumeErr != nil {
			// Слот не потреблён: заглянуть в него не удалось
			m.app.Log.Error("failed to read pending checkout slot", sl.Err(msg.resumeErr))
		}
		if msg.resumed {
			if msg.resumeErr != nil {
				// Слот уже потреблён, повтора не будет: безопасный
				// откат на витрину планов с показом ошибки
				return m.navigate(navigateMsg{to: ViewPlans, alert: checkoutMessage(msg.resumeErr)})
			}
			return m.navigate(navigateMsg{to: ViewRedirect, url: msg.url})
		}
		return m.navigate(navigateMsg{to: ViewDashboard})

	case registerResultMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			m.register, cmd = m.register.applyFailure(m.app, msg.err)
			return m, cmd
		}
		return m.navigate(navigateMsg{to: ViewLogin, flash: "Registration successful, please sign in."})

	case profileSavedMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			m.settings, cmd = m.settings.applyFailure(msg.err)
			return m, cmd
		}
		return m.navigate(navigateMsg{to: ViewDashboard, flash: "Profile updated."})

	case portalResultMsg:
		m.dashboard.portalInflight = false
		if msg.err != nil {
			m.dashboard.alert = checkoutMessage(msg.err)
			return m, nil
		}
		return m.navigate(navigateMsg{to: ViewRedirect, url: msg.url})

	case bannerExpiredMsg:
		m.dashboard.banner = false
		return m, nil
	}

	return m.updateActive(msg)
}

// updateActive передает сообщение подмодели активного экрана.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ViewPlans:
		m.plans, cmd = m.plans.update(m.app, m.sess, msg)
	case ViewLogin:
		m.login, cmd = m.login.update(m.app, msg)
	case ViewRegister:
		m.register, cmd = m.register.update(m.app, msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.update(m.app, m.sess, msg)
	case ViewSettings:
		m.settings, cmd = m.settings.update(m.app, msg)
	case ViewAdmin:
		cmd = m.updateAdmin(msg)
	case ViewContact:
		cmd = m.updateContact(msg)
	case ViewRedirect:
		cmd = m.updateRedirect(msg)
	}
	return m, cmd
}

// navigate переключает активный экран, применяя его политику доступа.
func (m Model) navigate(msg navigateMsg) (Model, tea.Cmd) {
	to := msg.to
	switch policyFor(to)(m.sess) {
	case guard.RedirectLogin:
		to = ViewLogin
	case guard.RedirectDashboard:
		to = ViewDashboard
		msg.checkoutSuccess = false
	}

	m.view = to
	var cmds []tea.Cmd

	switch to {
	case ViewPlans:
		m.plans.alert = msg.alert
		if !m.plans.loaded && !m.plans.loading {
			m.plans.loading = true
			cmds = append(cmds, loadPlans(m.app))
		}
	case ViewLogin:
		m.login = newLoginModel(m.styles, msg.flash)
		if pending, ok := m.app.Handoff.Pending(); ok {
			m.login.pending = pending.PlanSlug
		}
		cmds = append(cmds, m.login.form.Init())
	case ViewRegister:
		m.register = newRegisterModel(m.styles, registerDefaults{})
		if pending, ok := m.app.Handoff.Pending(); ok {
			m.register.pending = pending.PlanSlug
		}
		cmds = append(cmds, m.register.form.Init())
	case ViewDashboard:
		m.dashboard = newDashboardModel(m.styles)
		m.dashboard.flash = msg.flash
		if msg.checkoutSuccess {
			// Сигнал потребляется здесь: повторный вход на экран
			// баннер заново не показывает
			m.dashboard.banner = true
			cmds = append(cmds, expireBanner())
		}
		// Сверка запускается на каждом входе на dashboard и не
		// блокирует отрисовку: экран показывает прежний снимок
		cmds = append(cmds, runReconcile(m.app))
	case ViewSettings:
		m.settings = newSettingsModel(m.styles, m.sess.User)
		cmds = append(cmds, m.settings.form.Init())
	case ViewRedirect:
		m.redirectURL = msg.url
	}

	return m, tea.Batch(cmds...)
}

// View отрисовывает активный экран.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.view {
	case ViewLogin:
		return m.login.view(m.styles)
	case ViewRegister:
		return m.register.view(m.styles)
	case ViewDashboard:
		return m.dashboard.view(m.styles, m.sess)
	case ViewSettings:
		return m.settings.view(m.styles)
	case ViewAdmin:
		return m.viewAdmin()
	case ViewContact:
		return m.viewContact()
	case ViewRedirect:
		return m.viewRedirect()
	default:
		return m.plans.view(m.styles, m.sess)
	}
}

// nav возвращает команду навигации на экран.
func nav(to View) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{to: to}
	}
}

// NavigateDashboardAfterCheckout возвращает стартовое сообщение для запуска
// клиента по возвращении с внешней оплаты (`--from-checkout`). Одноразовый
// сигнал существует только внутри этого сообщения и нигде не сохраняется.
func NavigateDashboardAfterCheckout() tea.Msg {
	return navigateMsg{to: ViewDashboard, checkoutSuccess: true}
}

func loadPlans(app App) tea.Cmd {
	return func() tea.Msg {
		plans, err := app.Catalog.Plans(context.Background())
		return plansLoadedMsg{plans: plans, err: err}
	}
}

func runReconcile(app App) tea.Cmd {
	return func() tea.Msg {
		app.Reconciler.Run(context.Background())
		return SessionChangedMsg{Session: app.Sessions.Current()}
	}
}

func logoutCmd(app App) tea.Cmd {
	return func() tea.Msg {
		app.Sessions.Logout(context.Background())
		return SessionChangedMsg{Session: app.Sessions.Current()}
	}
}

func expireBanner() tea.Cmd {
	return tea.Tick(bannerDuration, func(time.Time) tea.Msg {
		return bannerExpiredMsg{}
	})
}

// checkoutMessage сводит ошибку биллинга к тексту для показа пользователю.
func checkoutMessage(err error) string {
	if err == nil {
		return ""
	}
	var checkoutErr *api.CheckoutError
	if errors.As(err, &checkoutErr) {
		return checkoutErr.Message
	}
	return "billing service is unavailable, please try again"
}
