// Package checkout реализует протокол переноса намерения покупки
// через принудительную регистрацию и вход: выбранный анонимным
// посетителем план запоминается в единственном слоте хранилища
// и потребляется ровно один раз после успешного входа.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-portal/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
	"github.com/magabrotheeeer/subscription-portal/internal/storage"
)

// BillingAPI описывает контракт биллингового сервиса, используемый протоколом.
type BillingAPI interface {
	Checkout(ctx context.Context, planSlug string) (string, error)
}

// Directive — куда вести посетителя после выбора плана.
type Directive int

const (
	// GoRegister — на экран регистрации; для платного плана намерение уже записано в слот.
	GoRegister Directive = iota
	// GoContact — в контактную форму; корпоративные планы и планы без цены
	// через checkout не продаются и слот не трогают.
	GoContact
	// GoExternal — наружу, на выданный биллингом URL оплаты.
	GoExternal
	// GoDashboard — на dashboard; оплата не требуется.
	GoDashboard
)

// BeginResult — результат выбора плана.
type BeginResult struct {
	Directive Directive
	URL       string // Внешний URL оплаты, только при GoExternal
}

// Handoff управляет слотом отложенного checkout.
type Handoff struct {
	log     *slog.Logger
	db      storage.Store
	billing BillingAPI
}

// New создает протокол поверх хранилища и биллингового клиента.
func New(log *slog.Logger, db storage.Store, billing BillingAPI) *Handoff {
	return &Handoff{log: log, db: db, billing: billing}
}

// Begin обрабатывает выбор плана.
// Корпоративный план или план без цены ведёт в контактную форму.
// Платный план у анонимного посетителя записывает слот и ведёт на
// регистрацию; у авторизованного — сразу создаёт checkout-сессию.
// Бесплатный план оплаты не требует. Повторный выбор перезаписывает слот.
func (h *Handoff) Begin(ctx context.Context, plan models.Plan, authenticated bool) (BeginResult, error) {
	const op = "checkout.Begin"

	if plan.ContactOnly() {
		return BeginResult{Directive: GoContact}, nil
	}
	if plan.Free() {
		if authenticated {
			return BeginResult{Directive: GoDashboard}, nil
		}
		return BeginResult{Directive: GoRegister}, nil
	}

	if !authenticated {
		if err := h.db.Set(storage.KeyPendingCheckout, plan.Slug); err != nil {
			return BeginResult{}, fmt.Errorf("%s: %w", op, err)
		}
		return BeginResult{Directive: GoRegister}, nil
	}

	url, err := h.billing.Checkout(ctx, plan.Slug)
	if err != nil {
		return BeginResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return BeginResult{Directive: GoExternal, URL: url}, nil
}

// Resume потребляет слот сразу после успешного входа.
// Слот читается и удаляется до обращения к биллингу: значение не должно
// быть прочитано дважды или пережить вторую, несвязанную сессию, поэтому
// при отказе биллинга повторной попытки нет — слот уже пуст.
// resumed=false означает, что слота не было и вход ведёт на dashboard.
func (h *Handoff) Resume(ctx context.Context) (url string, resumed bool, err error) {
	const op = "checkout.Resume"

	slug, ok, err := h.db.Get(storage.KeyPendingCheckout)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", false, nil
	}

	if err := h.db.Remove(storage.KeyPendingCheckout); err != nil {
		h.log.Error("failed to clear pending checkout slot", sl.Err(err))
	}

	url, err = h.billing.Checkout(ctx, slug)
	if err != nil {
		return "", true, fmt.Errorf("%s: %w", op, err)
	}
	return url, true, nil
}

// Pending возвращает отложенное намерение покупки, не потребляя слот.
// Используется только для отображения.
func (h *Handoff) Pending() (models.PendingCheckout, bool) {
	slug, ok, err := h.db.Get(storage.KeyPendingCheckout)
	if err != nil {
		h.log.Error("failed to read pending checkout slot", sl.Err(err))
		return models.PendingCheckout{}, false
	}
	if !ok {
		return models.PendingCheckout{}, false
	}
	return models.PendingCheckout{PlanSlug: slug}, true
}
