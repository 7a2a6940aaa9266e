// Package reconcile содержит фоновую сверку подписки: биллинговый
// сервис просят обновить своё авторитетное состояние, затем локальный
// снимок сессии перечитывается. Запускается при каждом входе на
// dashboard и никогда не показывает ошибок пользователю.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/subscription-portal/internal/lib/sl"
)

// BillingAPI описывает контракт биллингового сервиса, используемый сверкой.
type BillingAPI interface {
	Sync(ctx context.Context) error
}

// SessionRefresher обновляет локальный профиль после сверки.
type SessionRefresher interface {
	RefreshUser(ctx context.Context)
}

// Reconciler — фоновая сверка снимка подписки.
type Reconciler struct {
	log      *slog.Logger
	billing  BillingAPI
	sessions SessionRefresher
}

// New создает сверку поверх биллингового клиента и хранилища сессии.
func New(log *slog.Logger, billing BillingAPI, sessions SessionRefresher) *Reconciler {
	return &Reconciler{log: log, billing: billing, sessions: sessions}
}

// Run выполняет один проход сверки: sync, затем обновление профиля.
// Оба шага по возможности: неуспех sync логируется, профиль всё равно
// перечитывается — его отказ тоже только логируется внутри RefreshUser.
func (r *Reconciler) Run(ctx context.Context) {
	const op = "reconcile.Run"

	if err := r.billing.Sync(ctx); err != nil {
		r.log.Warn("subscription sync failed", slog.String("op", op), sl.Err(err))
	}
	r.sessions.RefreshUser(ctx)
}
