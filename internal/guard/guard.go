// Package guard содержит политики доступа к экранам клиента.
// Политики — чистые функции от снимка сессии; корневая модель
// переоценивает политику активного экрана при каждом изменении
// сессии, а не один раз при входе на экран.
package guard

import "github.com/magabrotheeeer/subscription-portal/internal/models"

// Decision — результат применения политики к снимку сессии.
type Decision int

const (
	// Allow — экран отрисовывается.
	Allow Decision = iota
	// RedirectLogin — перенаправление на экран входа.
	RedirectLogin
	// RedirectDashboard — перенаправление на основной экран авторизованного пользователя.
	RedirectDashboard
)

// Policy — политика доступа к экрану.
type Policy func(sess models.Session) Decision

// Protected пускает только авторизованных: без токена — на экран входа.
func Protected(sess models.Session) Decision {
	if !sess.Authenticated() {
		return RedirectLogin
	}
	return Allow
}

// Admin пускает только администраторов: без токена — на экран входа,
// с токеном без прав администратора — на dashboard, а не на вход.
func Admin(sess models.Session) Decision {
	if !sess.Authenticated() {
		return RedirectLogin
	}
	if sess.User == nil || !sess.User.Admin {
		return RedirectDashboard
	}
	return Allow
}

// Public пускает всех; политика экранов без ограничений.
func Public(models.Session) Decision {
	return Allow
}
