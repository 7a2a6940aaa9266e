// Package models содержит доменные структуры клиента:
// профиль пользователя, снимок подписки, тарифный план и сессию.
// Структуры заполняются из JSON-ответов бэкенда и используются
// во всех слоях клиента без частичного слияния полей.
package models

import "time"

// User представляет профиль авторизованного пользователя.
// Профиль принадлежит сессии и заменяется целиком при каждом обновлении.
type User struct {
	ID           string        `json:"id"`                     // Уникальный идентификатор пользователя
	Email        string        `json:"email"`                  // Электронная почта
	FullName     string        `json:"full_name"`              // Полное имя
	FirstName    string        `json:"first_name"`             // Имя для приветствия
	Admin        bool          `json:"admin"`                  // Признак администратора
	CompanyName  string        `json:"company_name,omitempty"` // Название компании (опционально)
	CreatedAt    time.Time     `json:"created_at"`             // Дата регистрации
	Subscription *Subscription `json:"subscription,omitempty"` // Текущая подписка, nil если отсутствует
}

// Subscription — снимок состояния подписки пользователя.
// Источник истины — биллинговый сервис, клиент хранит только кэш.
type Subscription struct {
	Status           string     `json:"status"`                       // Статус подписки, см. константы SubscriptionStatus*
	CurrentPlan      *Plan      `json:"current_plan,omitempty"`       // Оплаченный тариф, nil если не выбран
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"` // Конец оплаченного периода
}

// Возможные значения Subscription.Status.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusInactive = "inactive"
)

// EffectiveStatus возвращает статус для отображения.
// Отсутствие тарифа эквивалентно статусу "inactive", хотя поля
// хранятся независимо: истина всегда на стороне бэкенда.
func (s *Subscription) EffectiveStatus() string {
	if s == nil || s.CurrentPlan == nil {
		return SubscriptionStatusInactive
	}
	if s.Status == "" {
		return SubscriptionStatusInactive
	}
	return s.Status
}
