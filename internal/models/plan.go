// Package models: тарифный план каталога.
package models

// Plan представляет тарифный план из каталога.
// Планы неизменяемы и загружаются только для чтения из сервиса каталога,
// сессии они не принадлежат.
type Plan struct {
	ID             string   `json:"id"`                        // Идентификатор плана
	Slug           string   `json:"slug"`                      // Человекочитаемый ключ плана, например "growth"
	Name           string   `json:"name"`                      // Отображаемое название
	Description    string   `json:"description"`               // Краткое описание
	Price          *int64   `json:"price,omitempty"`           // Цена в минимальных единицах валюты, nil — цена по запросу
	PriceFormatted string   `json:"price_formatted,omitempty"` // Цена, отформатированная бэкендом
	BillingPeriod  string   `json:"billing_period"`            // Период оплаты, см. константы BillingPeriod*
	IsFeatured     bool     `json:"is_featured"`               // Выделенный план на витрине
	Badge          string   `json:"badge,omitempty"`           // Метка плана, например "Popular"
	Features       []string `json:"features"`                  // Упорядоченный список возможностей
	StripePriceID  string   `json:"stripe_price_id,omitempty"` // Идентификатор цены у платёжного провайдера
}

// Возможные значения Plan.BillingPeriod.
const (
	BillingPeriodMonthly = "monthly"
	BillingPeriodYearly  = "yearly"
	BillingPeriodOneTime = "one_time"
)

// PlanSlugEnterprise — план корпоративного уровня, продаётся через отдел продаж.
const PlanSlugEnterprise = "enterprise"

// ContactOnly сообщает, что план не покупается через checkout:
// корпоративный уровень и планы без цены ведут в контактную форму.
func (p Plan) ContactOnly() bool {
	return p.Slug == PlanSlugEnterprise || p.Price == nil
}

// Free сообщает, что план бесплатный и оформление оплаты не требуется.
func (p Plan) Free() bool {
	return p.Price != nil && *p.Price == 0
}
