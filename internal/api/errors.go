// Package api реализует типизированные HTTP-клиенты к бэкенду:
// сервису аутентификации, каталогу планов и биллинговому сервису.
// Ответы и ошибки бэкенда отображаются в явные типы на границе,
// дальше клиента сырые JSON-формы не распространяются.
package api

import (
	"fmt"
	"sort"
	"strings"
)

// AuthError — отклонённые учётные данные или регистрация.
// Message формируется из полевых или общей ошибки ответа сервера
// и пригоден для показа пользователю.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ValidationError — некорректный ввод, перехваченный до сетевого вызова,
// например несовпадающее подтверждение пароля.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NetworkError — запрос не удалось выполнить до конца.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// CheckoutError — биллинговый сервис отклонил запрос checkout или portal.
type CheckoutError struct {
	Message string
}

func (e *CheckoutError) Error() string { return e.Message }

// ErrorPayload описывает формы тела ошибки, которые умеет отдавать бэкенд:
// общее сообщение либо ошибки по полям формы.
type ErrorPayload struct {
	Error  string              `json:"error,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// Message сводит тело ошибки к одному человекочитаемому сообщению.
// Полевые ошибки склеиваются в устойчивом порядке, при пустом теле
// возвращается запасной текст.
func (p ErrorPayload) Message(fallback string) string {
	if len(p.Errors) > 0 {
		fields := make([]string, 0, len(p.Errors))
		for field := range p.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		var parts []string
		for _, field := range fields {
			for _, msg := range p.Errors[field] {
				parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
			}
		}
		return strings.Join(parts, "; ")
	}
	if p.Error != "" {
		return p.Error
	}
	return fallback
}

// StatusError — ответ бэкенда с неожиданным HTTP-статусом.
// Методы клиентов отображают его в AuthError или CheckoutError,
// наружу он выходит только для неразобранных случаев.
type StatusError struct {
	Code    int
	Payload ErrorPayload
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Payload.Message("no error details"))
}
