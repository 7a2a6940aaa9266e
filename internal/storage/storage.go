// Package storage реализует порт долговременного локального хранилища
// "ключ-значение", переживающего перезапуск клиента. Все операции
// компонентов с сохраняемым состоянием (токен сессии, профиль,
// отложенный checkout) идут только через этот порт.
package storage

// Ключи, используемые клиентом. Других ключей в хранилище не бывает.
const (
	// KeySessionToken — непрозрачный токен сессии.
	KeySessionToken = "session_token"
	// KeySessionUser — сериализованный в JSON профиль пользователя.
	KeySessionUser = "session_user"
	// KeyPendingCheckout — slug плана отложенного checkout.
	KeyPendingCheckout = "pending_checkout"
)

// Store описывает контракт хранилища.
// Гарантируется только атомарность записи одного ключа;
// конкурентные писатели в рамках одного клиента не ожидаются.
type Store interface {
	// Get возвращает значение ключа и признак его наличия.
	Get(key string) (string, bool, error)

	// Set записывает значение ключа.
	Set(key, value string) error

	// Remove удаляет ключ. Удаление отсутствующего ключа не ошибка.
	Remove(key string) error
}
