package models

// Session — снимок текущей сессии клиента.
// Инвариант: Token и User либо оба заданы, либо оба отсутствуют;
// они устанавливаются и очищаются только вместе.
type Session struct {
	Token string // Непрозрачный токен, выданный сервисом аутентификации
	User  *User  // Профиль, которому принадлежит токен
}

// Authenticated сообщает, установлена ли сессия.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// PendingCheckout — отложенное намерение покупки: выбранный анонимным
// посетителем план, ожидающий возобновления после регистрации и входа.
// Слот единственный: одновременно может храниться не более одного значения.
type PendingCheckout struct {
	PlanSlug string `json:"plan_slug"` // Slug выбранного плана
}
