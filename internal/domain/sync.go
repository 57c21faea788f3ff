package domain

import "time"

// SyncStatus — итог одного прохода синхронизации.
type SyncStatus string

const (
	// SyncStatusFinished — проход завершился успешно; его отметка времени
	// становится нижней границей окна следующего прохода.
	SyncStatusFinished SyncStatus = "finished"
	// SyncStatusError — проход прервался ошибкой; уже сохранённые страницы
	// остаются в хранилище.
	SyncStatusError SyncStatus = "error"
)

// SyncAttempt — запись append-only журнала синхронизаций, по одной на проход.
type SyncAttempt struct {
	CreatedAt time.Time
	Status    SyncStatus
}

// DateRange ограничивает выборку заказов по времени добавления на платформе.
// Нулевое значение границы означает отсутствие ограничения с этой стороны.
type DateRange struct {
	From time.Time
	To   time.Time
}
