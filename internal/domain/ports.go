package domain

import (
	"context"
	"time"
)

// OrderRepository описывает требования к хранилищу заказов и журналу
// синхронизаций.
type OrderRepository interface {
	// UpsertBatch вставляет заказы одной транзакцией. Заказы с уже
	// существующим ID молча пропускаются (first write wins) — последующие
	// изменения заказа на стороне платформы в локальной копии не
	// отражаются. Возвращает число фактически вставленных строк; пустой
	// батч — no-op с результатом 0.
	UpsertBatch(ctx context.Context, orders []Order) (int, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// StreamByWorthRange отдаёт заказы с Min <= worth <= Max через fn
	// батчами не больше batchSize, в стабильном порядке, не материализуя
	// выборку целиком. Ошибка fn (в том числе отмена ctx) прерывает
	// выборку, курсор освобождается на любом пути выхода.
	StreamByWorthRange(ctx context.Context, filter WorthFilter, batchSize int, fn func(batch []Order) error) error
	// RecordSyncAttempt добавляет запись в журнал синхронизаций.
	RecordSyncAttempt(ctx context.Context, at time.Time, status SyncStatus) error
	// LastFinishedSyncAt возвращает отметку последнего успешного прохода
	// или ErrNoSyncHistory.
	LastFinishedSyncAt(ctx context.Context) (time.Time, error)
}

// OrderPage — одна страница выдачи внешнего поискового API.
type OrderPage struct {
	Orders []Order
	// HasMore сообщает, есть ли за этой страницей следующая.
	HasMore bool
}

// OrderSource описывает внешний источник заказов с постраничной выдачей.
type OrderSource interface {
	// FetchPage выполняет один запрос за страницей page (нумерация с нуля)
	// в диапазоне дат добавления window. "Нет результатов" — не ошибка,
	// а пустая страница без продолжения.
	FetchPage(ctx context.Context, window DateRange, page int) (OrderPage, error)
}

// SyncEventPublisher публикует событие о завершении прохода синхронизации.
type SyncEventPublisher interface {
	PublishSyncCompleted(passID string, window DateRange, inserted int) error
}
