package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository для
// локальной разработки и тестов. Семантика повторяет PostgreSQL-вариант:
// first write wins, стабильный порядок выдачи по ID.
type orderRepositoryInMemory struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	attempts []domain.SyncAttempt
}

// NewOrderRepository возвращает пустой in-memory репозиторий.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders: make(map[string]domain.Order),
	}
}

func (r *orderRepositoryInMemory) UpsertBatch(_ context.Context, orders []domain.Order) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, order := range orders {
		if _, exists := r.orders[order.ID]; exists {
			continue
		}
		// Сохраняем копию позиций, чтобы избежать мутаций извне.
		order.Lines = append([]domain.OrderLine(nil), order.Lines...)
		r.orders[order.ID] = order
		inserted++
	}

	return inserted, nil
}

func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return order, nil
}

func (r *orderRepositoryInMemory) StreamByWorthRange(ctx context.Context, filter domain.WorthFilter, batchSize int, fn func(batch []domain.Order) error) error {
	if batchSize <= 0 {
		batchSize = 1
	}

	// Снимок под блокировкой, выдача батчей — уже без неё, чтобы fn мог
	// блокироваться на записи потребителю сколь угодно долго.
	r.mu.RLock()
	matched := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Matches(order.Worth) {
			order.Lines = append([]domain.OrderLine(nil), order.Lines...)
			matched = append(matched, order)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	for start := 0; start < len(matched); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + batchSize
		if end > len(matched) {
			end = len(matched)
		}
		if err := fn(matched[start:end]); err != nil {
			return err
		}
	}

	return nil
}

func (r *orderRepositoryInMemory) RecordSyncAttempt(_ context.Context, at time.Time, status domain.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, domain.SyncAttempt{CreatedAt: at, Status: status})
	return nil
}

func (r *orderRepositoryInMemory) LastFinishedSyncAt(_ context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		last  time.Time
		found bool
	)
	for _, attempt := range r.attempts {
		if attempt.Status != domain.SyncStatusFinished {
			continue
		}
		if !found || attempt.CreatedAt.After(last) {
			last = attempt.CreatedAt
			found = true
		}
	}
	if !found {
		return time.Time{}, domain.ErrNoSyncHistory
	}

	return last, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
