package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	worthCursorName = "orders_by_worth"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// UpsertBatch вставляет батч заказов одной транзакцией: либо видны все
// новые строки батча, либо ни одной. Конфликт по order_id пропускается
// без ошибки и не перезаписывает существующую строку.
func (r *orderRepository) UpsertBatch(ctx context.Context, orders []domain.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	inserted := 0
	for _, order := range orders {
		var products []byte
		products, err = json.Marshal(order.Lines)
		if err != nil {
			return 0, fmt.Errorf("marshal products for order %s: %w", order.ID, err)
		}

		var res sql.Result
		res, err = tx.ExecContext(opCtx, `
			INSERT INTO orders (order_id, order_worth, products)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id) DO NOTHING
		`, order.ID, order.Worth, products)
		if err != nil {
			return 0, fmt.Errorf("insert order %s: %w", order.ID, err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected for order %s: %w", order.ID, err)
		}
		inserted += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert batch: %w", err)
	}

	return inserted, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		order    domain.Order
		products []byte
	)
	err := r.db.QueryRowContext(opCtx, `
		SELECT order_id, order_worth, products
		FROM orders
		WHERE order_id = $1
	`, id).Scan(&order.ID, &order.Worth, &products)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if err := json.Unmarshal(products, &order.Lines); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal products for order %s: %w", id, err)
	}

	return order, nil
}

// StreamByWorthRange читает заказы через серверный курсор: выборка не
// материализуется целиком ни на стороне процесса, ни на стороне драйвера.
// Курсор живёт внутри read-only транзакции и освобождается на любом пути
// выхода, включая отмену ctx при обрыве потребителя.
func (r *orderRepository) StreamByWorthRange(ctx context.Context, filter domain.WorthFilter, batchSize int, fn func(batch []domain.Order) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	// Rollback после успешного Commit — no-op.
	defer func() { _ = tx.Rollback() }()

	if err := declareWorthCursor(ctx, tx, filter); err != nil {
		return err
	}

	for {
		batch, err := fetchWorthCursorBatch(ctx, tx, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			break
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("close worth cursor tx: %w", err)
	}

	return nil
}

func declareWorthCursor(ctx context.Context, tx *sql.Tx, filter domain.WorthFilter) error {
	// Порядок по order_id стабилен между батчами одного курсора.
	var err error
	if filter.Max != nil {
		_, err = tx.ExecContext(ctx, `
			DECLARE `+worthCursorName+` CURSOR FOR
			SELECT order_id, order_worth, products
			FROM orders
			WHERE order_worth >= $1 AND order_worth <= $2
			ORDER BY order_id
		`, filter.Min, *filter.Max)
	} else {
		_, err = tx.ExecContext(ctx, `
			DECLARE `+worthCursorName+` CURSOR FOR
			SELECT order_id, order_worth, products
			FROM orders
			WHERE order_worth >= $1
			ORDER BY order_id
		`, filter.Min)
	}
	if err != nil {
		return fmt.Errorf("declare worth cursor: %w", err)
	}
	return nil
}

func fetchWorthCursorBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]domain.Order, error) {
	// FETCH не принимает placeholder для количества строк.
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("FETCH %d FROM %s", batchSize, worthCursorName))
	if err != nil {
		return nil, fmt.Errorf("fetch from worth cursor: %w", err)
	}
	defer rows.Close()

	batch := make([]domain.Order, 0, batchSize)
	for rows.Next() {
		var (
			order    domain.Order
			products []byte
		)
		if err := rows.Scan(&order.ID, &order.Worth, &products); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(products, &order.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal products for order %s: %w", order.ID, err)
		}
		batch = append(batch, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursor batch: %w", err)
	}

	return batch, nil
}

func (r *orderRepository) RecordSyncAttempt(ctx context.Context, at time.Time, status domain.SyncStatus) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(opCtx, `
		INSERT INTO sync_attempts (created_at, status)
		VALUES ($1, $2)
	`, at, string(status)); err != nil {
		return fmt.Errorf("record sync attempt: %w", err)
	}

	return nil
}

func (r *orderRepository) LastFinishedSyncAt(ctx context.Context) (time.Time, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var at time.Time
	err := r.db.QueryRowContext(opCtx, `
		SELECT created_at
		FROM sync_attempts
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, string(domain.SyncStatusFinished)).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNoSyncHistory
		}
		return time.Time{}, fmt.Errorf("select last finished sync: %w", err)
	}

	return at, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
