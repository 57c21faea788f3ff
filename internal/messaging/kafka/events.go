package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

// EventType определяет тип события.
type EventType string

const (
	// EventTypeSyncCompleted — успешно завершённый проход синхронизации.
	EventTypeSyncCompleted EventType = "sync.completed"
)

// TopicSyncEvents — topic для событий синхронизации заказов.
const TopicSyncEvents = "ordersync.sync.events"

// SyncCompletedEvent публикуется после каждого успешного прохода.
type SyncCompletedEvent struct {
	EventType  EventType  `json:"event_type"`
	PassID     string     `json:"pass_id"`
	WindowFrom *time.Time `json:"window_from,omitempty"`
	WindowTo   time.Time  `json:"window_to"`
	Inserted   int        `json:"inserted"`
	Timestamp  time.Time  `json:"timestamp"`
}

// SyncEventPublisher адаптирует Producer к доменному порту публикации
// событий синхронизации.
type SyncEventPublisher struct {
	producer *Producer
}

// NewSyncEventPublisher создаёт publisher поверх producer.
func NewSyncEventPublisher(producer *Producer) *SyncEventPublisher {
	return &SyncEventPublisher{producer: producer}
}

// PublishSyncCompleted отправляет событие о завершении прохода.
func (p *SyncEventPublisher) PublishSyncCompleted(passID string, window domain.DateRange, inserted int) error {
	event := SyncCompletedEvent{
		EventType: EventTypeSyncCompleted,
		PassID:    passID,
		WindowTo:  window.To,
		Inserted:  inserted,
		Timestamp: time.Now().UTC(),
	}
	if !window.From.IsZero() {
		from := window.From
		event.WindowFrom = &from
	}

	return p.producer.PublishEvent(TopicSyncEvents, passID, event)
}

var _ domain.SyncEventPublisher = (*SyncEventPublisher)(nil)
