package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/storage/memory"
)

// fakeSource отдаёт заранее подготовленные страницы и запоминает
// запрошенные окна.
type fakeSource struct {
	pages   []domain.OrderPage
	errs    map[int]error
	windows []domain.DateRange
}

func (s *fakeSource) FetchPage(_ context.Context, window domain.DateRange, page int) (domain.OrderPage, error) {
	s.windows = append(s.windows, window)
	if err, ok := s.errs[page]; ok {
		return domain.OrderPage{}, err
	}
	if page >= len(s.pages) {
		return domain.OrderPage{}, nil
	}
	return s.pages[page], nil
}

type fakePublisher struct {
	passIDs  []string
	inserted []int
	err      error
}

func (p *fakePublisher) PublishSyncCompleted(passID string, _ domain.DateRange, inserted int) error {
	p.passIDs = append(p.passIDs, passID)
	p.inserted = append(p.inserted, inserted)
	return p.err
}

func order(id string) domain.Order {
	return domain.Order{ID: id, Worth: decimal.RequireFromString("10.00")}
}

func TestSyncer_FullPassPersistsAllButFinalPage(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{pages: []domain.OrderPage{
		{Orders: []domain.Order{order("p0-a"), order("p0-b")}, HasMore: true},
		{Orders: []domain.Order{order("p1-a"), order("p1-b")}, HasMore: true},
		{Orders: []domain.Order{order("p2-a")}, HasMore: false},
	}}

	passAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	syncer := NewSyncer(repo, source, WithNow(func() time.Time { return passAt }))

	inserted, err := syncer.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	// Страницы с HasMore сохранены.
	_, err = repo.Get(context.Background(), "p1-b")
	assert.NoError(t, err)

	// Журнал получил успешный проход с отметкой начала прохода.
	last, err := repo.LastFinishedSyncAt(context.Background())
	require.NoError(t, err)
	assert.True(t, last.Equal(passAt))
}

func TestSyncer_FinalPageNotPersisted(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{pages: []domain.OrderPage{
		{Orders: []domain.Order{order("keep")}, HasMore: true},
		{Orders: []domain.Order{order("dropped")}, HasMore: false},
	}}

	syncer := NewSyncer(repo, source)

	inserted, err := syncer.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	_, err = repo.Get(context.Background(), "keep")
	assert.NoError(t, err)

	// Заказы страницы с HasMore=false не сохраняются: так платформа
	// обозначает конец выдачи.
	_, err = repo.Get(context.Background(), "dropped")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSyncer_IncrementalWindowStartsAtWatermark(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{}

	firstAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	secondAt := firstAt.Add(24 * time.Hour)

	now := firstAt
	syncer := NewSyncer(repo, source, WithNow(func() time.Time { return now }))

	_, err := syncer.RunPass(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, source.windows)
	assert.True(t, source.windows[0].From.IsZero(), "first pass covers full history")
	assert.True(t, source.windows[0].To.Equal(firstAt))

	now = secondAt
	_, err = syncer.RunPass(context.Background())
	require.NoError(t, err)

	second := source.windows[len(source.windows)-1]
	assert.True(t, second.From.Equal(firstAt), "second pass starts at previous watermark")
	assert.True(t, second.To.Equal(secondAt))
}

func TestSyncer_PageErrorRecordsFailedAttempt(t *testing.T) {
	repo := memory.NewOrderRepository()
	fetchErr := errors.New("api is down")
	source := &fakeSource{
		pages: []domain.OrderPage{{Orders: []domain.Order{order("a")}, HasMore: true}},
		errs:  map[int]error{1: fetchErr},
	}

	syncer := NewSyncer(repo, source)

	inserted, err := syncer.RunPass(context.Background())
	require.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 1, inserted, "orders persisted before the failure stay persisted")

	// Ошибочный проход не двигает watermark.
	_, err = repo.LastFinishedSyncAt(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSyncHistory)
}

func TestSyncer_PublishesCompletionEvent(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{pages: []domain.OrderPage{
		{Orders: []domain.Order{order("a"), order("b")}, HasMore: true},
	}}
	publisher := &fakePublisher{}

	syncer := NewSyncer(repo, source, WithPublisher(publisher))

	_, err := syncer.RunPass(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.inserted, 1)
	assert.Equal(t, 2, publisher.inserted[0])
	assert.NotEmpty(t, publisher.passIDs[0])
}

func TestSyncer_PublisherErrorDoesNotFailPass(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{}
	publisher := &fakePublisher{err: errors.New("broker unavailable")}

	syncer := NewSyncer(repo, source, WithPublisher(publisher))

	_, err := syncer.RunPass(context.Background())
	assert.NoError(t, err)
}

func TestSyncer_EmptyFirstPageFinishesPass(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{}

	syncer := NewSyncer(repo, source)

	inserted, err := syncer.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	_, err = repo.LastFinishedSyncAt(context.Background())
	assert.NoError(t, err, "empty window still records a finished attempt")
}

func TestBootstrap_RunsOnlyWithoutHistory(t *testing.T) {
	repo := memory.NewOrderRepository()
	source := &fakeSource{}

	syncer := NewSyncer(repo, source)

	syncer.Bootstrap(context.Background())
	assert.Len(t, source.windows, 1, "empty journal triggers a bootstrap pass")

	syncer.Bootstrap(context.Background())
	assert.Len(t, source.windows, 1, "existing history skips the bootstrap pass")
}
