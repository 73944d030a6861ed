package services

import (
	"context"
	"sync"
	"time"

	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OccupancyPublisher pushes a slot's rider set to subscribers.
type OccupancyPublisher interface {
	PublishOccupancy(key models.SlotKey, members []string)
}

const (
	notifierQueueSize = 1000
	notifierBatchSize = 50
)

// SlotNotifier recounts slot membership in the background after reserve and
// cancel, and publishes the result. Bursts on one slot collapse into one update.
type SlotNotifier struct {
	db        *gorm.DB
	publisher OccupancyPublisher
	interval  time.Duration
	logger    *zap.Logger

	queue   chan models.SlotKey // 갱신 대기 슬롯
	pending map[string]bool
	mu      sync.Mutex
}

func NewSlotNotifier(db *gorm.DB, publisher OccupancyPublisher, interval time.Duration, logger *zap.Logger) *SlotNotifier {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &SlotNotifier{
		db:        db,
		publisher: publisher,
		interval:  interval,
		logger:    logger.Named("slot_notifier"),
		queue:     make(chan models.SlotKey, notifierQueueSize),
		pending:   make(map[string]bool),
	}
}

// ScheduleUpdate queues the slot unless it is already queued. It never blocks.
func (n *SlotNotifier) ScheduleUpdate(key models.SlotKey) {
	id := key.ID()
	n.mu.Lock()
	if n.pending[id] {
		n.mu.Unlock()
		return
	}
	n.pending[id] = true
	n.mu.Unlock()

	select {
	case n.queue <- key:
	default:
		// 큐가 가득 참
		n.mu.Lock()
		delete(n.pending, id)
		n.mu.Unlock()
		n.logger.Warn("Slot update queue full, dropping update", zap.String("slot", id))
	}
}

// Start runs the worker until ctx is cancelled.
func (n *SlotNotifier) Start(ctx context.Context) {
	batch := make([]models.SlotKey, 0, notifierBatchSize)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case key := <-n.queue:
			batch = append(batch, key)
			if len(batch) >= notifierBatchSize {
				n.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				n.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (n *SlotNotifier) processBatch(ctx context.Context, keys []models.SlotKey) {
	for _, key := range keys {
		// pending 은 조회 전에 해제해야 조회 도중 들어온 변경을 놓치지 않음
		n.mu.Lock()
		delete(n.pending, key.ID())
		n.mu.Unlock()

		var members []string
		err := n.db.WithContext(ctx).Model(&models.ShuttleMember{}).
			Where("reservation_id = ?", key.ID()).
			Order("created_at ASC").
			Pluck("user_id", &members).Error
		if err != nil {
			n.logger.Error("Failed to load slot riders", zap.String("slot", key.ID()), zap.Error(err))
			continue
		}
		n.publisher.PublishOccupancy(key, members)
	}
}
