package notify

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/api/metrics"
	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	persistTimeout = 5 * time.Second
)

// Publisher pushes a relayed notification to an external broker. Optional;
// the dispatcher persists regardless.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the recipient id, guaranteeing per-recipient ordering. Each
// worker persists the notification and, when a Publisher is configured,
// pushes it to the broker. Implements ports.Notifier.
type Dispatcher struct {
	workers   []chan domain.Notification
	repo      ports.NotificationRepository
	publisher Publisher
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. publisher may be nil.
func NewDispatcher(numWorkers int, repo ports.NotificationRepository, publisher Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.Notification, numWorkers),
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Notify enqueues a notification for its recipient's worker. When the worker
// channel is full the notification is dropped and logged; relay is
// best-effort and must never block a store mutation.
func (d *Dispatcher) Notify(n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	idx := d.shardIndex(n.RecipientID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().
			Str("recipient_id", n.RecipientID).
			Int("worker_id", idx).
			Msg("notification dropped, worker channel full")
	}
}

// shardIndex maps a recipient id deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			d.relay(ctx, id, n)
		}
	}
}

func (d *Dispatcher) relay(ctx context.Context, workerID int, n domain.Notification) {
	persistCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := d.repo.Create(persistCtx, &n); err != nil {
		d.log.Error().Err(err).
			Str("recipient_id", n.RecipientID).
			Int("worker_id", workerID).
			Msg("notification persist failed")
		return
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(persistCtx, n); err != nil {
			d.log.Error().Err(err).
				Str("recipient_id", n.RecipientID).
				Int("worker_id", workerID).
				Msg("notification publish failed")
		}
	}

	metrics.NotificationsRelayedTotal.WithLabelValues(string(n.Severity)).Inc()
}
