package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quillpost/blog-api/internal/api/metrics"
	"github.com/quillpost/blog-api/internal/core/ports"
)

const (
	defaultWorkers        = 4
	defaultDeliverTimeout = 15 * time.Second
	channelBuffer         = 256
)

var (
	ErrQueueFull   = errors.New("notification queue full")
	ErrNoRecipient = errors.New("notification recipient missing")
)

// Dispatcher queues outbound mail and delivers it from a fixed set of workers.
// Mail for one recipient always lands on the same worker, so it is delivered
// in the order it was accepted.
type Dispatcher struct {
	workers   []chan ports.OutboundMail
	transport ports.MailTransport
	timeout   time.Duration
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, transport ports.MailTransport, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	d := &Dispatcher{
		workers:   make([]chan ports.OutboundMail, numWorkers),
		transport: transport,
		timeout:   timeout,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.OutboundMail, channelBuffer)
	}
	return d
}

// Send accepts a message for background delivery and never blocks. The
// caller's context is not carried into delivery, so a finished request does
// not cancel its mail.
func (d *Dispatcher) Send(_ context.Context, template, recipient string, vars map[string]string) error {
	if recipient == "" {
		return ErrNoRecipient
	}
	msg := ports.OutboundMail{
		ID:        uuid.NewString(),
		Template:  template,
		Recipient: recipient,
		Vars:      vars,
	}

	idx := d.shardIndex(recipient)
	select {
	case d.workers[idx] <- msg:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.NotificationsTotal.WithLabelValues(template, "dropped").Inc()
		return ErrQueueFull
	}
}

// Run starts all workers and blocks until ctx is cancelled and every worker
// has returned. Mail still buffered at that point is abandoned.
func (d *Dispatcher) Run(ctx context.Context) error {
	var g errgroup.Group
	for i, ch := range d.workers {
		g.Go(func() error {
			d.runWorker(ctx, i, ch)
			return nil
		})
	}
	return g.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.OutboundMail) {
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			if n := len(ch); n > 0 {
				d.log.Warn().Int("worker_id", id).Int("pending", n).Msg("notifications abandoned on shutdown")
			}
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, msg ports.OutboundMail) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.transport.Deliver(ctx, msg)
	metrics.NotificationDeliveryDuration.WithLabelValues(msg.Template).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(msg.Template, "failed").Inc()
		d.log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("template", msg.Template).
			Int("worker_id", worker).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(msg.Template, "delivered").Inc()
	d.log.Debug().Str("message_id", msg.ID).Str("template", msg.Template).Msg("notification delivered")
}
