package thumbnail

import (
	"context"
	"log/slog"
	"time"

	"filesmanager/internal/logging"
)

// drainTimeout bounds how long Run keeps pushing buffered jobs after its
// context ends.
const drainTimeout = 2 * time.Second

// Producer decouples request handlers from the queue transport. Enqueue
// only touches an in-memory buffer; Run forwards buffered jobs to the Queue.
type Producer struct {
	q   Queue
	ch  chan Job
	log *slog.Logger
}

func NewProducer(q Queue, buffer int, lg *slog.Logger) *Producer {
	if buffer < 1 {
		buffer = 1
	}
	if lg == nil {
		lg = logging.Discard()
	}
	return &Producer{q: q, ch: make(chan Job, buffer), log: lg}
}

// Enqueue hands j to the forwarder without waiting. A full buffer drops the
// job; thumbnails are best-effort.
func (p *Producer) Enqueue(j Job) {
	select {
	case p.ch <- j:
	default:
		p.log.Warn("thumbnail buffer full, dropping job", "user_id", j.UserID, "file_id", j.FileID)
	}
}

// Run forwards jobs until ctx is done, then drains what is still buffered.
func (p *Producer) Run(ctx context.Context) error {
	for {
		select {
		case j := <-p.ch:
			p.push(ctx, j)
		case <-ctx.Done():
			p.drain()
			return nil
		}
	}
}

func (p *Producer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case j := <-p.ch:
			p.push(ctx, j)
		default:
			return
		}
	}
}

func (p *Producer) push(ctx context.Context, j Job) {
	if err := p.q.Push(ctx, j); err != nil {
		p.log.Error("enqueue thumbnail job", "user_id", j.UserID, "file_id", j.FileID, "err", err)
		return
	}
	p.log.Debug("thumbnail job queued", "user_id", j.UserID, "file_id", j.FileID)
}
