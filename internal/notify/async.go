package notify

import (
	"context"
	"log/slog"
	"sync"
)

// AsyncDispatcher ставит письма в ограниченную очередь и отправляет их в фоне одним воркером.
// Dispatch никогда не блокирует: при переполненной очереди письмо отбрасывается с записью в лог.
type AsyncDispatcher struct {
	log      *slog.Logger
	renderer *Renderer
	sender   Sender
	queue    chan Message

	// mu защищает queue от отправки после закрытия
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

func NewAsyncDispatcher(log *slog.Logger, renderer *Renderer, sender Sender, queueSize int) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &AsyncDispatcher{
		log:      log,
		renderer: renderer,
		sender:   sender,
		queue:    make(chan Message, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, msg Message) {
	const op = "notify.AsyncDispatcher.Dispatch"
	logger := d.log.With(slog.String("op", op), slog.String("kind", string(msg.Kind)))

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Warn("notification dispatcher is closed, message dropped", slog.String("to", msg.Recipient))
		return
	}

	select {
	case d.queue <- msg:
	default:
		logger.Warn("notification queue is full, message dropped", slog.String("to", msg.Recipient))
	}
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *AsyncDispatcher) deliver(msg Message) {
	const op = "notify.AsyncDispatcher.deliver"
	logger := d.log.With(slog.String("op", op), slog.String("kind", string(msg.Kind)), slog.String("to", msg.Recipient))

	mail, err := d.renderer.Render(msg)
	if err != nil {
		logger.Error("failed to render notification", slog.Any("error", err))
		return
	}
	if err := d.sender.Send(context.Background(), mail); err != nil {
		logger.Error("failed to send notification", slog.Any("error", err))
		return
	}
	logger.Debug("notification sent")
}

// Close прекращает приём писем и ждёт, пока очередь разберётся, или пока не истечёт ctx.
// Письма, пришедшие в Dispatch после Close, отбрасываются.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
