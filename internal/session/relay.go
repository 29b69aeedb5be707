package session

import (
	"context"
	"log/slog"
	"time"

	"emili/internal/metrics"
	"emili/internal/models"
)

// Recorder persists chat messages.
type Recorder interface {
	Append(ctx context.Context, rec models.ChatRecord) error
}

// Publisher forwards user submissions to whatever produces replies.
type Publisher interface {
	Publish(ctx context.Context, sub Submission) error
}

// Subscriber yields replies until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan models.Message, error)
}

type RelayOptions struct {
	Recorder   Recorder
	Publisher  Publisher
	Subscriber Subscriber
}

// Relay is the consumer side of a Session. Any of its collaborators may be nil.
type Relay struct {
	sess *Session
	opts RelayOptions
	log  *slog.Logger
}

func NewRelay(sess *Session, opts RelayOptions) *Relay {
	return &Relay{
		sess: sess,
		opts: opts,
		log:  slog.With("component", "relay"),
	}
}

// Run waits on the wake signal and handles submissions until ctx is done.
// A failed subscription only disables replies; submissions keep draining.
func (r *Relay) Run(ctx context.Context) error {
	if r.opts.Subscriber != nil {
		replies, err := r.opts.Subscriber.Subscribe(ctx)
		if err != nil {
			r.log.Error("subscribe failed, continuing without replies", "error", err)
		} else {
			go r.forward(ctx, replies)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.sess.Wake():
			for _, sub := range r.sess.Drain() {
				r.handle(ctx, sub)
			}
		}
	}
}

func (r *Relay) handle(ctx context.Context, sub Submission) {
	metrics.ObserveChatMessage(string(models.RoleUser))
	r.log.Info("user message", "id", sub.ID, "elapsed_ms", sub.ElapsedMS)

	r.record(ctx, models.ChatRecord{
		ID:        sub.ID,
		Role:      models.RoleUser,
		Content:   sub.Text,
		ElapsedMS: sub.ElapsedMS,
	})

	if r.opts.Publisher == nil {
		return
	}
	if err := r.opts.Publisher.Publish(ctx, sub); err != nil {
		r.log.Error("publish failed", "id", sub.ID, "error", err)
	}
}

func (r *Relay) forward(ctx context.Context, replies <-chan models.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-replies:
			if !ok {
				return
			}
			metrics.ObserveChatMessage(string(msg.Role))
			r.record(ctx, models.ChatRecord{
				Role:      msg.Role,
				Content:   msg.Content,
				ElapsedMS: r.sess.Elapsed(),
			})

			if err := r.sess.Deliver(ctx, msg); err != nil {
				return
			}
		}
	}
}

func (r *Relay) record(ctx context.Context, rec models.ChatRecord) {
	if r.opts.Recorder == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := r.opts.Recorder.Append(ctx, rec); err != nil {
		r.log.Error("record message failed", "role", rec.Role, "error", err)
	}
}
