package notification

import (
	"context"
	"log"
	"time"

	"github.com/propdev-core/internal/domain"
)

// Processor drains the message queue on a fixed interval and attempts
// delivery. Polling keeps the loop simple and is adequate for a best-effort
// queue; there is no push signal from Enqueue.
type Processor struct {
	svc       *service
	interval  time.Duration
	batchSize int
}

// NewProcessor wires a processor to a Service created by NewService.
func NewProcessor(svc Service, interval time.Duration, batchSize int) *Processor {
	return &Processor{svc: svc.(*service), interval: interval, batchSize: batchSize}
}

// Start runs the poll loop until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Drain(ctx)
		}
	}
}

// Drain processes one batch. Exported so tests and the loop share one path.
func (p *Processor) Drain(ctx context.Context) {
	ids, err := p.svc.queue.DequeueBatch(ctx, p.batchSize)
	if err != nil {
		log.Printf("WARN: dequeue failed: %v", err)
		return
	}
	for _, msgID := range ids {
		if err := p.process(ctx, msgID); err != nil {
			log.Printf("WARN: process message %s: %v", msgID, err)
		}
	}
}

func (p *Processor) process(ctx context.Context, messageID string) error {
	msg, err := p.svc.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	// Not due yet: put it back and try again next cycle. This is re-delivery
	// polling, not a precise scheduler.
	if msg.ScheduledAt != nil && msg.ScheduledAt.After(now) {
		return p.svc.queue.Enqueue(ctx, messageID)
	}
	// Expired messages fail without a single delivery attempt.
	if msg.ExpiresAt != nil && msg.ExpiresAt.Before(now) {
		msg.Status = domain.MessageStatusFailed
		msg.UpdatedAt = now
		return p.svc.messages.Put(ctx, msg)
	}
	p.svc.deliver(ctx, msg)
	return nil
}

// deliver attempts every channel independently and records one attempt per
// try. A failed channel is retried per the template's delivery policy. The
// message ends sent if any channel succeeded, failed only if all did.
func (s *service) deliver(ctx context.Context, msg *domain.NotificationMessage) {
	anySuccess := false
	for _, ch := range msg.Channels {
		sender, ok := s.senders[ch]
		if !ok {
			msg.Attempts = append(msg.Attempts, domain.DeliveryAttempt{
				Channel:     ch,
				AttemptedAt: time.Now().UTC(),
				Status:      domain.MessageStatusFailed,
				Error:       "no sender registered for channel",
			})
			continue
		}
		if s.attemptChannel(ctx, msg, sender) {
			anySuccess = true
		}
	}
	if anySuccess {
		msg.Status = domain.MessageStatusSent
	} else {
		msg.Status = domain.MessageStatusFailed
	}
	msg.UpdatedAt = time.Now().UTC()
	if err := s.messages.Put(ctx, msg); err != nil {
		log.Printf("WARN: persist message %s after delivery: %v", msg.MessageID, err)
	}
}

// attemptChannel tries one channel up to 1+RetryAttempts times, appending an
// attempt record per try.
func (s *service) attemptChannel(ctx context.Context, msg *domain.NotificationMessage, sender ChannelSender) bool {
	tries := 1 + msg.Delivery.RetryAttempts
	for i := 0; i < tries; i++ {
		if i > 0 && msg.Delivery.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(msg.Delivery.RetryDelay):
			}
		}
		deliveryID, err := sender.Send(ctx, msg)
		attempt := domain.DeliveryAttempt{
			Channel:     sender.Channel(),
			AttemptedAt: time.Now().UTC(),
			DeliveryID:  deliveryID,
		}
		if err != nil {
			attempt.Status = domain.MessageStatusFailed
			attempt.Error = err.Error()
			msg.Attempts = append(msg.Attempts, attempt)
			continue
		}
		attempt.Status = domain.MessageStatusSent
		msg.Attempts = append(msg.Attempts, attempt)
		return true
	}
	return false
}
