package jobqueue

import (
	"context"
	"fmt"

	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
)

// EmailProcessor delivers send_email jobs through the given transport.
func EmailProcessor(sender mail.Sender) Processor {
	return func(ctx context.Context, job *Job) error {
		payload, err := SendEmailJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		ctx, cancel := context.WithTimeout(ctx, mailTimeout)
		defer cancel()
		return sender.Send(ctx, payload.Message)
	}
}

// Dispatcher is a mail.Sender that defers delivery to the queue so request
// handlers never wait on SMTP.
type Dispatcher struct {
	queue *Queue
}

func NewDispatcher(q *Queue) *Dispatcher {
	return &Dispatcher{queue: q}
}

func (d *Dispatcher) Send(ctx context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	_, err := d.queue.EnqueueJob(ctx, JobTypeSendEmail, SendEmailJobPayload{Message: msg}.ToMap())
	return err
}
