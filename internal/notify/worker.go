package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/projtrack/apiserver/internal/mq"
)

// Worker consumes queued notifications and hands them to a Sender.
type Worker struct {
	queue   *mq.MQ
	channel string
	sender  Sender
}

func NewWorker(queue *mq.MQ, channel string, sender Sender) *Worker {
	return &Worker{queue: queue, channel: channel, sender: sender}
}

// Run blocks consuming the notification channel until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.queue.Subscribe(ctx, w.channel, func(ctx context.Context, msg mq.Message) error {
		var n Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			// A malformed payload will never parse; ack it away.
			log.Printf("notify: dropping malformed message %s: %v", msg.ID, err)
			return nil
		}
		return w.sender.Send(ctx, n)
	})
}
