// Package notify delivers verification codes, password reset codes, and
// project status-change messages to users by email.
//
// Dispatch is fire-and-forget: the API process hands a payload to a
// Notifier and moves on. Delivery failures are logged, never surfaced to
// the request that triggered them.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/projtrack/apiserver/internal/mq"
)

// Notification kinds carried on the queue.
const (
	KindVerificationCode  = "verification_code"
	KindPasswordResetCode = "password_reset_code"
	KindStatusUpdate      = "status_update"
)

const dispatchTimeout = 10 * time.Second

// Notification is the payload handed to a Sender.
type Notification struct {
	Kind        string `json:"kind"`
	To          string `json:"to"`
	FirstName   string `json:"firstName,omitempty"`
	Code        string `json:"code,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	OldStatus   string `json:"oldStatus,omitempty"`
	NewStatus   string `json:"newStatus,omitempty"`
}

// Sender performs the actual delivery of a notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// QueueNotifier publishes notifications to the message queue for the
// delivery worker to pick up. It implements services.Notifier.
type QueueNotifier struct {
	queue   *mq.MQ
	channel string
}

func NewQueueNotifier(queue *mq.MQ, channel string) *QueueNotifier {
	return &QueueNotifier{queue: queue, channel: channel}
}

func (q *QueueNotifier) VerificationCode(ctx context.Context, email, firstName, code string) {
	q.dispatch(Notification{Kind: KindVerificationCode, To: email, FirstName: firstName, Code: code})
}

func (q *QueueNotifier) PasswordResetCode(ctx context.Context, email, firstName, code string) {
	q.dispatch(Notification{Kind: KindPasswordResetCode, To: email, FirstName: firstName, Code: code})
}

func (q *QueueNotifier) ProjectStatusChanged(ctx context.Context, email, projectName, oldStatus, newStatus string) {
	q.dispatch(Notification{
		Kind:        KindStatusUpdate,
		To:          email,
		ProjectName: projectName,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	})
}

// dispatch publishes asynchronously on a context detached from the
// request, so the triggering operation is never blocked or failed by
// the broker.
func (q *QueueNotifier) dispatch(n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		data, err := json.Marshal(n)
		if err != nil {
			log.Printf("notify: marshal %s payload: %v", n.Kind, err)
			return
		}
		if _, err := q.queue.Publish(ctx, q.channel, data, map[string]string{"kind": n.Kind}); err != nil {
			log.Printf("notify: publish %s to %s failed: %v", n.Kind, n.To, err)
		}
	}()
}

// DirectNotifier hands notifications straight to a Sender on a detached
// goroutine, with no queue in between. Used for single-process deploys
// and development. It implements services.Notifier.
type DirectNotifier struct {
	sender Sender
}

func NewDirectNotifier(sender Sender) *DirectNotifier {
	return &DirectNotifier{sender: sender}
}

func (d *DirectNotifier) VerificationCode(ctx context.Context, email, firstName, code string) {
	d.dispatch(Notification{Kind: KindVerificationCode, To: email, FirstName: firstName, Code: code})
}

func (d *DirectNotifier) PasswordResetCode(ctx context.Context, email, firstName, code string) {
	d.dispatch(Notification{Kind: KindPasswordResetCode, To: email, FirstName: firstName, Code: code})
}

func (d *DirectNotifier) ProjectStatusChanged(ctx context.Context, email, projectName, oldStatus, newStatus string) {
	d.dispatch(Notification{
		Kind:        KindStatusUpdate,
		To:          email,
		ProjectName: projectName,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	})
}

func (d *DirectNotifier) dispatch(n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, n); err != nil {
			log.Printf("notify: send %s to %s failed: %v", n.Kind, n.To, err)
		}
	}()
}
