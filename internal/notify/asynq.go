package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// TaskOnboarding is the asynq task type carrying a Message.
	TaskOnboarding = "mail:onboarding"

	// QueueMail is the asynq queue onboarding tasks are put on.
	QueueMail = "mail"

	maxRetry = 5
)

// AsynqNotifier enqueues messages as asynq tasks for the mail worker.
type AsynqNotifier struct {
	client *asynq.Client
}

// NewAsynqNotifier creates a notifier on top of an asynq client.
func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

// NewOnboardingTask builds the task of a message.
func NewOnboardingTask(msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal onboarding payload: %w", err)
	}

	return asynq.NewTask(TaskOnboarding, payload), nil
}

// ParseOnboardingTask decodes a task built by NewOnboardingTask.
func ParseOnboardingTask(t *asynq.Task) (Message, error) {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return Message{}, fmt.Errorf("unmarshal onboarding payload: %w", err)
	}

	return msg, nil
}

// TaskID is the deduplication id of the message task.
func TaskID(msg Message) string {
	return msg.GroupID + ":" + msg.DedupID
}

// Notify enqueues the message. A task that was already enqueued is not an error.
func (n *AsynqNotifier) Notify(ctx context.Context, msg Message) error {
	task, err := NewOnboardingTask(msg)
	if err != nil {
		return err
	}

	_, err = n.client.EnqueueContext(ctx, task,
		asynq.TaskID(TaskID(msg)),
		asynq.Queue(QueueMail),
		asynq.MaxRetry(maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("enqueue onboarding task %s: %w", msg.DedupID, err)
	}

	return nil
}
