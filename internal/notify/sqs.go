package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the part of the SQS client used by the notifier.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes messages to a FIFO queue consumed by the mail sender.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
}

// NewSQSNotifier creates a notifier for queueURL.
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

// Notify sends the message. The batch id is the message group so the consumer
// sees the batch as one ordered trigger; the record id deduplicates retries.
func (n *SQSNotifier) Notify(ctx context.Context, msg Message) error {
	attrs := map[string]types.MessageAttributeValue{
		"MailType": stringAttr(msg.Kind),
	}

	if msg.Address != "" {
		attrs[AttrAddress] = stringAttr(msg.Address)
	}
	if msg.Name != "" {
		attrs[AttrName] = stringAttr(msg.Name)
	}

	for k, v := range msg.Attributes {
		// SQS rejects empty string attributes
		if v == "" {
			continue
		}
		attrs[k] = stringAttr(v)
	}

	group := msg.GroupID
	if group == "" {
		group = msg.DedupID
	}

	_, err := n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(n.queueURL),
		MessageBody:            aws.String("Mail to " + msg.Kind),
		MessageAttributes:      attrs,
		MessageGroupId:         aws.String(group),
		MessageDeduplicationId: aws.String(msg.DedupID),
	})
	if err != nil {
		return fmt.Errorf("send sqs message %s: %w", msg.DedupID, err)
	}

	return nil
}

func stringAttr(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}
