package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.inputs = append(f.inputs, in)

	return &sqs.SendMessageOutput{MessageId: aws.String("m1")}, nil
}

func TestSQSNotifier(t *testing.T) {
	fake := &fakeSQS{}
	n := NewSQSNotifier(fake, "https://sqs.eu-west-1.amazonaws.com/1/mail.fifo")

	for _, msg := range testBatch("batch-1", 2).Messages {
		msg.Attributes = map[string]string{AttrUsername: "jdoe", AttrPassword: "pw", AttrRoom: ""}
		require.NoError(t, n.Notify(context.Background(), msg))
	}

	require.Len(t, fake.inputs, 2)

	in := fake.inputs[1]
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/1/mail.fifo", aws.ToString(in.QueueUrl))
	assert.Equal(t, "Mail to user", aws.ToString(in.MessageBody))
	assert.Equal(t, "batch-1", aws.ToString(in.MessageGroupId))
	assert.Equal(t, "batch-1-1", aws.ToString(in.MessageDeduplicationId))
	assert.Equal(t, "user", aws.ToString(in.MessageAttributes["MailType"].StringValue))
	assert.Equal(t, "user1@example.com", aws.ToString(in.MessageAttributes[AttrAddress].StringValue))
	assert.Equal(t, "jdoe", aws.ToString(in.MessageAttributes[AttrUsername].StringValue))
	assert.NotContains(t, in.MessageAttributes, AttrRoom)

	// both messages share the batch group
	assert.Equal(t, aws.ToString(fake.inputs[0].MessageGroupId), aws.ToString(in.MessageGroupId))
}

func TestSQSNotifierError(t *testing.T) {
	n := NewSQSNotifier(&fakeSQS{err: errors.New("throttled")}, "q")

	err := n.Notify(context.Background(), Message{DedupID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
