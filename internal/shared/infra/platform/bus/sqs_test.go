package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	receiveIn *sqs.ReceiveMessageInput
	sendIn    *sqs.SendMessageInput
	deleteIn  *sqs.DeleteMessageInput
	out       *sqs.ReceiveMessageOutput
	err       error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleteIn = in
	return &sqs.DeleteMessageOutput{}, f.err
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sendIn = in
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSQueue_ReceiveMapsMessages(t *testing.T) {
	api := &fakeSQS{out: &sqs.ReceiveMessageOutput{Messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		ReceiptHandle: aws.String("rh-1"),
		Body:          aws.String(`{"eventType":"GameStarted"}`),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String("GameStarted")},
		},
	}}}}
	q := NewSQSQueue(api)

	msgs, err := q.Receive(context.Background(), "http://queue", ReceiveOptions{
		MaxMessages:       10,
		WaitTime:          20 * time.Second,
		VisibilityTimeout: 60 * time.Second,
	})

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m-1", msgs[0].ID)
	assert.Equal(t, "rh-1", msgs[0].ReceiptHandle)
	assert.Equal(t, 3, msgs[0].ReceiveCount)
	assert.Equal(t, "GameStarted", msgs[0].Attributes["eventType"])

	assert.Equal(t, int32(10), api.receiveIn.MaxNumberOfMessages)
	assert.Equal(t, int32(20), api.receiveIn.WaitTimeSeconds)
	assert.Equal(t, int32(60), api.receiveIn.VisibilityTimeout)
	assert.Equal(t, "http://queue", aws.ToString(api.receiveIn.QueueUrl))
}

func TestSQSQueue_SendAndDelete(t *testing.T) {
	api := &fakeSQS{}
	q := NewSQSQueue(api)

	require.NoError(t, q.Send(context.Background(), "http://queue", []byte("body"), map[string]string{"eventType": "GameQueued", "subjectId": ""}))
	assert.Equal(t, "body", aws.ToString(api.sendIn.MessageBody))
	assert.Contains(t, api.sendIn.MessageAttributes, "eventType")
	assert.NotContains(t, api.sendIn.MessageAttributes, "subjectId")

	require.NoError(t, q.Delete(context.Background(), "http://queue", "rh-1"))
	assert.Equal(t, "rh-1", aws.ToString(api.deleteIn.ReceiptHandle))
}

func TestSQSQueue_ReceiveError(t *testing.T) {
	q := NewSQSQueue(&fakeSQS{err: errors.New("throttled")})

	_, err := q.Receive(context.Background(), "http://queue", ReceiveOptions{MaxMessages: 1})

	assert.ErrorContains(t, err, "throttled")
}
