package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// MessageHandler processes one message body. Returning nil deletes the message;
// returning an error leaves it for redelivery after the visibility timeout.
type MessageHandler func(ctx context.Context, body []byte) error

// ErrPoisonMessage marks a message that can never succeed. The poller deletes it.
var ErrPoisonMessage = errors.New("poison message")

// SQSPoller long-polls one queue and hands each message to a handler.
type SQSPoller struct {
	client   *sqs.Client
	queueURL string
	name     string
	logger   *zap.Logger
}

func NewSQSPoller(cfg sdkaws.Config, queueURL, name string, logger *zap.Logger) *SQSPoller {
	return &SQSPoller{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		name:     name,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled.
func (p *SQSPoller) Start(ctx context.Context, handler MessageHandler) {
	p.logger.Info("SQS consumer started", zap.String("consumer", p.name), zap.String("queue", p.queueURL))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("SQS consumer shutting down", zap.String("consumer", p.name))
			return
		default:
			if err := p.pollOnce(ctx, handler); err != nil && ctx.Err() == nil {
				p.logger.Error("SQS receive error", zap.String("consumer", p.name), zap.Error(err))
				time.Sleep(5 * time.Second)
			}
		}
	}
}

func (p *SQSPoller) pollOnce(ctx context.Context, handler MessageHandler) error {
	out, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(p.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   30,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range out.Messages {
		if msg.Body == nil || msg.ReceiptHandle == nil {
			continue
		}
		err := handler(ctx, UnwrapSNSEnvelope([]byte(*msg.Body)))
		if err != nil && !errors.Is(err, ErrPoisonMessage) {
			p.logger.Warn("message processing failed; leaving for redelivery",
				zap.String("consumer", p.name), zap.Error(err))
			continue
		}
		if err != nil {
			p.logger.Error("dropping unprocessable message", zap.String("consumer", p.name), zap.Error(err))
		}
		if _, err := p.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      sdkaws.String(p.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			p.logger.Error("failed to delete SQS message", zap.String("consumer", p.name), zap.Error(err))
		}
	}
	return nil
}

type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// UnwrapSNSEnvelope returns the inner message when body is an SNS -> SQS
// notification, and body unchanged otherwise.
func UnwrapSNSEnvelope(body []byte) []byte {
	var env snsEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Type != "Notification" || env.Message == "" {
		return body
	}
	return []byte(env.Message)
}
