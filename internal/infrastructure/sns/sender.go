package sns

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/propdev-core/internal/config"
)

// SMSSender sends SMS messages via AWS SNS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// PushSender publishes push payloads to a device endpoint via AWS SNS.
type PushSender interface {
	SendPush(ctx context.Context, targetArn, message string) error
}

// NewSender creates a publisher implementing both SMSSender and PushSender.
func NewSender(cfg *config.Config) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Sender{client: sns.NewFromConfig(awsCfg)}, nil
}

// Sender publishes SMS and push messages through a single SNS client.
type Sender struct {
	client *sns.Client
}

func (s *Sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}

func (s *Sender) SendPush(ctx context.Context, targetArn, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn: &targetArn,
		Message:   &message,
	})
	return err
}
