package sms

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/selorg/ops-api/internal/domain"
)

// SNS publishes the OTP message through AWS SNS. It is only ever used as an
// explicitly configured exclusive primary provider — it is not part of the
// fallback chain.
type SNS struct {
	client *sns.Client
}

func NewSNS(region string) (*SNS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config for sns: %w", err)
	}
	return &SNS{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNS) Name() string { return "sns" }

func (s *SNS) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	to := "+91" + phone
	message := RenderTemplate("", code, expiry)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	if err != nil {
		return SendResult{
			ErrorCode:   domain.CodeSMSGatewayError,
			UserMessage: "Could not send OTP, please try again",
			InternalLog: fmt.Sprintf("sns: publish: %v", err),
		}
	}
	return SendResult{Sent: true, InternalLog: "sns: published"}
}
