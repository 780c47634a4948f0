// Package notify delivers support-escalation notifications when a
// conversation keeps failing to resolve.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"crm-assistant/internal/common/config"
	"crm-assistant/internal/common/logger"
)

// Escalation describes a conversation that reached the support threshold.
type Escalation struct {
	TenantID       string
	ConversationID string
	LastUserText   string
	FailureCount   int
}

// EscalationNotifier publishes escalations to an SNS topic and, when
// configured, emails the support inbox via SES. Delivery is best effort;
// callers log and continue on error.
type EscalationNotifier struct {
	sns    *SNSClient
	ses    *SESClient
	cfg    config.NotificationConfig
	logger logger.Logger
}

func NewEscalationNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*EscalationNotifier, error) {
	n := &EscalationNotifier{cfg: cfg, logger: log}

	if cfg.SNSTopicARN != "" {
		snsClient, err := NewSNSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init sns client: %w", err)
		}
		n.sns = snsClient
	}

	if cfg.SESTo != "" {
		sesClient, err := NewSESClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init ses client: %w", err)
		}
		n.ses = sesClient
	}

	return n, nil
}

func (n *EscalationNotifier) EscalateSupport(ctx context.Context, esc Escalation) error {
	subject := fmt.Sprintf("Assistant escalation: tenant %s", esc.TenantID)
	body := fmt.Sprintf(
		"Conversation %s for tenant %s failed to resolve %d consecutive turns.\nLast input: %q\n",
		esc.ConversationID, esc.TenantID, esc.FailureCount, esc.LastUserText,
	)

	var firstErr error

	if n.sns != nil {
		_, err := n.sns.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(n.cfg.SNSTopicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		if err != nil {
			n.logger.Warn("sns escalation publish failed", map[string]interface{}{
				"tenantId": esc.TenantID,
				"error":    err.Error(),
			})
			firstErr = err
		}
	}

	if n.ses != nil {
		_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(n.cfg.SESFrom),
			Destination: &sestypes.Destination{
				ToAddresses: []string{n.cfg.SESTo},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			n.logger.Warn("ses escalation email failed", map[string]interface{}{
				"tenantId": esc.TenantID,
				"error":    err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
