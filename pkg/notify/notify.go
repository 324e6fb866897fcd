package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

// Sealed describes a stamped document that is ready for download
type Sealed struct {
	OrderID   string    `json:"order_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendEmailAPI is the subset of the SES v2 client used by EmailNotifier.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier mails the download link to the customer
type EmailNotifier struct {
	client SendEmailAPI
	from   string
	logger *zap.Logger
}

func NewEmailNotifier(client SendEmailAPI, from string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, logger: logger}
}

func (n *EmailNotifier) NotifySealed(ctx context.Context, s Sealed) error {
	if s.Email == "" {
		return fmt.Errorf("no recipient for order %s", s.OrderID)
	}

	n.logger.Info("Sending download link",
		zap.String("order_id", s.OrderID),
		zap.String("to", s.Email))

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{s.Email},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(fmt.Sprintf("Your copy of order %s", s.OrderID))},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(emailBody(s))},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to email order %s: %w", s.OrderID, err)
	}
	return nil
}

func emailBody(s Sealed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", s.Name)
	fmt.Fprintf(&b, "your personal copy for order %s is ready:\n\n%s\n\n", s.OrderID, s.URL)
	fmt.Fprintf(&b, "The link expires at %s.\n", s.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}

// PublishAPI is the subset of the SNS client used by TopicNotifier.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// TopicNotifier publishes a JSON "document.sealed" event to an SNS topic
type TopicNotifier struct {
	client   PublishAPI
	topicARN string
}

func NewTopicNotifier(client PublishAPI, topicARN string) *TopicNotifier {
	return &TopicNotifier{client: client, topicARN: topicARN}
}

func (n *TopicNotifier) NotifySealed(ctx context.Context, s Sealed) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal sealed event: %w", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String("document.sealed"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish sealed event for order %s: %w", s.OrderID, err)
	}
	return nil
}
