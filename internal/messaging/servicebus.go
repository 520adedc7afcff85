package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"

	"example.com/gatherly/services/events/config"
	"example.com/gatherly/services/events/internal/models"
)

// TransitionMessage is the payload published for each committed lifecycle
// transition, consumed downstream by the analytics pipeline.
type TransitionMessage struct {
	EventID   string        `json:"event_id"`
	UUID      string        `json:"uuid"`
	Action    models.Action `json:"action"`
	Status    models.Status `json:"status"`
	DateTime  time.Time     `json:"date_time"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher publishes lifecycle transitions. Publishing is best effort: a
// failed publish is logged by the caller and never rolls back the transition.
type Publisher interface {
	PublishTransition(ctx context.Context, event *models.Event, action models.Action) error
	Close() error
}

// serviceBusPublisher implements Publisher over Azure Service Bus.
type serviceBusPublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
}

// NewServiceBusPublisher creates a publisher for the configured topic.
// An empty connection string returns a disabled no-op publisher.
func NewServiceBusPublisher(cfg config.ServiceBusConfig) (Publisher, error) {
	if cfg.ConnectionString == "" {
		return noopPublisher{}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.TopicName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusPublisher{client: client, sender: sender}, nil
}

// PublishTransition sends one transition message to the topic.
func (p *serviceBusPublisher) PublishTransition(ctx context.Context, event *models.Event, action models.Action) error {
	body, err := json.Marshal(TransitionMessage{
		EventID:   event.ID,
		UUID:      event.UUID.String(),
		Action:    action,
		Status:    event.Status,
		DateTime:  event.DateTime,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal transition message")
	}

	msg := &azservicebus.Message{
		Body: body,
		ApplicationProperties: map[string]interface{}{
			"action": string(action),
		},
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrap(err, "failed to publish transition message")
	}
	return nil
}

// Close closes the sender and the underlying client.
func (p *serviceBusPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.sender != nil {
		if err := p.sender.Close(ctx); err != nil {
			return errors.Wrap(err, "failed to close Service Bus sender")
		}
	}
	if p.client != nil {
		if err := p.client.Close(ctx); err != nil {
			return errors.Wrap(err, "failed to close Service Bus client")
		}
	}
	return nil
}

// NewNoopPublisher returns a publisher that discards all messages.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

// noopPublisher is used when no connection string is configured.
type noopPublisher struct{}

func (noopPublisher) PublishTransition(context.Context, *models.Event, models.Action) error {
	return nil
}

func (noopPublisher) Close() error { return nil }
