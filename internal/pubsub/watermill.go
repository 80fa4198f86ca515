package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	metaKeyConnectionID = "connection_id"
	metaKeyTopic        = "topic"
)

// WatermillBridge implements Publisher and Subscriber on watermill's
// in-memory GoChannel.
type WatermillBridge struct {
	channel *gochannel.GoChannel
	logger  *slog.Logger
}

// NewWatermillBridge creates an in-memory bus. Messages published to a topic
// with no subscribers are dropped.
func NewWatermillBridge() *WatermillBridge {
	return &WatermillBridge{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			watermill.NewStdLogger(false, false),
		),
		logger: slog.Default().With("component", "pubsub"),
	}
}

func toWatermill(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyConnectionID, msg.ConnectionID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func fromWatermill(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k == metaKeyConnectionID || k == metaKeyTopic {
			continue
		}
		metadata[k] = v
	}
	return Message{
		Topic:        wmMsg.Metadata.Get(metaKeyTopic),
		ConnectionID: wmMsg.Metadata.Get(metaKeyConnectionID),
		Payload:      wmMsg.Payload,
		Metadata:     metadata,
	}
}

// Publish implements Publisher.
func (b *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return b.channel.Publish(msg.Topic, toWatermill(ctx, msg))
}

// Subscribe implements Subscriber. The handler runs on a dedicated goroutine
// per subscription. Handler errors are logged and the message is still acked,
// since GoChannel redelivers nacked messages to the same handler forever.
func (b *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.channel.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			if err := handler(ctx, fromWatermill(wmMsg)); err != nil {
				b.logger.Error("Failed to handle bus message",
					"topic", topic,
					"msg_id", wmMsg.UUID,
					"error", err)
			}
			wmMsg.Ack()
		}
		b.logger.Debug("Subscription ended", "topic", topic)
	}()

	return nil
}

// Close shuts the bus down and ends every subscription.
func (b *WatermillBridge) Close() error {
	return b.channel.Close()
}
