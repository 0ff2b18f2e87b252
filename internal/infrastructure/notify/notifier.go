package notify

import (
	"context"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

type Message struct {
	Subject string
	Body    string
}

// Sink delivers one message over one channel. Callers fan out over channels
// themselves so a broken channel cannot block the others.
type Sink interface {
	Send(ctx context.Context, ch Channel, recipient string, msg Message) error
}

// LogSink is the development sink: it just logs what would have been sent.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, ch Channel, recipient string, msg Message) error {
	s.log.Info("notification",
		zap.String("channel", string(ch)),
		zap.String("recipient", recipient),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
