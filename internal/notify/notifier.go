package notify

import (
	"context"

	"eatsdash/internal/settings"

	"go.uber.org/zap"
)

// Announcement is one spoken message for one device.
type Announcement struct {
	EntryID  string
	Event    Event
	DeviceID string
	Message  string
	Voice    settings.Resolved
}

// Notifier delivers announcements and fires automations.
type Notifier interface {
	Announce(ctx context.Context, a Announcement) error
	TriggerAutomation(ctx context.Context, entityID string) error
}

// LogNotifier writes what would be spoken to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Announce(ctx context.Context, a Announcement) error {
	n.logger.Info("announce",
		zap.String("entry_id", a.EntryID),
		zap.String("event", string(a.Event)),
		zap.String("device", a.DeviceID),
		zap.String("engine", a.Voice.EngineID),
		zap.String("language", a.Voice.Language),
		zap.Float64("volume", a.Voice.Volume),
		zap.Bool("cache", a.Voice.Cache),
		zap.String("message", a.Message),
	)
	return nil
}

func (n *LogNotifier) TriggerAutomation(ctx context.Context, entityID string) error {
	n.logger.Info("trigger automation", zap.String("automation", entityID))
	return nil
}
