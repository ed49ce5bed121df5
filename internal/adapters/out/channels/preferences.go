package channels

import (
	"context"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
)

// StaticPreferences opts every recipient into every channel. It stands in
// until a user profile service owns per-user channel settings.
type StaticPreferences struct{}

// NewStaticPreferences creates the allow-all preference resolver.
func NewStaticPreferences() StaticPreferences {
	return StaticPreferences{}
}

// Channels returns all supported channels for any recipient.
func (StaticPreferences) Channels(context.Context, kernel.UUID) ([]notification.Channel, error) {
	return []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelSMS,
		notification.ChannelPush,
	}, nil
}
