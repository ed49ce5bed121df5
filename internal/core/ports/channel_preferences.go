package ports

import (
	"context"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
)

// ChannelPreferences resolves the channels a recipient has opted into.
// The fan-out intersects an event's candidate channels with this set, so
// a recipient with no entry for a channel never hears about it there.
type ChannelPreferences interface {
	Channels(ctx context.Context, recipientID kernel.UUID) ([]notification.Channel, error)
}
