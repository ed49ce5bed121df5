// Package notification models per-user notifications produced by the
// lifecycle fan-out. A notification is deduplicated on recipient, source
// event and channel, so redelivered bus events never notify a user twice.
package notification

import (
	"errors"
	"fmt"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

// Channel is the delivery medium of a notification.
type Channel int

const (
	ChannelUnknown Channel = iota
	ChannelEmail
	ChannelSMS
	ChannelPush
)

var channelStrings = map[Channel]string{
	ChannelEmail: "email",
	ChannelSMS:   "sms",
	ChannelPush:  "push",
}

// ChannelFromString parses the wire name of a channel.
func ChannelFromString(name string) (Channel, error) {
	for channel, s := range channelStrings {
		if s == name {
			return channel, nil
		}
	}
	return ChannelUnknown, errs.NewValueIsInvalidErrorWithCause("channel",
		fmt.Errorf("unknown channel %q", name))
}

// String returns the wire name of the channel.
func (c Channel) String() string {
	if name, ok := channelStrings[c]; ok {
		return name
	}
	return "unknown"
}

// Validate checks that the channel is a known one.
func (c Channel) Validate() error {
	if _, ok := channelStrings[c]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("channel",
			fmt.Errorf("unknown channel %d", int(c)))
	}
	return nil
}

// ErrNotificationIsNotConstructed is returned when a Notification bypassed
// its constructors.
var ErrNotificationIsNotConstructed = errors.New("Notification must be created via NewNotification or RestoreNotification")

// Notification is one message addressed to one user over one channel.
type Notification struct {
	id          kernel.UUID
	recipientID kernel.UUID
	eventID     string
	channel     Channel
	title       string
	body        string
	read        bool
	createdAt   time.Time

	isConstructed bool
}

// NewNotification creates an unread notification for a user.
func NewNotification(
	id kernel.UUID,
	recipientID kernel.UUID,
	eventID string,
	channel Channel,
	title string,
	body string,
	now time.Time,
) (*Notification, error) {
	n := &Notification{
		createdAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		n.setID(id),
		n.setRecipientID(recipientID),
		n.setEventID(eventID),
		n.setChannel(channel),
		n.setTitle(title),
		n.setBody(body),
	); err != nil {
		return nil, err
	}

	return n, nil
}

// RestoreNotification reconstructs a notification from persistence.
func RestoreNotification(
	id kernel.UUID,
	recipientID kernel.UUID,
	eventID string,
	channel Channel,
	title string,
	body string,
	read bool,
	createdAt time.Time,
) (*Notification, error) {
	n, err := NewNotification(id, recipientID, eventID, channel, title, body, createdAt)
	if err != nil {
		return nil, err
	}
	n.read = read
	return n, nil
}

// Validate ensures the notification was built through a constructor.
func (n *Notification) Validate() error {
	if n == nil || !n.isConstructed {
		return ErrNotificationIsNotConstructed
	}
	return nil
}

// ID returns the notification identifier.
func (n *Notification) ID() kernel.UUID { return n.id }

// RecipientID returns the user the notification is addressed to.
func (n *Notification) RecipientID() kernel.UUID { return n.recipientID }

// EventID returns the id of the bus event that produced the notification.
func (n *Notification) EventID() string { return n.eventID }

// Channel returns the delivery medium.
func (n *Notification) Channel() Channel { return n.channel }

// Title returns the short headline.
func (n *Notification) Title() string { return n.title }

// Body returns the message text.
func (n *Notification) Body() string { return n.body }

// IsRead reports whether the user has read the notification.
func (n *Notification) IsRead() bool { return n.read }

// CreatedAt returns when the notification was produced.
func (n *Notification) CreatedAt() time.Time { return n.createdAt }

// DedupKey identifies the notification for fan-out deduplication. Two
// notifications with the same key are the same logical message.
func (n *Notification) DedupKey() string {
	return DedupKey(n.recipientID, n.eventID, n.channel)
}

// DedupKey builds the fan-out deduplication key for a recipient, source
// event and channel.
func DedupKey(recipientID kernel.UUID, eventID string, channel Channel) string {
	return fmt.Sprintf("%s:%s:%s", recipientID, eventID, channel)
}

// MarkRead marks the notification as read. Marking twice is a no-op.
func (n *Notification) MarkRead() error {
	if err := n.Validate(); err != nil {
		return err
	}
	n.read = true
	return nil
}

func (n *Notification) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	n.id = id
	return nil
}

func (n *Notification) setRecipientID(recipientID kernel.UUID) error {
	if err := recipientID.Validate(); err != nil {
		return err
	}
	n.recipientID = recipientID
	return nil
}

func (n *Notification) setEventID(eventID string) error {
	if eventID == "" {
		return errs.NewValueIsRequiredError("eventID")
	}
	n.eventID = eventID
	return nil
}

func (n *Notification) setChannel(channel Channel) error {
	if err := channel.Validate(); err != nil {
		return err
	}
	n.channel = channel
	return nil
}

func (n *Notification) setTitle(title string) error {
	if title == "" {
		return errs.NewValueIsRequiredError("title")
	}
	n.title = title
	return nil
}

func (n *Notification) setBody(body string) error {
	if body == "" {
		return errs.NewValueIsRequiredError("body")
	}
	n.body = body
	return nil
}
