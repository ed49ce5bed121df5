package commands

import (
	"errors"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

var ErrMarkAllNotificationsReadCommandIsNotConstructed = errors.New(
	"MarkAllNotificationsReadCommand must be created via NewMarkAllNotificationsReadCommand constructor",
)

// MarkAllNotificationsReadCommand marks every unread notification of a user
// as read.
type MarkAllNotificationsReadCommand struct { //nolint:recvcheck //using for validation
	recipientID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkAllNotificationsReadCommand creates a command to mark a user's
// notifications read.
func NewMarkAllNotificationsReadCommand(recipientID kernel.UUID) (MarkAllNotificationsReadCommand, error) {
	cmd := MarkAllNotificationsReadCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setRecipientID(recipientID); err != nil {
		return MarkAllNotificationsReadCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkAllNotificationsReadCommand) Validate() error {
	return c.guard.Validate(ErrMarkAllNotificationsReadCommandIsNotConstructed)
}

// RecipientID returns the user whose notifications to mark.
func (c MarkAllNotificationsReadCommand) RecipientID() kernel.UUID { return c.recipientID }

func (c *MarkAllNotificationsReadCommand) setRecipientID(recipientID kernel.UUID) error {
	if err := recipientID.Validate(); err != nil {
		return err
	}
	c.recipientID = recipientID
	return nil
}
