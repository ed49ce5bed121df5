package commands

import (
	"context"
)

// MarkAllNotificationsReadCommandHandler marks every unread notification of
// a user as read in one transaction.
type MarkAllNotificationsReadCommandHandler struct {
	uowFactory NotificationUoWFactory
}

// NewMarkAllNotificationsReadCommandHandler creates a handler for marking
// all of a user's notifications read.
func NewMarkAllNotificationsReadCommandHandler(uowFactory NotificationUoWFactory) MarkAllNotificationsReadCommandHandler {
	return MarkAllNotificationsReadCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle marks all unread notifications of the recipient read. An empty
// unread set is a no-op success.
func (h MarkAllNotificationsReadCommandHandler) Handle(ctx context.Context, cmd MarkAllNotificationsReadCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	unread, err := uow.NotificationRepository().GetAllUnreadForRecipient(ctx, cmd.RecipientID())
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	for _, aggregate := range unread {
		if err = aggregate.MarkRead(); err != nil {
			return err
		}
		if err = uow.NotificationRepository().Update(ctx, aggregate); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}
