package eventhandlers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/ports"
)

// FanoutUoW is the transaction scope of the notification fan-out: it reads
// orders to resolve recipients and writes notifications.
type FanoutUoW interface {
	commands.TxManager
	commands.OrderRepoFactory
	commands.NotificationRepoFactory
}

// FanoutUoWFactory creates fan-out unit of work instances.
type FanoutUoWFactory interface {
	Create() FanoutUoW
}

// audience names the party on the order a message is addressed to.
type audience int

const (
	audienceCustomer audience = iota
	audienceRestaurant
	audienceDriver
)

// message is the rendered form of one lifecycle event for one audience.
// channels are the event's candidates; the recipient's preferences narrow
// them further.
type message struct {
	audience audience
	channels []notification.Channel
	title    string
	body     string
}

// NotificationFanoutHandler turns lifecycle events into stored,
// per-channel notifications for everyone on the order: the customer
// always, the restaurant when an order lands or dies, the driver once
// assigned. The dedup key "recipient:event:channel" makes the fan-out
// idempotent under redelivery, and channel sends are best effort: the
// stored notification is the source of truth, a failed push is just a
// missed nudge.
type NotificationFanoutHandler struct {
	uowFactory  FanoutUoWFactory
	senders     map[notification.Channel]ports.ChannelSender
	preferences ports.ChannelPreferences
	logger      *slog.Logger
}

// NewNotificationFanoutHandler creates the fan-out for all lifecycle topics.
func NewNotificationFanoutHandler(
	uowFactory FanoutUoWFactory,
	senders []ports.ChannelSender,
	preferences ports.ChannelPreferences,
	logger *slog.Logger,
) *NotificationFanoutHandler {
	byChannel := make(map[notification.Channel]ports.ChannelSender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &NotificationFanoutHandler{
		uowFactory:  uowFactory,
		senders:     byChannel,
		preferences: preferences,
		logger:      logger.With("component", "notification-fanout"),
	}
}

// Handle fans one envelope out to the recipients on its order.
func (h *NotificationFanoutHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return absorb(ctx, h.logger, string(envelope.EventType), err)
	}
	return absorb(ctx, h.logger, string(envelope.EventType), h.fanout(ctx, envelope))
}

func (h *NotificationFanoutHandler) fanout(ctx context.Context, envelope events.Envelope) error {
	orderID, msgs, err := h.render(envelope)
	if err != nil || len(msgs) == 0 {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return err
	}

	var created []*notification.Notification
	for _, msg := range msgs {
		recipientID, ok := recipientOf(aggregate, msg.audience)
		if !ok {
			continue
		}
		channels, err := h.allowedChannels(ctx, recipientID, msg.channels)
		if err != nil {
			return err
		}

		for _, channel := range channels {
			dedupKey := notification.DedupKey(recipientID, envelope.EventID, channel)
			seen, err := uow.NotificationRepository().Exists(ctx, dedupKey)
			if err != nil {
				return err
			}
			if seen {
				continue
			}

			n, err := notification.NewNotification(kernel.NewUUID(), recipientID,
				envelope.EventID, channel, msg.title, msg.body, time.Now())
			if err != nil {
				return err
			}
			if err = uow.NotificationRepository().Add(ctx, n); err != nil {
				return err
			}
			created = append(created, n)
		}
	}

	if len(created) == 0 {
		return nil
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, n := range created {
		h.send(ctx, n)
	}
	return nil
}

// recipientOf resolves an audience to the user on the order. The driver
// slot is empty until assignment commits, so driver messages for an order
// without one are dropped.
func recipientOf(aggregate *order.Order, who audience) (kernel.UUID, bool) {
	switch who {
	case audienceRestaurant:
		return aggregate.RestaurantID(), true
	case audienceDriver:
		if aggregate.DriverID() == nil {
			return kernel.UUID{}, false
		}
		return *aggregate.DriverID(), true
	default:
		return aggregate.CustomerID(), true
	}
}

// allowedChannels keeps the candidate channels the recipient opted into.
func (h *NotificationFanoutHandler) allowedChannels(
	ctx context.Context, recipientID kernel.UUID, candidates []notification.Channel,
) ([]notification.Channel, error) {
	enabled, err := h.preferences.Channels(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	allowed := make([]notification.Channel, 0, len(candidates))
	for _, channel := range candidates {
		if slices.Contains(enabled, channel) {
			allowed = append(allowed, channel)
		}
	}
	return allowed, nil
}

func (h *NotificationFanoutHandler) send(ctx context.Context, n *notification.Notification) {
	sender, ok := h.senders[n.Channel()]
	if !ok {
		return
	}
	if err := sender.Send(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "channel send failed",
			"channel", n.Channel().String(),
			"notification_id", n.ID().String(),
			"error", err)
	}
}

// render maps an envelope to the messages it produces, or none when the
// event notifies nobody. The customer message always comes first.
func (h *NotificationFanoutHandler) render(envelope events.Envelope) (kernel.UUID, []message, error) {
	var (
		orderIDRaw string
		msgs       []message
	)

	switch envelope.EventType {
	case events.TypeOrderCreated:
		var data events.OrderCreatedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{
			{
				audience: audienceCustomer,
				channels: []notification.Channel{notification.ChannelEmail},
				title:    "Order received",
				body:     fmt.Sprintf("We received your order %s.", data.OrderNumber),
			},
			{
				audience: audienceRestaurant,
				channels: []notification.Channel{notification.ChannelPush},
				title:    "New order",
				body:     fmt.Sprintf("Order %s is waiting for confirmation.", data.OrderNumber),
			},
		}

	case events.TypePaymentSettled:
		var data events.PaymentSettledData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{{
			audience: audienceCustomer,
			channels: []notification.Channel{notification.ChannelEmail},
			title:    "Payment confirmed",
			body:     "Your payment went through and the restaurant is on it.",
		}}

	case events.TypePaymentFailed:
		var data events.PaymentFailedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{{
			audience: audienceCustomer,
			channels: []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
			title:    "Payment failed",
			body:     "We could not process your payment. Please try again.",
		}}

	case events.TypeOrderStatusChanged:
		var data events.OrderStatusChangedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{{
			audience: audienceCustomer,
			channels: []notification.Channel{notification.ChannelPush},
			title:    "Order update",
			body:     fmt.Sprintf("Your order %s is now %s.", data.OrderNumber, data.Status),
		}}

	case events.TypeOrderCancelled:
		var data events.OrderStatusChangedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		body := "Your order was cancelled."
		if data.Reason != "" {
			body = fmt.Sprintf("Your order was cancelled: %s.", data.Reason)
		}
		msgs = []message{
			{
				audience: audienceCustomer,
				channels: []notification.Channel{notification.ChannelEmail, notification.ChannelPush},
				title:    "Order cancelled",
				body:     body,
			},
			{
				audience: audienceRestaurant,
				channels: []notification.Channel{notification.ChannelPush},
				title:    "Order cancelled",
				body:     fmt.Sprintf("Order %s was cancelled, stop preparing it.", data.OrderNumber),
			},
		}

	case events.TypeDriverAssigned:
		var data events.DriverAssignedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{
			{
				audience: audienceCustomer,
				channels: []notification.Channel{notification.ChannelPush},
				title:    "Driver on the way",
				body:     "A driver has been assigned to your order.",
			},
			{
				audience: audienceDriver,
				channels: []notification.Channel{notification.ChannelPush},
				title:    "New delivery",
				body:     "You accepted a delivery. Head to the restaurant for pickup.",
			},
		}

	case events.TypeDeliveryCompleted:
		var data events.DeliveryCompletedData
		if err := decode(envelope, &data); err != nil {
			return kernel.UUID{}, nil, err
		}
		orderIDRaw = data.OrderID
		msgs = []message{{
			audience: audienceCustomer,
			channels: []notification.Channel{notification.ChannelPush, notification.ChannelEmail},
			title:    "Delivered",
			body:     "Your order has been delivered. Enjoy!",
		}}

	default:
		return kernel.UUID{}, nil, nil
	}

	orderID, err := parseID("order_id", orderIDRaw)
	if err != nil {
		return kernel.UUID{}, nil, err
	}
	return orderID, msgs, nil
}
