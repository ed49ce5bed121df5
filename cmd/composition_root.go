package cmd

import (
	"fmt"
	"log/slog"

	httpin "coordinator/internal/adapters/in/http"
	"coordinator/internal/adapters/out/channels"
	"coordinator/internal/adapters/out/drivergw"
	"coordinator/internal/adapters/out/geo"
	"coordinator/internal/adapters/out/paymentgw"
	"coordinator/internal/adapters/out/postgres"
	"coordinator/internal/core/application/eventhandlers"
	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/application/usecases/queries"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/keylock"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use case handlers. Handlers are
// cheap value types, so each Create call builds a fresh one over the
// shared infrastructure: one gorm pool, one publisher, and one key lock
// per aggregate family so every handler serializes on the same locks.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	publisher  events.Publisher
	logger     *slog.Logger

	orderLocks  *keylock.KeyLock
	driverLocks *keylock.KeyLock

	paymentProvider ports.PaymentProvider
	geoClient       ports.GeoClient
	driverGateway   ports.DriverGateway
	senders         []ports.ChannelSender
}

func NewCompositionRoot(
	configs Config,
	gormDB *gorm.DB,
	publisher events.Publisher,
	logger *slog.Logger,
) CompositionRoot {
	return CompositionRoot{
		config:      configs,
		gormDB:      gormDB,
		uowFactory:  *postgres.NewGormUnitOfWorkFactory(gormDB),
		publisher:   publisher,
		logger:      logger,
		orderLocks:  keylock.New(),
		driverLocks: keylock.New(),

		paymentProvider: paymentgw.NewClient(configs.PaymentProviderURL, configs.PaymentProviderAPIKey, logger),
		geoClient:       geo.NewClient(configs.GeoServiceURL, logger),
		driverGateway:   drivergw.NewGateway(configs.DriverGatewayURL, logger),
		senders: []ports.ChannelSender{
			channels.NewEmailSender(configs.EmailGatewayURL, logger),
			channels.NewSMSSender(logger),
			channels.NewPushSender(logger),
		},
	}
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewPlaceOrderCommandHandler(f, c.publisher)
}

func (c *CompositionRoot) CreateApplyOrderTransitionCommandHandler() commands.ApplyOrderTransitionCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewApplyOrderTransitionCommandHandler(f, c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.assignmentUoWFactory(), c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateAssignDriverCommandHandler() commands.AssignDriverCommandHandler {
	return commands.NewAssignDriverCommandHandler(
		c.assignmentUoWFactory(),
		c.geoClient,
		c.driverGateway,
		c.publisher,
		c.orderLocks,
		c.driverLocks,
		c.config.Assignment,
		c.logger,
	)
}

func (c *CompositionRoot) CreateConfirmPickupCommandHandler() commands.ConfirmPickupCommandHandler {
	return commands.NewConfirmPickupCommandHandler(c.assignmentUoWFactory(), c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateCompleteDeliveryCommandHandler() commands.CompleteDeliveryCommandHandler {
	return commands.NewCompleteDeliveryCommandHandler(c.assignmentUoWFactory(), c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateRecordDriverLocationCommandHandler() commands.RecordDriverLocationCommandHandler {
	return commands.NewRecordDriverLocationCommandHandler(c.assignmentUoWFactory(), c.orderLocks)
}

func (c *CompositionRoot) CreateCreateIntentCommandHandler() commands.CreateIntentCommandHandler {
	return commands.NewCreateIntentCommandHandler(
		c.paymentUoWFactory(), c.paymentProvider, c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateHandleProviderCallbackCommandHandler() commands.HandleProviderCallbackCommandHandler {
	return commands.NewHandleProviderCallbackCommandHandler(c.paymentUoWFactory(), c.publisher, c.orderLocks)
}

func (c *CompositionRoot) CreateProcessRefundCommandHandler() commands.ProcessRefundCommandHandler {
	return commands.NewProcessRefundCommandHandler(c.paymentUoWFactory(), c.paymentProvider, c.orderLocks)
}

func (c *CompositionRoot) CreateReconcilePaymentCommandHandler() commands.ReconcilePaymentCommandHandler {
	return commands.NewReconcilePaymentCommandHandler(
		c.paymentUoWFactory(), c.paymentProvider, c.CreateHandleProviderCallbackCommandHandler())
}

func (c *CompositionRoot) CreateReconcileStalledOrdersCommandHandler() commands.ReconcileStalledOrdersCommandHandler {
	var f commands.SupervisorUoWFactory = FuncSupervisorUoWFactory(func() commands.SupervisorUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReconcileStalledOrdersCommandHandler(
		f,
		c.CreateCancelOrderCommandHandler(),
		c.CreateReconcilePaymentCommandHandler(),
		c.publisher,
		c.config.Supervisor,
		c.logger,
	)
}

func (c *CompositionRoot) CreateMarkNotificationReadCommandHandler() commands.MarkNotificationReadCommandHandler {
	return commands.NewMarkNotificationReadCommandHandler(c.notificationUoWFactory())
}

func (c *CompositionRoot) CreateMarkAllNotificationsReadCommandHandler() commands.MarkAllNotificationsReadCommandHandler {
	return commands.NewMarkAllNotificationsReadCommandHandler(c.notificationUoWFactory())
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetNotificationsQueryHandler() queries.GetNotificationsQueryHandler {
	return queries.NewGetNotificationsQueryHandler(c.gormDB)
}

// CreateHTTPServer builds the inbound HTTP surface over the use cases.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreatePlaceOrderCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		c.CreateHandleProviderCallbackCommandHandler(),
		c.CreateMarkNotificationReadCommandHandler(),
		c.CreateMarkAllNotificationsReadCommandHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
		c.CreateGetNotificationsQueryHandler(),
	)
}

// RegisterEventHandlers subscribes the consumer side of the coordinator:
// lifecycle reactions per topic plus the notification fan-out, which
// listens on every user-facing stream.
func (c *CompositionRoot) RegisterEventHandlers(subscriber events.Subscriber) error {
	orderEvents := eventhandlers.NewOrderEventsHandler(
		c.CreateCreateIntentCommandHandler(),
		c.CreateAssignDriverCommandHandler(),
		c.publisher,
		c.logger,
	)
	driverEvents := eventhandlers.NewDriverEventsHandler(
		c.CreateConfirmPickupCommandHandler(),
		c.CreateCompleteDeliveryCommandHandler(),
		c.CreateRecordDriverLocationCommandHandler(),
		c.CreateApplyOrderTransitionCommandHandler(),
		c.logger,
	)
	restaurantEvents := eventhandlers.NewRestaurantEventsHandler(
		c.CreateApplyOrderTransitionCommandHandler(),
		c.logger,
	)
	paymentEvents := eventhandlers.NewPaymentEventsHandler(
		c.CreateProcessRefundCommandHandler(),
		c.logger,
	)

	var fanoutFactory eventhandlers.FanoutUoWFactory = FuncFanoutUoWFactory(func() eventhandlers.FanoutUoW {
		return c.uowFactory.Create()
	})
	fanout := eventhandlers.NewNotificationFanoutHandler(fanoutFactory, c.senders,
		channels.NewStaticPreferences(), c.logger)
	analytics := eventhandlers.NewAnalyticsRelayHandler(c.publisher, c.logger)

	subscriptions := []struct {
		topic   events.Topic
		handler events.Handler
	}{
		{events.TopicOrderEvents, orderEvents},
		{events.TopicDriverEvents, driverEvents},
		{events.TopicRestaurantEvents, restaurantEvents},
		{events.TopicPaymentEvents, paymentEvents},
		{events.TopicOrderEvents, fanout},
		{events.TopicDriverEvents, fanout},
		{events.TopicPaymentEvents, fanout},
		{events.TopicOrderEvents, analytics},
		{events.TopicDriverEvents, analytics},
		{events.TopicPaymentEvents, analytics},
	}
	for _, sub := range subscriptions {
		if err := subscriber.Subscribe(sub.topic, sub.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", sub.topic, err)
		}
	}

	return nil
}

func (c *CompositionRoot) assignmentUoWFactory() commands.AssignmentUoWFactory {
	return FuncAssignmentUoWFactory(func() commands.AssignmentUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) paymentUoWFactory() commands.PaymentUoWFactory {
	return FuncPaymentUoWFactory(func() commands.PaymentUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) notificationUoWFactory() commands.NotificationUoWFactory {
	return FuncNotificationUoWFactory(func() commands.NotificationUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncPaymentUoWFactory func() commands.PaymentUoW

func (f FuncPaymentUoWFactory) Create() commands.PaymentUoW {
	return f()
}

type FuncAssignmentUoWFactory func() commands.AssignmentUoW

func (f FuncAssignmentUoWFactory) Create() commands.AssignmentUoW {
	return f()
}

type FuncNotificationUoWFactory func() commands.NotificationUoW

func (f FuncNotificationUoWFactory) Create() commands.NotificationUoW {
	return f()
}

type FuncSupervisorUoWFactory func() commands.SupervisorUoW

func (f FuncSupervisorUoWFactory) Create() commands.SupervisorUoW {
	return f()
}

type FuncFanoutUoWFactory func() eventhandlers.FanoutUoW

func (f FuncFanoutUoWFactory) Create() eventhandlers.FanoutUoW {
	return f()
}
