package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/core/ports"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatusOlderThan(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, status, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) GetByOrderID(ctx context.Context, orderID kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetAllActive(ctx context.Context) ([]*delivery.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetAllAvailable(ctx context.Context) ([]*driver.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Add(ctx context.Context, i *payment.Intent) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, i *payment.Intent) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID kernel.UUID) (*payment.Intent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type MockNotificationRepository struct{ mock.Mock }

func (m *MockNotificationRepository) Add(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) GetAllForRecipient(ctx context.Context, recipientID kernel.UUID) ([]*notification.Notification, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) GetAllUnreadForRecipient(ctx context.Context, recipientID kernel.UUID) ([]*notification.Notification, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) Exists(ctx context.Context, dedupKey string) (bool, error) {
	args := m.Called(ctx, dedupKey)
	return args.Bool(0), args.Error(1)
}

type MockCompensationRepository struct{ mock.Mock }

func (m *MockCompensationRepository) Add(ctx context.Context, c *order.Compensation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCompensationRepository) GetByOrderAndKind(ctx context.Context, orderID kernel.UUID, kind order.CompensationKind) (*order.Compensation, error) {
	args := m.Called(ctx, orderID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Compensation), args.Error(1)
}

func (m *MockCompensationRepository) GetAllForOrder(ctx context.Context, orderID kernel.UUID) ([]*order.Compensation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Compensation), args.Error(1)
}

type MockPaymentProvider struct{ mock.Mock }

func (m *MockPaymentProvider) CreateIntent(ctx context.Context, orderID kernel.UUID, amount kernel.Money) (ports.ProviderIntent, error) {
	args := m.Called(ctx, orderID, amount)
	return args.Get(0).(ports.ProviderIntent), args.Error(1)
}

func (m *MockPaymentProvider) GetIntent(ctx context.Context, providerRef string) (ports.ProviderIntent, error) {
	args := m.Called(ctx, providerRef)
	return args.Get(0).(ports.ProviderIntent), args.Error(1)
}

func (m *MockPaymentProvider) RequestRefund(ctx context.Context, providerRef string, amount kernel.Money) error {
	args := m.Called(ctx, providerRef, amount)
	return args.Error(0)
}

type MockDriverGateway struct{ mock.Mock }

func (m *MockDriverGateway) Offer(ctx context.Context, driverID, orderID kernel.UUID, attemptID string, timeout time.Duration) (ports.OfferOutcome, error) {
	args := m.Called(ctx, driverID, orderID, attemptID, timeout)
	return args.Get(0).(ports.OfferOutcome), args.Error(1)
}

type MockGeoClient struct{ mock.Mock }

func (m *MockGeoClient) GetLocation(ctx context.Context, restaurantID kernel.UUID) (kernel.GeoPoint, error) {
	args := m.Called(ctx, restaurantID)
	return args.Get(0).(kernel.GeoPoint), args.Error(1)
}

func (m *MockGeoClient) EstimateTravelTime(ctx context.Context, from, to kernel.GeoPoint) (time.Duration, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(time.Duration), args.Error(1)
}

// fakeUoW is an in-memory unit of work satisfying every narrow UoW
// interface the handlers declare. Rollback after Commit is ignored, like
// the real implementation.
type fakeUoW struct {
	orders        *MockOrderRepository
	deliveries    *MockDeliveryRepository
	drivers       *MockDriverRepository
	payments      *MockPaymentRepository
	notifications *MockNotificationRepository
	compensations *MockCompensationRepository

	begun, committed, rolledBack int
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		orders:        &MockOrderRepository{},
		deliveries:    &MockDeliveryRepository{},
		drivers:       &MockDriverRepository{},
		payments:      &MockPaymentRepository{},
		notifications: &MockNotificationRepository{},
		compensations: &MockCompensationRepository{},
	}
}

func (u *fakeUoW) Begin(context.Context) error    { u.begun++; return nil }
func (u *fakeUoW) Commit(context.Context) error   { u.committed++; return nil }
func (u *fakeUoW) Rollback(context.Context) error { u.rolledBack++; return nil }

func (u *fakeUoW) OrderRepository() ports.OrderRepository               { return u.orders }
func (u *fakeUoW) DeliveryRepository() ports.DeliveryRepository         { return u.deliveries }
func (u *fakeUoW) DriverRepository() ports.DriverRepository             { return u.drivers }
func (u *fakeUoW) PaymentRepository() ports.PaymentRepository           { return u.payments }
func (u *fakeUoW) NotificationRepository() ports.NotificationRepository { return u.notifications }
func (u *fakeUoW) CompensationRepository() ports.CompensationRepository { return u.compensations }

type orderUoWFactory struct{ uow *fakeUoW }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.uow }

type paymentUoWFactory struct{ uow *fakeUoW }

func (f paymentUoWFactory) Create() commands.PaymentUoW { return f.uow }

type assignmentUoWFactory struct{ uow *fakeUoW }

func (f assignmentUoWFactory) Create() commands.AssignmentUoW { return f.uow }

type notificationUoWFactory struct{ uow *fakeUoW }

func (f notificationUoWFactory) Create() commands.NotificationUoW { return f.uow }

type supervisorUoWFactory struct{ uow *fakeUoW }

func (f supervisorUoWFactory) Create() commands.SupervisorUoW { return f.uow }

// recordingPublisher captures envelopes so tests can assert on exactly-once
// emission.
type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	topic    events.Topic
	key      string
	envelope events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic events.Topic, key string, envelope events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{topic: topic, key: key, envelope: envelope})
	return nil
}

// newTestOrder builds a freshly placed order with one 2 x 8.00 item.
func newTestOrder(t *testing.T) *order.Order {
	t.Helper()

	item, err := order.NewItem(kernel.NewUUID(), "Pad Thai", 2, kernel.MustNewMoney(800, "USD"))
	require.NoError(t, err)

	charges, err := order.NewCharges(
		kernel.MustNewMoney(1600, "USD"),
		kernel.MustNewMoney(160, "USD"),
		kernel.MustNewMoney(300, "USD"),
		kernel.MustNewMoney(0, "USD"),
		kernel.MustNewMoney(0, "USD"),
	)
	require.NoError(t, err)

	aggregate, err := order.NewOrder(kernel.NewUUID(), order.NewOrderNumber(),
		kernel.NewUUID(), kernel.NewUUID(), []order.Item{item}, charges, time.Now())
	require.NoError(t, err)

	return aggregate
}

// advanceOrder walks the order through the given statuses with fresh events.
func advanceOrder(t *testing.T, aggregate *order.Order, statuses ...order.Status) {
	t.Helper()

	for _, next := range statuses {
		ev, err := order.NewTransitionEvent(kernel.NewUUID(), aggregate.Status(), next, "test transition")
		require.NoError(t, err)
		_, err = aggregate.Apply(ev, time.Now())
		require.NoError(t, err)
	}
}

func (p *recordingPublisher) ofType(eventType events.Type) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, ev := range p.published {
		if ev.envelope.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
