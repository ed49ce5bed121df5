package http

import (
	"errors"
	"net/http"
	"time"

	"coordinator/internal/core/application/usecases/commands"
	"coordinator/internal/core/application/usecases/queries"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server exposes the coordinator's HTTP surface: order placement and
// cancellation, the ops view of active orders, the user notification feed
// and the payment provider webhook.
type Server struct {
	placeOrderHandler       commands.PlaceOrderCommandHandler
	cancelOrderHandler      commands.CancelOrderCommandHandler
	providerCallbackHandler commands.HandleProviderCallbackCommandHandler
	markReadHandler         commands.MarkNotificationReadCommandHandler
	markAllReadHandler      commands.MarkAllNotificationsReadCommandHandler

	getActiveOrdersHandler  queries.GetActiveOrdersQueryHandler
	getNotificationsHandler queries.GetNotificationsQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	placeOrderHandler commands.PlaceOrderCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	providerCallbackHandler commands.HandleProviderCallbackCommandHandler,
	markReadHandler commands.MarkNotificationReadCommandHandler,
	markAllReadHandler commands.MarkAllNotificationsReadCommandHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	getNotificationsHandler queries.GetNotificationsQueryHandler,
) *Server {
	return &Server{
		placeOrderHandler:       placeOrderHandler,
		cancelOrderHandler:      cancelOrderHandler,
		providerCallbackHandler: providerCallbackHandler,
		markReadHandler:         markReadHandler,
		markAllReadHandler:      markAllReadHandler,
		getActiveOrdersHandler:  getActiveOrdersHandler,
		getNotificationsHandler: getNotificationsHandler,
	}
}

// RegisterRoutes wires the server's endpoints onto the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.POST("/orders", s.PlaceOrder)
	api.POST("/orders/:orderID/cancel", s.CancelOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.GET("/notifications/:recipientID", s.GetNotifications)
	api.POST("/notifications/:notificationID/read", s.MarkNotificationRead)
	api.POST("/notifications/read-all", s.MarkAllNotificationsRead)
	api.POST("/payments/callback", s.ProviderCallback)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// NewOrderItem is one line in an order placement request.
type NewOrderItem struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// NewOrder is the request body for POST /api/v1/orders.
type NewOrder struct {
	CustomerID   string         `json:"customer_id"`
	RestaurantID string         `json:"restaurant_id"`
	Currency     string         `json:"currency"`
	Items        []NewOrderItem `json:"items"`
	Tax          int64          `json:"tax"`
	DeliveryFee  int64          `json:"delivery_fee"`
	Tip          int64          `json:"tip"`
	Discount     int64          `json:"discount"`
}

// PlaceOrder handles POST /api/v1/orders - places a new order.
func (s *Server) PlaceOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	customerID, err := kernel.UUIDFromString(body.CustomerID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid customer_id: "+err.Error())
	}
	restaurantID, err := kernel.UUIDFromString(body.RestaurantID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid restaurant_id: "+err.Error())
	}

	items := make([]commands.ItemInput, 0, len(body.Items))
	for _, line := range body.Items {
		itemID, idErr := kernel.UUIDFromString(line.ItemID)
		if idErr != nil {
			return errorJSON(ctx, http.StatusBadRequest, "Invalid item_id: "+idErr.Error())
		}
		unitPrice, priceErr := kernel.NewMoney(line.UnitPrice, body.Currency)
		if priceErr != nil {
			return errorJSON(ctx, http.StatusBadRequest, "Invalid unit_price: "+priceErr.Error())
		}
		items = append(items, commands.ItemInput{
			ItemID:    itemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	tax, err := kernel.NewMoney(body.Tax, body.Currency)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid tax: "+err.Error())
	}
	deliveryFee, err := kernel.NewMoney(body.DeliveryFee, body.Currency)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid delivery_fee: "+err.Error())
	}
	tip, err := kernel.NewMoney(body.Tip, body.Currency)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid tip: "+err.Error())
	}
	discount, err := kernel.NewMoney(body.Discount, body.Currency)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid discount: "+err.Error())
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewPlaceOrderCommand(
		orderID, customerID, restaurantID, items, tax, deliveryFee, tip, discount)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error())
	}

	if handleErr := s.placeOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return commandError(ctx, handleErr, "Failed to place order")
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"order_id": orderID.String()})
}

// CancelRequest is the request body for POST /api/v1/orders/:orderID/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder handles POST /api/v1/orders/:orderID/cancel.
// Cancellation past out_for_delivery is rejected with 409; only the
// supervisor can force it with a compensation token.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id: "+err.Error())
	}

	var body CancelRequest
	if err = ctx.Bind(&body); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, kernel.NewUUID(), body.Reason)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid cancel request: "+err.Error())
	}

	if handleErr := s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return commandError(ctx, handleErr, "Failed to cancel order")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// ActiveOrder is one row in the active orders listing.
type ActiveOrder struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	DriverID      *string   `json:"driver_id,omitempty"`
	Total         int64     `json:"total"`
	Currency      string    `json:"currency"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetActiveOrdersQuery()

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve orders")
	}

	response := make([]ActiveOrder, len(orders))
	for i, row := range orders {
		response[i] = ActiveOrder{
			ID:            row.ID.String(),
			OrderNumber:   row.OrderNumber,
			Status:        row.Status,
			PaymentStatus: row.PaymentStatus,
			Total:         row.Total,
			Currency:      row.Currency,
			UpdatedAt:     row.UpdatedAt,
		}
		if row.DriverID != nil {
			driverID := row.DriverID.String()
			response[i].DriverID = &driverID
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// NotificationView is one row in the notification feed.
type NotificationView struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// GetNotifications handles GET /api/v1/notifications/:recipientID.
// Pass ?unread=true to filter out read notifications.
func (s *Server) GetNotifications(ctx echo.Context) error {
	recipientID, err := kernel.UUIDFromString(ctx.Param("recipientID"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid recipient id: "+err.Error())
	}

	unreadOnly := ctx.QueryParam("unread") == "true"

	query, err := queries.NewGetNotificationsQuery(recipientID, unreadOnly)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid query: "+err.Error())
	}

	notifications, err := s.getNotificationsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve notifications")
	}

	response := make([]NotificationView, len(notifications))
	for i, row := range notifications {
		response[i] = NotificationView{
			ID:        row.ID.String(),
			Channel:   row.Channel,
			Title:     row.Title,
			Body:      row.Body,
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// MarkReadRequest identifies the recipient acting on their feed.
type MarkReadRequest struct {
	RecipientID string `json:"recipient_id"`
}

// MarkNotificationRead handles POST /api/v1/notifications/:notificationID/read.
func (s *Server) MarkNotificationRead(ctx echo.Context) error {
	notificationID, err := kernel.UUIDFromString(ctx.Param("notificationID"))
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid notification id: "+err.Error())
	}

	var body MarkReadRequest
	if err = ctx.Bind(&body); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}
	recipientID, err := kernel.UUIDFromString(body.RecipientID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid recipient_id: "+err.Error())
	}

	cmd, err := commands.NewMarkNotificationReadCommand(notificationID, recipientID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request: "+err.Error())
	}

	if handleErr := s.markReadHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return commandError(ctx, handleErr, "Failed to mark notification read")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all.
func (s *Server) MarkAllNotificationsRead(ctx echo.Context) error {
	var body MarkReadRequest
	if err := ctx.Bind(&body); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}
	recipientID, err := kernel.UUIDFromString(body.RecipientID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid recipient_id: "+err.Error())
	}

	cmd, err := commands.NewMarkAllNotificationsReadCommand(recipientID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request: "+err.Error())
	}

	if handleErr := s.markAllReadHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return commandError(ctx, handleErr, "Failed to mark notifications read")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ProviderWebhook is the request body for POST /api/v1/payments/callback.
// The provider retries webhooks until it gets a 2xx, deduplicated by
// callback_id.
type ProviderWebhook struct {
	CallbackID  string `json:"callback_id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref"`
	Reason      string `json:"reason"`
}

// ProviderCallback handles POST /api/v1/payments/callback.
func (s *Server) ProviderCallback(ctx echo.Context) error {
	var body ProviderWebhook
	if err := ctx.Bind(&body); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	orderID, err := kernel.UUIDFromString(body.OrderID)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order_id: "+err.Error())
	}
	status, err := payment.IntentStatusFromString(body.Status)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid status: "+err.Error())
	}

	cmd, err := commands.NewHandleProviderCallbackCommand(
		orderID, body.CallbackID, status, body.ProviderRef, body.Reason)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid callback: "+err.Error())
	}

	if handleErr := s.providerCallbackHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return commandError(ctx, handleErr, "Failed to process callback")
	}

	return ctx.NoContent(http.StatusOK)
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, ErrorResponse{Code: code, Message: message})
}

// commandError maps use case failures onto HTTP statuses: unknown
// aggregates are 404, lifecycle conflicts are 409, everything else 500.
func commandError(ctx echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return errorJSON(ctx, http.StatusNotFound, message+": "+err.Error())
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrStaleEvent),
		errors.Is(err, order.ErrCompensationTokenRequired),
		errors.Is(err, order.ErrInvalidPaymentTransition):
		return errorJSON(ctx, http.StatusConflict, message+": "+err.Error())
	case errors.Is(err, errs.ErrValueIsInvalid), errors.Is(err, errs.ErrValueIsRequired):
		return errorJSON(ctx, http.StatusBadRequest, message+": "+err.Error())
	default:
		return errorJSON(ctx, http.StatusInternalServerError, message)
	}
}
