// Package queries contains read-side operations. Query handlers go straight
// to the database and return flat response structs, bypassing the aggregate
// repositories.
package queries

import (
	"errors"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

// ErrGetActiveOrdersQueryIsNotConstructed is returned when the query
// bypassed its constructor.
var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery retrieves every order that is neither delivered nor
// cancelled. It backs the ops surface and the supervisor dashboard.
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a query for all in-flight orders.
func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// GetActiveOrdersQueryResponse is one in-flight order.
type GetActiveOrdersQueryResponse struct {
	ID            kernel.UUID
	OrderNumber   string
	Status        string
	PaymentStatus string
	DriverID      *kernel.UUID
	Total         int64
	Currency      string
	UpdatedAt     time.Time
}
