package commands

import (
	"errors"

	"coordinator/internal/pkg/guard"
)

var ErrReconcileStalledOrdersCommandIsNotConstructed = errors.New(
	"ReconcileStalledOrdersCommand must be created via NewReconcileStalledOrdersCommand constructor",
)

// ReconcileStalledOrdersCommand triggers one supervisor sweep over orders
// stuck past their per-status deadlines.
type ReconcileStalledOrdersCommand struct {
	guard guard.ConstructorGuard
}

// NewReconcileStalledOrdersCommand creates a command to run the stall sweep.
func NewReconcileStalledOrdersCommand() ReconcileStalledOrdersCommand {
	return ReconcileStalledOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *ReconcileStalledOrdersCommand) Validate() error {
	return c.guard.Validate(ErrReconcileStalledOrdersCommandIsNotConstructed)
}
