package services

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/yeremiapane/fantasteak-pos/models"
)

// Role is the screen an actor is operating.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCashier  Role = "cashier"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCashier, RoleAdmin:
		return true
	}
	return false
}

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbiddenRole     = errors.New("role may not perform this transition")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
	Role Role
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move order from %s to %s: %v", e.Role, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

type transition struct {
	from, to models.OrderStatus
}

// allowedTransitions maps every legal edge to the roles that may take it.
// PAID and CANCELLED have no outgoing edges.
var allowedTransitions = map[transition][]Role{
	{models.StatusPending, models.StatusConfirmed}:   {RoleCashier},
	{models.StatusConfirmed, models.StatusPaid}:      {RoleCashier},
	{models.StatusPending, models.StatusCancelled}:   {RoleCashier, RoleAdmin},
	{models.StatusConfirmed, models.StatusCancelled}: {RoleCashier, RoleAdmin},
}

// transitionOrder fixes the order NextStatuses reports edges in.
var transitionOrder = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusPaid,
	models.StatusCancelled,
}

// ValidateTransition checks a requested status change against the table.
func ValidateTransition(from, to models.OrderStatus, role Role) error {
	roles, ok := allowedTransitions[transition{from, to}]
	if !ok {
		return &TransitionError{From: from, To: to, Role: role, Err: ErrIllegalTransition}
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Role: role, Err: ErrForbiddenRole}
}

func CanTransition(from, to models.OrderStatus, role Role) bool {
	return ValidateTransition(from, to, role) == nil
}

// NextStatuses lists the statuses role may move an order in from to.
func NextStatuses(from models.OrderStatus, role Role) []models.OrderStatus {
	var next []models.OrderStatus
	for _, to := range transitionOrder {
		if CanTransition(from, to, role) {
			next = append(next, to)
		}
	}
	return next
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.OrderStatus) bool {
	for t := range allowedTransitions {
		if t.from == s {
			return false
		}
	}
	return true
}

// IsActive is the cashier queue filter. CANCELLED orders stay in the queue.
func IsActive(s models.OrderStatus) bool {
	return s != models.StatusPaid
}
