package services

import "github.com/arturocano02/FarmDirect-sub000/models"

// RejectReason explains why a transition was refused.
type RejectReason string

const (
	ReasonUnknownStatus    RejectReason = "UNKNOWN_STATUS"
	ReasonTerminalState    RejectReason = "TERMINAL_STATE"
	ReasonRoleNotPermitted RejectReason = "ROLE_NOT_PERMITTED"
	ReasonRegression       RejectReason = "REGRESSION"
	ReasonExceptionHold    RejectReason = "EXCEPTION_REQUIRES_ADMIN"
)

// Decision is the validator outcome. NoOp marks a same-status request: legal,
// but nothing to write beyond an annotation.
type Decision struct {
	Allowed bool
	NoOp    bool
	Reason  RejectReason
}

func reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

// ValidateTransition decides whether role may move an order from current to
// requested.
func ValidateTransition(current, requested models.OrderStatus, role models.Role) Decision {
	if _, ok := models.ParseOrderStatus(string(requested)); !ok {
		return reject(ReasonUnknownStatus)
	}

	switch role {
	case models.RoleFarm, models.RoleAdmin, models.RoleSystem:
	default:
		return reject(ReasonRoleNotPermitted)
	}

	if requested == current {
		return Decision{Allowed: true, NoOp: true}
	}
	if current.IsTerminal() {
		return reject(ReasonTerminalState)
	}
	if requested == models.StatusCancelled || requested == models.StatusException {
		return Decision{Allowed: true}
	}
	if current == models.StatusException {
		// exception has no place on the forward path; only an operator can
		// decide where the order resumes.
		if role == models.RoleFarm {
			return reject(ReasonExceptionHold)
		}
		return Decision{Allowed: true}
	}
	if requested.Rank() < current.Rank() {
		return reject(ReasonRegression)
	}
	return Decision{Allowed: true}
}

// AllowedTransitions lists the statuses role may move an order to from
// current, in canonical order. The current status itself is excluded.
func AllowedTransitions(current models.OrderStatus, role models.Role) []models.OrderStatus {
	next := make([]models.OrderStatus, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		if s == current {
			continue
		}
		if ValidateTransition(current, s, role).Allowed {
			next = append(next, s)
		}
	}
	return next
}
