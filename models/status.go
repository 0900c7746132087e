package models

import "strings"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusProcessing     OrderStatus = "processing"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusException      OrderStatus = "exception"
)

// ForwardPath is the canonical progression from placement to delivery.
var ForwardPath = []OrderStatus{
	StatusProcessing,
	StatusConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusDelivered,
}

// AllStatuses lists every defined status.
var AllStatuses = append(append([]OrderStatus{}, ForwardPath...), StatusCancelled, StatusException)

// ParseOrderStatus converts a raw literal into a defined status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.TrimSpace(raw))
	for _, known := range AllStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is legal from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Rank returns the position of s on the forward path, or -1 when s is off-path
// (cancelled, exception).
func (s OrderStatus) Rank() int {
	for i, step := range ForwardPath {
		if s == step {
			return i
		}
	}
	return -1
}

// Label renders the status for humans, e.g. "out for delivery".
func (s OrderStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func (s OrderStatus) String() string { return string(s) }

// Role is the permission role of an actor.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleFarm     Role = "farm"
	RoleAdmin    Role = "admin"
	// RoleSystem is never stored on a profile; it attributes automated jobs.
	RoleSystem Role = "system"
)

// ParseUserRole accepts only the roles a profile may carry.
func ParseUserRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleCustomer, RoleFarm, RoleAdmin:
		return r, true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// FarmStatus is the onboarding lifecycle of a farm.
type FarmStatus string

const (
	FarmStatusPending   FarmStatus = "pending"
	FarmStatusApproved  FarmStatus = "approved"
	FarmStatusSuspended FarmStatus = "suspended"
)
