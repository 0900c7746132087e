package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutEvent arrives from the storefront once checkout completes.
type CheckoutEvent struct {
	Event                 string          `json:"event"` // expected: "checkout.completed"
	CheckoutID            string          `json:"checkout_id,omitempty"`
	CustomerID            string          `json:"customer_id" validate:"required,uuid"`
	FarmID                string          `json:"farm_id" validate:"required,uuid"`
	Items                 []CheckoutItem  `json:"items" validate:"required,min=1,dive"`
	DeliveryFee           int64           `json:"delivery_fee" validate:"gte=0"`
	DeliveryAddress       DeliveryAddress `json:"delivery_address"`
	DeliveryNotes         string          `json:"delivery_notes,omitempty"`
	RequestedDeliveryDate *time.Time      `json:"requested_delivery_date,omitempty"`
	Timestamp             time.Time       `json:"timestamp"`
}

// CheckoutItem carries the product snapshot at time of purchase.
type CheckoutItem struct {
	ProductID   string `json:"product_id,omitempty" validate:"omitempty,uuid"`
	ProductName string `json:"product_name" validate:"required"`
	UnitPrice   int64  `json:"unit_price" validate:"gte=0"`
	Unit        string `json:"unit,omitempty"`
	WeightGrams *int   `json:"weight_grams,omitempty" validate:"omitempty,gt=0"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
}

// DeliveryUpdate is sent by the delivery side to move an order as the system actor.
type DeliveryUpdate struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
}

// OrderStatusChangedEvent is published to SNS / Kafka after a transition commits.
type OrderStatusChangedEvent struct {
	EventType      string       `json:"event_type"`
	OrderID        uuid.UUID    `json:"order_id"`
	OrderNumber    string       `json:"order_number"`
	FarmID         uuid.UUID    `json:"farm_id"`
	CustomerID     uuid.UUID    `json:"customer_id"`
	PreviousStatus *OrderStatus `json:"previous_status"`
	Status         OrderStatus  `json:"status"`
	ActorRole      Role         `json:"actor_role"`
	ActorUserID    *uuid.UUID   `json:"actor_user_id,omitempty"`
	Note           string       `json:"note,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	FarmID *uuid.UUID
	Status OrderStatus
	Page   int
	Limit  int
}
