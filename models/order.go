package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event types recorded on the audit trail.
const (
	EventOrderCreated  = "order_created"
	EventStatusChanged = "status_changed"
	EventNoteAdded     = "note_added"
)

// DeliveryAddress is a snapshot taken at checkout, not a live reference.
type DeliveryAddress struct {
	Line1    string `gorm:"type:varchar(255)" json:"line1"`
	Line2    string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City     string `gorm:"type:varchar(128)" json:"city"`
	Postcode string `gorm:"type:varchar(16)" json:"postcode"`
}

// Order is the persisted order aggregate root. Money is in minor units.
type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber           string          `gorm:"uniqueIndex;not null" json:"order_number"`
	FarmID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"farm_id"`
	CustomerID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Status                OrderStatus     `gorm:"type:varchar(32);not null;default:'processing';index" json:"status"`
	Subtotal              int64           `gorm:"not null" json:"subtotal"`
	DeliveryFee           int64           `gorm:"not null" json:"delivery_fee"`
	Total                 int64           `gorm:"not null" json:"total"`
	DeliveryAddress       DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	DeliveryNotes         string          `gorm:"type:text" json:"delivery_notes,omitempty"`
	RequestedDeliveryDate *time.Time      `gorm:"type:date" json:"requested_delivery_date,omitempty"`
	DeliveredAt           *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Items                 []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items,omitempty"`
	Events                []OrderEvent    `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"events,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TotalsConsistent reports whether total == subtotal + delivery_fee.
func (o *Order) TotalsConsistent() bool {
	return o.Total == o.Subtotal+o.DeliveryFee
}

// OrderItem is a catalog snapshot taken when the order was placed. It is never
// mutated after creation.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	ProductName string     `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   int64      `gorm:"not null" json:"unit_price"`
	Unit        string     `gorm:"type:varchar(32)" json:"unit,omitempty"`
	WeightGrams *int       `json:"weight_grams,omitempty"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	LineTotal   int64      `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderEvent is one append-only audit entry. Rows are never updated or deleted.
type OrderEvent struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_order_events_order_created,priority:1" json:"order_id"`
	EventType   string       `gorm:"type:varchar(32);not null" json:"event_type"`
	StatusFrom  *OrderStatus `gorm:"type:varchar(32)" json:"status_from"`
	StatusTo    OrderStatus  `gorm:"type:varchar(32);not null" json:"status_to"`
	ActorUserID *uuid.UUID   `gorm:"type:uuid" json:"actor_user_id"`
	ActorRole   Role         `gorm:"type:varchar(16);not null" json:"actor_role"`
	Note        string       `gorm:"type:text" json:"note"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index:idx_order_events_order_created,priority:2" json:"created_at"`
}

func (e *OrderEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Farm owns orders through FarmID and is owned by exactly one user.
type Farm struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"owner_user_id"`
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	Email         string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone         string     `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Status        FarmStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	DeliveryDays  string     `gorm:"type:varchar(64)" json:"delivery_days,omitempty"`
	CutoffTime    string     `gorm:"type:varchar(8)" json:"cutoff_time,omitempty"`
	DeliveryFee   int64      `json:"delivery_fee"`
	MinOrderValue int64      `json:"min_order_value"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Farm) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Profile is the per-user record carrying the stored role.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	FullName  string    `gorm:"type:varchar(255)" json:"full_name,omitempty"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Role      Role      `gorm:"type:varchar(16)" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
