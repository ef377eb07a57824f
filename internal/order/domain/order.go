package domain

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// allowedTransitions defines the order lifecycle. An order moves
// pending -> confirmed -> shipped, or pending -> cancelled; shipped and
// cancelled are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {},
	OrderStatusCancelled: {},
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Order is a purchase of a quantity of a single product by a user.
// TotalPrice is in cents, price at order time times quantity.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	ProductID  string      `json:"product_id"`
	Quantity   int         `json:"quantity"`
	TotalPrice int64       `json:"total_price"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CanTransitionTo reports whether the order may move to target from its
// current status.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range allowedTransitions[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsDeletable reports whether the order may be deleted. Confirmed and
// shipped orders are kept for record keeping.
func (o *Order) IsDeletable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCancelled
}
