package enums

// UserRole mirrors the backend user_type column.
type UserRole int

const (
	RoleCustomer UserRole = 0
	RoleMerchant UserRole = 1
	RoleAdmin    UserRole = 2
)

func (r UserRole) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleMerchant:
		return "merchant"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r UserRole) Valid() bool {
	return r >= RoleCustomer && r <= RoleAdmin
}

// OrderStatus mirrors the backend order status column.
type OrderStatus int

const (
	OrderPendingPayment OrderStatus = 0
	OrderPaid           OrderStatus = 1
	OrderShipped        OrderStatus = 2
	OrderCompleted      OrderStatus = 3
	OrderCancelled      OrderStatus = 4
	OrderRefunding      OrderStatus = 5
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPendingPayment: "pending payment",
	OrderPaid:           "paid",
	OrderShipped:        "shipped",
	OrderCompleted:      "completed",
	OrderCancelled:      "cancelled",
	OrderRefunding:      "refunding",
}

// Label returns the display text for the status.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return "unknown"
}
