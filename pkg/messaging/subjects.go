package messaging

const (
	OrdersPlacedSubject   = "storefront.orders.placed"
	OrdersReplayedSubject = "storefront.orders.replayed"
	OrdersSubjectWildcard = "storefront.orders.>"
)
