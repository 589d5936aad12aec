package contracts

// Exchanges
const (
	ExchangeCourierTopic   = "courier_topic"
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	QueueDriverStatus      = "driver_status"
	QueueDeliveryStatus    = "delivery_status"
	QueueLocationAnalytics = "location_updates_analytics"
)

// Routing patterns
const (
	RouteDriverStatusPrefix   = "driver.status."   // {driver_id}
	RouteDeliveryStatusPrefix = "delivery.status." // {status}
)
