package smartlibrary

// DeliveryRate returns the fraction of completed requests that were
// delivered (0.0 to 1.0). Returns 0.0 when nothing completed yet.
func DeliveryRate(stats Stats) float64 {
	total := stats.Delivered + stats.OutOfStock + stats.Cancelled
	if total == 0 {
		return 0.0
	}
	return float64(stats.Delivered) / float64(total)
}

// EventDropRate returns the fraction of event deliveries that were
// dropped across all subscribers (0.0 to 1.0).
func EventDropRate(stats EventBusStats) float64 {
	total := stats.Sent + stats.Dropped
	if total == 0 {
		return 0.0
	}
	return float64(stats.Dropped) / float64(total)
}

// SubscriberDropRate returns the drop rate for a specific subscriber.
// Returns 0.0 if the subscriber is unknown or has seen no traffic.
func SubscriberDropRate(stats EventBusStats, subscriberID string) float64 {
	sub, exists := stats.Subscribers[subscriberID]
	if !exists {
		return 0.0
	}
	total := sub.Sent + sub.Dropped
	if total == 0 {
		return 0.0
	}
	return float64(sub.Dropped) / float64(total)
}
