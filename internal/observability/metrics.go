package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MDelegateNotifications   MetricKey = "delegate_notifications_total"
	MDispatchDuration        MetricKey = "delegate_dispatch_duration_seconds"
	MSubscriptionsPruned     MetricKey = "subscriptions_pruned_total"
	MSubscriptionsRegistered MetricKey = "subscriptions_registered_total"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
)
