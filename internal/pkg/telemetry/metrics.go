package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricPriceFreshness = "pricing.price_age_seconds"
	MetricCacheAge       = "search.cache_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricSearches      = "business.searches_performed"
	MetricQuizCompleted = "business.quizzes_completed"
)
