package observability

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbb_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_bookings_created_total",
			Help: "Total bookings successfully created",
		},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_booking_conflicts_total",
			Help: "Total booking attempts rejected because the slot was held",
		},
	)

	BookingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_bookings_expired_total",
			Help: "Total pending bookings auto-cancelled by the expiry sweep",
		},
	)

	HallListCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_hall_list_cache_invalidations_total",
			Help: "Total explicit invalidations of the hall list cache",
		},
	)
)

// MetricsMiddleware counts every request by route template, status code and method.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status()), c.Request.Method).Inc()
	}
}
