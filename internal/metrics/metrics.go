// Package metrics exposes booking and pricing counters on a private
// Prometheus registry. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Quotes            *prometheus.CounterVec // source: locked|fresh|repriced|unlocked|base
	BookingsCreated   prometheus.Counter
	SeatsReserved     prometheus.Counter
	SeatConflicts     prometheus.Counter
	Cancellations     *prometheus.CounterVec // initiator: customer|agency
	RefundedAmount    prometheus.Counter
	EventsPublished   prometheus.Counter
	EventPublishErrs  prometheus.Counter
	HTTPRequestLength *prometheus.HistogramVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_price_quotes_total",
			Help: "Price quotes served, by how the price was obtained.",
		}, []string{"source"}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_groups_created_total",
			Help: "Booking groups committed.",
		}),
		SeatsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_seats_reserved_total",
			Help: "Seats reserved through committed booking groups.",
		}),
		SeatConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_seat_conflicts_total",
			Help: "Booking attempts rejected because a seat was already held.",
		}),
		Cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "Reservations cancelled, by initiator.",
		}, []string{"initiator"}),
		RefundedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_refunded_amount_total",
			Help: "Refund credit issued, in currency units.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_events_published_total",
			Help: "Domain events published.",
		}),
		EventPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_event_publish_errors_total",
			Help: "Domain event publish failures.",
		}),
		HTTPRequestLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.Quotes, c.BookingsCreated, c.SeatsReserved, c.SeatConflicts,
		c.Cancellations, c.RefundedAmount, c.EventsPublished, c.EventPublishErrs,
		c.HTTPRequestLength,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.reg
}

func (c *Collector) QuoteServed(source string) {
	if c == nil {
		return
	}
	c.Quotes.WithLabelValues(source).Inc()
}

func (c *Collector) BookingCreated(seats int) {
	if c == nil {
		return
	}
	c.BookingsCreated.Inc()
	c.SeatsReserved.Add(float64(seats))
}

func (c *Collector) SeatConflict() {
	if c == nil {
		return
	}
	c.SeatConflicts.Inc()
}

func (c *Collector) Cancelled(agency bool, refund int64) {
	if c == nil {
		return
	}
	initiator := "customer"
	if agency {
		initiator = "agency"
	}
	c.Cancellations.WithLabelValues(initiator).Inc()
	c.RefundedAmount.Add(float64(refund))
}

func (c *Collector) EventPublished(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.EventPublishErrs.Inc()
		return
	}
	c.EventsPublished.Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestLength.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
