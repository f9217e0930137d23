package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Reservation lifecycle transitions
const (
	TransitionCreate   = "create"
	TransitionCheckIn  = "check_in"
	TransitionCheckOut = "check_out"
	TransitionCancel   = "cancel"
	TransitionNoShow   = "no_show"
	TransitionDelete   = "delete"
)

// HotelMetrics counts front-desk and billing activity. A nil *HotelMetrics
// is valid and records nothing.
type HotelMetrics struct {
	transitions       *prometheus.CounterVec
	checkoutsBlocked  prometheus.Counter
	invoicesGenerated *prometheus.CounterVec
	invoicesVoided    prometheus.Counter
	payments          *prometheus.CounterVec
	paymentAmount     prometheus.Counter
	bookingConflicts  prometheus.Counter
	lockWait          prometheus.Histogram
}

var (
	hotelOnce    sync.Once
	hotelMetrics *HotelMetrics
)

// Hotel returns the process-wide metrics registered on the default registry.
func Hotel() *HotelMetrics {
	hotelOnce.Do(func() {
		hotelMetrics = New(prometheus.DefaultRegisterer)
	})
	return hotelMetrics
}

func New(registerer prometheus.Registerer) *HotelMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &HotelMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_reservation_transitions_total",
			Help: "Reservation lifecycle transitions by kind.",
		}, []string{"transition"}),
		checkoutsBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotel_checkouts_blocked_total",
			Help: "Check-outs refused because the invoice still had a balance.",
		}),
		invoicesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_invoices_generated_total",
			Help: "Invoices generated, by path (explicit or checkout).",
		}, []string{"path"}),
		invoicesVoided: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotel_invoices_voided_total",
			Help: "Invoices voided so the folio could be corrected and re-billed.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_payments_total",
			Help: "Invoice payments by method.",
		}, []string{"method"}),
		paymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotel_payment_amount_total",
			Help: "Sum of recorded payment amounts.",
		}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hotel_booking_conflicts_total",
			Help: "Bookings rejected because the room was already held for the dates.",
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotel_reservation_lock_wait_seconds",
			Help:    "Time spent waiting for the per-reservation lock.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}),
	}
	registerer.MustRegister(
		m.transitions,
		m.checkoutsBlocked,
		m.invoicesGenerated,
		m.invoicesVoided,
		m.payments,
		m.paymentAmount,
		m.bookingConflicts,
		m.lockWait,
	)
	return m
}

func (m *HotelMetrics) Transition(kind string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
}

func (m *HotelMetrics) CheckoutBlocked() {
	if m == nil {
		return
	}
	m.checkoutsBlocked.Inc()
}

func (m *HotelMetrics) InvoiceGenerated(path string) {
	if m == nil {
		return
	}
	m.invoicesGenerated.WithLabelValues(path).Inc()
}

func (m *HotelMetrics) InvoiceVoided() {
	if m == nil {
		return
	}
	m.invoicesVoided.Inc()
}

func (m *HotelMetrics) Payment(method string, amount float64) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(method).Inc()
	m.paymentAmount.Add(amount)
}

func (m *HotelMetrics) BookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

func (m *HotelMetrics) LockWait(seconds float64) {
	if m == nil {
		return
	}
	m.lockWait.Observe(seconds)
}
