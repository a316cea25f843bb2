package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the delegation module.
type Metrics struct {
	InvitationsIssued   prometheus.Counter
	InvitationsRedeemed prometheus.Counter
	Confirmations       prometheus.Counter

	ConfirmDuration prometheus.Histogram
}

// New creates a new Metrics instance with all delegation module metrics registered.
func New() *Metrics {
	return &Metrics{
		InvitationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "goodbye_invitations_issued_total",
			Help: "Total number of invitation tokens issued",
		}),
		InvitationsRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "goodbye_invitations_redeemed_total",
			Help: "Total number of invitation tokens redeemed",
		}),
		Confirmations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "goodbye_delegation_confirmations_total",
			Help: "Total delegation confirmations completed",
		}),
		ConfirmDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "goodbye_delegation_confirm_duration_seconds",
			Help:    "Duration of confirmation operations including both record updates",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementInvitationIssued records a successfully issued invitation.
func (m *Metrics) IncrementInvitationIssued() {
	if m != nil {
		m.InvitationsIssued.Inc()
	}
}

// IncrementInvitationRedeemed records a successfully redeemed invitation.
func (m *Metrics) IncrementInvitationRedeemed() {
	if m != nil {
		m.InvitationsRedeemed.Inc()
	}
}

// IncrementConfirmation records a completed confirmation.
func (m *Metrics) IncrementConfirmation() {
	if m != nil {
		m.Confirmations.Inc()
	}
}

// ObserveConfirm records the duration of a confirmation operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveConfirm(start time.Time) {
	if m != nil {
		m.ConfirmDuration.Observe(time.Since(start).Seconds())
	}
}
