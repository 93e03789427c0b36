// Package metrics holds the prometheus collectors for ledger and billing activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billing"

// Recorder groups the engine's collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	journalsPosted   *prometheus.CounterVec
	postingFailures  *prometheus.CounterVec
	idempotentHits   *prometheus.CounterVec
	allocatedAmount  prometheus.Counter
	unallocated      prometheus.Counter
	overdueMarked    prometheus.Counter
	priceResolutions *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		journalsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journals_posted_total",
			Help:      "Journals posted, by reference type.",
		}, []string{"reference_type"}),
		postingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posting_failures_total",
			Help:      "Rejected postings, by reference type and error kind.",
		}, []string{"reference_type", "kind"}),
		idempotentHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posting_idempotent_hits_total",
			Help:      "Postings that returned an existing journal instead of creating one.",
		}, []string{"reference_type"}),
		allocatedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocated_amount_total",
			Help:      "Payment amount allocated to installments.",
		}),
		unallocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unallocated_amount_total",
			Help:      "Payment amount left unallocated after running the allocator.",
		}),
		overdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_marked_overdue_total",
			Help:      "Installments moved from pending to overdue.",
		}),
		priceResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_resolutions_total",
			Help:      "Price resolutions, by matched tier (none when nothing matched).",
		}, []string{"tier"}),
	}
	reg.MustRegister(
		r.journalsPosted,
		r.postingFailures,
		r.idempotentHits,
		r.allocatedAmount,
		r.unallocated,
		r.overdueMarked,
		r.priceResolutions,
	)
	return r
}

func (r *Recorder) JournalPosted(refType string) {
	if r == nil {
		return
	}
	r.journalsPosted.WithLabelValues(refType).Inc()
}

func (r *Recorder) PostingFailed(refType, kind string) {
	if r == nil {
		return
	}
	r.postingFailures.WithLabelValues(refType, kind).Inc()
}

func (r *Recorder) IdempotentHit(refType string) {
	if r == nil {
		return
	}
	r.idempotentHits.WithLabelValues(refType).Inc()
}

// Allocated records one allocator run. Amounts are in currency units.
func (r *Recorder) Allocated(allocated, unallocated float64) {
	if r == nil {
		return
	}
	r.allocatedAmount.Add(allocated)
	r.unallocated.Add(unallocated)
}

func (r *Recorder) OverdueMarked(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.overdueMarked.Add(float64(n))
}

func (r *Recorder) PriceResolved(tier string) {
	if r == nil {
		return
	}
	r.priceResolutions.WithLabelValues(tier).Inc()
}
