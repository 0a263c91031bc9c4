// Package metrics holds the prometheus collectors of the voting core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zkvote"

var (
	VotesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_accepted_total",
		Help:      "Votes accepted and tallied.",
	})
	VotesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_rejected_total",
		Help:      "Votes rejected, by reason.",
	}, []string{"reason"})
	ProofVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proof_verifications_total",
		Help:      "Proof validity gate outcomes, by circuit and result.",
	}, []string{"circuit", "result"})
	ProofGenerationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proof_generation_seconds",
		Help:      "Time spent by the proving backend, by circuit.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"circuit"})
	ElectionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "election_transitions_total",
		Help:      "Election state transitions, by target state.",
	}, []string{"state"})
	AuthorityActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authority_actions_total",
		Help:      "Authorized administrative actions, by action.",
	}, []string{"action"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
