package contract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type contractMetrics struct {
	proposalsCreated  prometheus.Counter
	ballotsCast       prometheus.Counter
	ballotsRejected   prometheus.Counter
	statusTransitions *prometheus.CounterVec
	executions        *prometheus.CounterVec
	callFailures      *prometheus.CounterVec
}

func (c *Contract) initMetrics() {
	promautoFactory := promauto.With(c.promRegistry)
	c.metrics = &contractMetrics{}
	c.metrics.proposalsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_proposals_created_total",
		Help: "number of proposals created",
	})
	c.metrics.ballotsCast = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_ballots_cast_total",
		Help: "number of ballots added to a tally",
	})
	c.metrics.ballotsRejected = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "condorcet_ballots_rejected_total",
		Help: "number of ballots refused before reaching a tally",
	})
	c.metrics.statusTransitions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condorcet_proposal_status_transitions_total",
			Help: "proposal status changes by new status",
		},
		[]string{"status"},
	)
	c.metrics.executions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condorcet_proposal_executions_total",
			Help: "proposal executions by result",
		},
		[]string{"result"},
	)
	c.metrics.callFailures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condorcet_call_failures_total",
			Help: "reverted contract calls by operation",
		},
		[]string{"op"},
	)
}
