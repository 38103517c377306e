package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
)

var optimisticTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledgerconsole_optimistic_transfers_total",
	Help: "Optimistic transfers settled, labeled by outcome",
}, []string{"outcome"})
