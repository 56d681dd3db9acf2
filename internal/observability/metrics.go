package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_transactions_created_total",
		Help: "Total number of escrow transactions created",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_status_transitions_total",
		Help: "Total number of status transitions by target status",
	}, []string{"to"})

	SweepCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_sweep_cancelled_total",
		Help: "Total number of expired transactions cancelled by the sweeper",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_notifications_published_total",
		Help: "Total number of domain events published by kind",
	}, []string{"kind"})

	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_notifications_suppressed_total",
		Help: "Total number of notification deliveries suppressed by cooldown",
	}, []string{"kind"})
)
