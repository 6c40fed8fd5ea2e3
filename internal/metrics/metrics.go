package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics
var (
	MessagesRelayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_messages_relayed_total",
		Help: "Total number of anonymous messages recorded and relayed",
	})

	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_reports_total",
		Help: "Total number of messages reported to admins",
	})
)

// Moderation metrics
var (
	BansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_bans_total",
		Help: "Total number of ban sanctions applied",
	})

	UnbansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_unbans_total",
		Help: "Total number of bans lifted, including lazy expiry",
	})
)

// Transport metrics
var (
	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_notify_failures_total",
		Help: "Total number of failed best-effort notification deliveries",
	})

	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_updates_total",
		Help: "Total number of transport updates dispatched",
	}, []string{"kind"})
)

// Business metrics (gauges updated periodically by the collector)
var (
	BlockedUsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anonrelay_blocked_users_total",
		Help: "Current number of users with an active ban record",
	})

	AdminsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anonrelay_admins_total",
		Help: "Current size of the admin set",
	})

	PendingReportsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anonrelay_pending_reports_total",
		Help: "Current number of reported messages awaiting a decision",
	})
)
