// Package metrics объявляет счётчики Prometheus сервиса рассылки.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "newsletter"

// Metrics набор счётчиков. Все поля безопасны для конкурентного использования.
type Metrics struct {
	Subscriptions          *prometheus.CounterVec
	Unsubscriptions        *prometheus.CounterVec
	SideEffectFailures     *prometheus.CounterVec
	RateLimited            *prometheus.CounterVec
	CacheLookups           *prometheus.CounterVec
	NotificationsPublished *prometheus.CounterVec
	EmailsSent             *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Subscribe requests by outcome (created, reactivated, existing).",
		}, []string{"outcome"}),
		Unsubscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsubscriptions_total",
			Help:      "Unsubscribe requests by outcome (unsubscribed, already).",
		}, []string{"outcome"}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Failed best-effort tasks by task name.",
		}, []string{"task"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"group", "tier"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result (hit, miss, error).",
		}, []string{"cache", "result"}),
		NotificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Notifications published to the queue.",
		}, []string{"kind", "result"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails handed to the mail provider.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		m.Subscriptions,
		m.Unsubscriptions,
		m.SideEffectFailures,
		m.RateLimited,
		m.CacheLookups,
		m.NotificationsPublished,
		m.EmailsSent,
	)
	return m
}

// NewNop создаёт счётчики без регистрации. Используется в тестах.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
