package metrics

import (
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "controldejavi"

// Set holds the service counters.
type Set struct {
	ProductsCreated     promclient.Counter
	ProductsDeleted     promclient.Counter
	NotificationsSent   promclient.Counter
	NotificationsFailed promclient.Counter

	registry *promclient.Registry
}

// New registers the service counters on a fresh registry, so tests can build
// independent sets without cross-registration conflicts.
func New() (*Set, error) {
	registry := promclient.NewRegistry()
	set := &Set{
		ProductsCreated: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "products_created_total",
			Help:      "Products added through the API.",
		}),
		ProductsDeleted: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "products_deleted_total",
			Help:      "Products removed through the API.",
		}),
		NotificationsSent: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Digest notifications delivered to the channel.",
		}),
		NotificationsFailed: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Digest notifications that could not be delivered.",
		}),
		registry: registry,
	}

	collectors := []promclient.Collector{
		set.ProductsCreated,
		set.ProductsDeleted,
		set.NotificationsSent,
		set.NotificationsFailed,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return set, nil
}

// Handler exposes the set's registry in Prometheus text format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
