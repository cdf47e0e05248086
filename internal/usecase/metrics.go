package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"events-service/internal/domain"
)

var (
	registrationsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_registrations_admitted_total",
			Help: "Registrations created, by kind and initial status",
		},
		[]string{"kind", "status"},
	)

	operationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_operation_rejections_total",
			Help: "Engine operations refused, by operation and error kind",
		},
		[]string{"operation", "kind"},
	)

	publishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_failures_total",
			Help: "Registration events that could not be delivered",
		},
	)
)

// rejected records err when it is an engine error and returns it unchanged.
func rejected(operation string, err error) error {
	if kind := domain.KindOf(err); kind != "" {
		operationRejections.WithLabelValues(operation, string(kind)).Inc()
	}
	return err
}
