package overkiz

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	commandsTotal      *prometheus.CounterVec
	commandErrorsTotal *prometheus.CounterVec
	eventsTotal        prometheus.Counter
	eventErrorsTotal   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "overkiz",
			Name:      "commands_total",
			Help:      "Commands submitted to the gateway",
		}, []string{"command"}),
		commandErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "overkiz",
			Name:      "command_errors_total",
			Help:      "Commands that failed to submit",
		}, []string{"command"}),
		eventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overkiz",
			Name:      "device_events_total",
			Help:      "Device state change events received",
		}),
		eventErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overkiz",
			Name:      "event_errors_total",
			Help:      "Event payloads that could not be decoded",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.commandsTotal, m.commandErrorsTotal, m.eventsTotal, m.eventErrorsTotal)
	}

	return m
}
