package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		nasCommandsTotal,
		nasReconnectsTotal,
		provisionAttemptsTotal,
	)
}

var (
	nasCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nas_commands_total",
			Help: "Commands issued against the access controller, by command path and outcome.",
		},
		[]string{"command", "outcome"},
	)

	nasReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nas_reconnects_total",
			Help: "Times the controller session was invalidated and redialed.",
		},
	)

	provisionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provision_attempts_total",
			Help: "Subscriber provisioning attempts by outcome (ok/error).",
		},
		[]string{"outcome"},
	)
)

func IncNASCommand(command, outcome string) {
	nasCommandsTotal.WithLabelValues(command, outcome).Inc()
}

func IncNASReconnect() { nasReconnectsTotal.Inc() }

func IncProvisionAttempt(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	provisionAttemptsTotal.WithLabelValues(outcome).Inc()
}
