// Package metrics provides Prometheus metrics for rtlamr2mqtt.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decoderLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_decoder_lines_total",
			Help: "Total decoder output lines read",
		},
	)

	parseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_parse_failures_total",
			Help: "Total decoder output lines that were not valid JSON",
		},
	)

	readingsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_readings_published_total",
			Help: "Total meter readings published to the broker",
		},
	)

	publishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_publish_failures_total",
			Help: "Total broker publish attempts that failed",
		},
	)

	processesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_processes_started_total",
			Help: "Total external processes launched by the supervisor",
		},
	)

	processesKilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtlamr2mqtt_processes_killed_total",
			Help: "Total external processes that required a force kill",
		},
	)
)

func init() {
	prometheus.MustRegister(
		decoderLinesTotal,
		parseFailuresTotal,
		readingsPublishedTotal,
		publishFailuresTotal,
		processesStartedTotal,
		processesKilledTotal,
	)
}

func IncDecoderLines()      { decoderLinesTotal.Inc() }
func IncParseFailures()     { parseFailuresTotal.Inc() }
func IncReadingsPublished() { readingsPublishedTotal.Inc() }
func IncPublishFailures()   { publishFailuresTotal.Inc() }
func IncProcessesStarted()  { processesStartedTotal.Inc() }
func IncProcessesKilled()   { processesKilledTotal.Inc() }
