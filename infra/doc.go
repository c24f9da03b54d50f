// Package infra holds the adapters between the simulation core and the
// outside world: the zerolog logger, the Prometheus and InfluxDB sinks, the
// Paho MQTT client and the Sentry monitor. They depend on interfaces from the
// core packages, never the other way round.
package infra
