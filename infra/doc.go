// Package infra groups the adapters around the charging core: the zerolog
// logger, the Prometheus and InfluxDB sinks, the MQTT remote pool and the
// command log stores. Adapters implement interfaces declared under core and
// are wired together by the app package.
package infra
