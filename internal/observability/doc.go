// Package observability provides event logging, metrics and alerting for the
// curious brain. Goal and teaching events are persisted as JSON Lines and
// summary metrics and alerts are derived from that log on demand; live
// counters are exported through a private Prometheus registry.
package observability
