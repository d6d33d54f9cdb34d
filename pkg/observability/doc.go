/*
Package observability turns navigation lifecycle events into Prometheus metrics and
structured log lines.

Both are exposed as domain.LifecycleHooks, so they compose with each other and with
host hooks through domain.ChainHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ChainHooks(metrics.Hooks(), observability.LoggingHooks(logger))
*/
package observability
