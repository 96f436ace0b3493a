// Package metrics provides Prometheus metrics for polystore operations.
//
// *Metrics implements observability.Observer. Handed to a client with
// client.WithObserver, it is told about every instrumented collection
// operation with its component (the store scheme), operation name, outcome,
// duration and row count, and records them as:
//
//	store_operations_total{component,operation,status}        counter
//	store_operation_duration_seconds{component,operation}     histogram
//	store_rows_total{component,operation}                     counter
//
// status is "success" or "error". Rows count objects inserted, rows
// returned by queries and searches, and records deleted.
//
// All metrics carry a constant "service" label and live in a registry owned
// by the Metrics instance, exposed at /metrics by Server. Several instances
// in one process therefore never collide.
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		Namespace:               "polystore",
//		ServiceName:             "people-api",
//	})
//	go m.Server.ListenAndServe()
//	defer m.Server.Shutdown(ctx)
//
//	c := client.New(client.WithObserver(m))
//
// With the namespace above the counters are exported as
// polystore_store_operations_total and so on.
//
// # FX Module Integration
//
// FXModule provides *Metrics and observability.Observer and manages the
// server lifecycle; it requires a metrics.Config and a *logger.Logger:
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule,
//		client.FXModule,
//		fx.Provide(func() metrics.Config {
//			return metrics.Config{Address: ":9090", ServiceName: "polystore"}
//		}),
//	)
//
// # Configuration
//
//	METRICS_ADDRESS=:9090                      # listen address of /metrics
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true     # Go runtime, process and build info
//	METRICS_NAMESPACE=polystore                # prefix of every metric name
//	METRICS_SERVICE_NAME=people-api            # value of the service label
//
// # Custom Metrics
//
// Applications register further collectors on the exposed Registry:
//
//	imports := prometheus.NewCounter(prometheus.CounterOpts{
//		Name: "people_imports_total",
//		Help: "People import runs.",
//	})
//	m.Registry.MustRegister(imports)
//
// Collectors registered this way do not get the service label.
//
// # Thread Safety
//
// ObserveOperation is safe for concurrent use.
package metrics
