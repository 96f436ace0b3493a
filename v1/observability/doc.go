// Package observability defines the hook through which storage components
// report the operations they perform.
//
// Components accept an optional Observer and call ObserveOperation after
// every operation. The metrics package provides a Prometheus-backed
// implementation; tests typically record the reported contexts.
package observability
