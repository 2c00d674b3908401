// Package store defines the job registry: the single shared mutable
// structure in the service. It exposes a small interface so handlers and
// pipeline tasks depend on the contract rather than the map-and-mutex
// implementation.
package store
