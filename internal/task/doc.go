// Package task implements background processing of generation pipelines.
// Each submitted job becomes one task that runs detached from the request
// lifetime on a bounded worker pool. Tasks are never cancelled by client
// disconnects and run to completion or failure.
package task
