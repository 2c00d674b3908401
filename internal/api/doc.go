// Package api implements the HTTP surface of the service: job submission
// and polling, QR rendering, the quiz endpoints and the health check.
// Handlers validate input, translate errors into sanitized responses and
// delegate all real work to the registry, the pipeline and the quiz
// packages.
package api
