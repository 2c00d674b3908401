// Package generation provides the interface for interacting with the
// external generative-media provider. It abstracts the details of the
// provider's prediction API, allowing the pipeline to stylize photos and
// synthesize videos without coupling to a specific external service.
package generation
