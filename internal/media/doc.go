// Package media persists generated images and videos and produces
// externally retrievable URLs for them. Two interchangeable backends exist:
// the local filesystem served from a static mount, and S3 with CDN or
// presigned URLs. The backend is chosen once at startup and never changes
// at runtime. The package also provides the HTTP fetcher used to pull
// provider-hosted results back into this service's own storage.
package media
