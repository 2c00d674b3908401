package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anthemlabs/anthem-api/internal/api/shared"
	"github.com/anthemlabs/anthem-api/internal/media"
	"github.com/anthemlabs/anthem-api/internal/store"
)

// HealthResponse is the liveness report. The S3 fields appear only when
// the S3 backend is active.
type HealthResponse struct {
	OK         bool   `json:"ok"`
	Time       int64  `json:"time"`
	Storage    string `json:"storage"`
	JobsActive int    `json:"jobs_active"`
	S3Status   string `json:"s3_status,omitempty"`
	S3Bucket   string `json:"s3_bucket,omitempty"`
	S3Region   string `json:"s3_region,omitempty"`
	CDN        string `json:"cdn,omitempty"`
}

// HealthHandler reports service health for load balancers and operators.
type HealthHandler struct {
	jobs  store.JobStore
	media media.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(jobs store.JobStore, mediaStore media.Store) *HealthHandler {
	return &HealthHandler{jobs: jobs, media: mediaStore}
}

// Health handles GET /healthz requests. A storage probe failure is
// reported inside the body rather than as a non-200 status; the process
// itself is still alive and serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:         true,
		Time:       time.Now().Unix(),
		Storage:    h.media.Name(),
		JobsActive: h.jobs.ActiveCount(),
	}

	if s3Store, ok := h.media.(*media.S3Store); ok {
		if err := s3Store.Ping(r.Context()); err != nil {
			resp.S3Status = fmt.Sprintf("error: %v", err)
		} else {
			resp.S3Status = "connected"
			resp.S3Bucket = s3Store.Bucket()
			resp.S3Region = s3Store.Region()
			resp.CDN = s3Store.CDN()
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
