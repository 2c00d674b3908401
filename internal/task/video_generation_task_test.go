package task

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/media"
	"github.com/anthemlabs/anthem-api/internal/store"
)

// mockGenerator scripts the two provider calls.
type mockGenerator struct {
	editImageFn       func(ctx context.Context, imagePath string, category domain.Category) (string, error)
	synthesizeVideoFn func(ctx context.Context, imageURL string, category domain.Category) (string, error)
}

func (m *mockGenerator) EditImage(
	ctx context.Context,
	imagePath string,
	category domain.Category,
) (string, error) {
	return m.editImageFn(ctx, imagePath, category)
}

func (m *mockGenerator) SynthesizeVideo(
	ctx context.Context,
	imageURL string,
	category domain.Category,
) (string, error) {
	return m.synthesizeVideoFn(ctx, imageURL, category)
}

// mockMediaStore records saves in memory.
type mockMediaStore struct {
	mu       sync.Mutex
	saved    map[string]string // key -> content
	audited  []string
	saveErr  error
	auditErr error
}

func newMockMediaStore() *mockMediaStore {
	return &mockMediaStore{saved: make(map[string]string)}
}

func (m *mockMediaStore) Name() string { return "mock" }

func (m *mockMediaStore) Save(ctx context.Context, r io.Reader, key, contentType string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[key] = string(data)
	return "https://media.test/" + key, nil
}

func (m *mockMediaStore) SaveUploadAudit(ctx context.Context, localPath, key, contentType string) error {
	if m.auditErr != nil {
		return m.auditErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audited = append(m.audited, key)
	return nil
}

func (m *mockMediaStore) Ping(ctx context.Context) error { return nil }

type taskFixture struct {
	jobs       *store.MemoryJobStore
	jobID      uuid.UUID
	uploadPath string
	mediaStore *mockMediaStore
	provider   *httptest.Server
}

// newTaskFixture registers a job, writes a temp upload and starts a fake
// provider CDN that serves the edited image and generated video.
func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	jobs := store.NewMemoryJobStore()
	jobID := uuid.New()
	job, err := domain.NewJob(jobID, domain.CategoryBoy, "")
	require.NoError(t, err)
	require.NoError(t, jobs.Create(job))

	uploadPath := filepath.Join(t.TempDir(), jobID.String()+".jpeg")
	require.NoError(t, os.WriteFile(uploadPath, []byte("original-photo"), 0o644))

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/edited.jpeg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("edited-image-bytes"))
		case "/result.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("video-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(provider.Close)

	return &taskFixture{
		jobs:       jobs,
		jobID:      jobID,
		uploadPath: uploadPath,
		mediaStore: newMockMediaStore(),
		provider:   provider,
	}
}

func (f *taskFixture) newTask(t *testing.T, gen *mockGenerator) *VideoGenerationTask {
	t.Helper()
	task, err := NewVideoGenerationTask(
		f.jobID,
		f.uploadPath,
		domain.CategoryBoy,
		f.jobs,
		gen,
		f.mediaStore,
		media.NewFetcher(),
		FetchTimeouts{Image: time.Second, Video: time.Second},
		discardLogger(),
	)
	require.NoError(t, err)
	return task
}

func (f *taskFixture) successGenerator() *mockGenerator {
	return &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			return f.provider.URL + "/edited.jpeg", nil
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			return f.provider.URL + "/result.mp4", nil
		},
	}
}

func TestExecuteSuccessPath(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, f.successGenerator())

	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, task.Status())

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, "https://media.test/"+media.VideoKey(f.jobID.String()), job.VideoURL)
	assert.Equal(t, "https://media.test/"+media.ImageKey(f.jobID.String()), job.ImageURL)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.CompletedAt)

	assert.Equal(t, "edited-image-bytes", f.mediaStore.saved[media.ImageKey(f.jobID.String())])
	assert.Equal(t, "video-bytes", f.mediaStore.saved[media.VideoKey(f.jobID.String())])
	assert.Contains(t, f.mediaStore.audited, media.UploadKey(f.jobID.String(), ".jpeg"))

	_, err = os.Stat(f.uploadPath)
	assert.True(t, os.IsNotExist(err), "temp upload must be removed")
}

func TestExecuteImageGenerationFails(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			return "", errors.New("provider rejected input")
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			t.Fatal("video generation must not run after image failure")
			return "", nil
		},
	})

	require.Error(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusFailed, task.Status())

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "image generation failed")
	assert.Contains(t, job.Error, "provider rejected input")
	require.NotNil(t, job.FailedAt)

	_, err = os.Stat(f.uploadPath)
	assert.True(t, os.IsNotExist(err), "temp upload must be removed on failure too")
}

func TestExecuteEmptyImageResult(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			return "", nil
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			return "", nil
		},
	})

	require.Error(t, task.Execute(context.Background()))

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
}

func TestExecuteVideoGenerationFails(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			return f.provider.URL + "/edited.jpeg", nil
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			assert.Equal(t, f.provider.URL+"/edited.jpeg", imageURL)
			return "", errors.New("synthesis timeout")
		},
	})

	require.Error(t, task.Execute(context.Background()))

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "video generation failed")
}

func TestExecuteFetchFailureFailsJob(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			return f.provider.URL + "/missing.jpeg", nil
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			return f.provider.URL + "/result.mp4", nil
		},
	})

	require.Error(t, task.Execute(context.Background()))

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "media persistence failed")
}

func TestExecuteStoreFailureFailsJob(t *testing.T) {
	f := newTaskFixture(t)
	f.mediaStore.saveErr = errors.New("disk full")
	task := f.newTask(t, f.successGenerator())

	require.Error(t, task.Execute(context.Background()))

	job, err := f.jobs.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "disk full")
	assert.Empty(t, job.VideoURL)
	assert.Empty(t, job.ImageURL)
}

func TestExecuteRecoversPanic(t *testing.T) {
	f := newTaskFixture(t)
	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			panic("unexpected provider response shape")
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			return "", nil
		},
	})

	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline panicked")

	job, getErr := f.jobs.Get(f.jobID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "pipeline panicked")

	_, statErr := os.Stat(f.uploadPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteStatusSequence(t *testing.T) {
	f := newTaskFixture(t)

	var observed []domain.JobStatus
	record := func() {
		job, err := f.jobs.Get(f.jobID)
		require.NoError(t, err)
		observed = append(observed, job.Status)
	}

	task := f.newTask(t, &mockGenerator{
		editImageFn: func(ctx context.Context, imagePath string, category domain.Category) (string, error) {
			record() // image
			return f.provider.URL + "/edited.jpeg", nil
		},
		synthesizeVideoFn: func(ctx context.Context, imageURL string, category domain.Category) (string, error) {
			record() // video
			return f.provider.URL + "/result.mp4", nil
		},
	})

	require.NoError(t, task.Execute(context.Background()))
	record() // completed

	assert.Equal(t, []domain.JobStatus{
		domain.JobStatusImage,
		domain.JobStatusVideo,
		domain.JobStatusCompleted,
	}, observed)
}

func TestNewVideoGenerationTaskValidation(t *testing.T) {
	f := newTaskFixture(t)
	gen := f.successGenerator()
	fetcher := media.NewFetcher()
	log := discardLogger()
	timeouts := FetchTimeouts{}

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"nil job store", func() error {
			_, err := NewVideoGenerationTask(f.jobID, f.uploadPath, domain.CategoryBoy,
				nil, gen, f.mediaStore, fetcher, timeouts, log)
			return err
		}, ErrNilJobStore},
		{"nil generator", func() error {
			_, err := NewVideoGenerationTask(f.jobID, f.uploadPath, domain.CategoryBoy,
				f.jobs, nil, f.mediaStore, fetcher, timeouts, log)
			return err
		}, ErrNilGenerator},
		{"nil media store", func() error {
			_, err := NewVideoGenerationTask(f.jobID, f.uploadPath, domain.CategoryBoy,
				f.jobs, gen, nil, fetcher, timeouts, log)
			return err
		}, ErrNilMediaStore},
		{"nil fetcher", func() error {
			_, err := NewVideoGenerationTask(f.jobID, f.uploadPath, domain.CategoryBoy,
				f.jobs, gen, f.mediaStore, nil, timeouts, log)
			return err
		}, ErrNilFetcher},
		{"nil logger", func() error {
			_, err := NewVideoGenerationTask(f.jobID, f.uploadPath, domain.CategoryBoy,
				f.jobs, gen, f.mediaStore, fetcher, timeouts, nil)
			return err
		}, ErrNilLogger},
		{"empty job id", func() error {
			_, err := NewVideoGenerationTask(uuid.Nil, f.uploadPath, domain.CategoryBoy,
				f.jobs, gen, f.mediaStore, fetcher, timeouts, log)
			return err
		}, ErrEmptyJobID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.fn(), tc.want)
		})
	}
}
