package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anthemlabs/anthem-api/internal/api"
	apiMiddleware "github.com/anthemlabs/anthem-api/internal/api/middleware"
	"github.com/anthemlabs/anthem-api/internal/media"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	jobHandler := api.NewJobHandler(
		app.jobs,
		app,
		app.uploadDir,
		app.config.Upload.MaxSizeBytes(),
		app.logger,
	)
	quizHandler := api.NewQuizHandler(app.quizBank, app.config.Storage.DataDir, app.logger)
	healthHandler := api.NewHealthHandler(app.jobs, app.mediaStore)

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", jobHandler.SubmitJob)
		r.Get("/jobs/{jobID}", jobHandler.JobStatus)
		r.Get("/jobs/{jobID}/qr", jobHandler.JobQR)

		r.Get("/questions", quizHandler.Questions)
		r.Post("/jobs/{jobID}/answers", quizHandler.SubmitAnswers)
	})

	r.Get("/healthz", healthHandler.Health)

	// With local storage the generated media is served straight off disk.
	if local, ok := app.mediaStore.(*media.LocalStore); ok {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(local.ResultDir())))
		r.Get("/media/*", fs.ServeHTTP)
	}

	return r
}
