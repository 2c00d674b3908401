package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anthemlabs/anthem-api/internal/api/shared"
	"github.com/anthemlabs/anthem-api/internal/quiz"
)

const defaultQuestionCount = 10

// QuestionsResponse carries the sanitized questions plus the full records
// as the grading key. The client echoes the key back with its answers, so
// grading needs no server-side session state.
type QuestionsResponse struct {
	Questions []quiz.PublicQuestion `json:"questions"`
	Key       []quiz.Question       `json:"key"`
}

// AnswersRequest is the grading submission payload.
type AnswersRequest struct {
	Key     []any `json:"key"`
	Answers []any `json:"answers"`
}

// QuizHandler handles quiz question delivery and grading.
type QuizHandler struct {
	bank    *quiz.Bank
	dataDir string
	logger  *slog.Logger
}

// NewQuizHandler creates a new QuizHandler. dataDir is where grading
// records are written.
func NewQuizHandler(bank *quiz.Bank, dataDir string, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{bank: bank, dataDir: dataDir, logger: logger}
}

// Questions handles GET /api/questions requests.
func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	count := defaultQuestionCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid count")
			return
		}
		count = parsed
	}

	selected := h.bank.Random(count, r.URL.Query().Get("seed"))

	shared.RespondWithJSON(w, r, http.StatusOK, QuestionsResponse{
		Questions: quiz.Sanitize(selected),
		Key:       selected,
	})
}

// SubmitAnswers handles POST /api/jobs/{jobID}/answers requests. Grading
// is stateless; the job id only names the persisted record and the job
// itself need not exist.
func (h *QuizHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job id")
		return
	}

	var req AnswersRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Key == nil || req.Answers == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid payload")
		return
	}

	result := quiz.Grade(req.Key, req.Answers)

	if err := quiz.SaveResult(h.dataDir, jobID.String(), result); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to save quiz result", err)
		return
	}

	h.logger.Info("quiz graded",
		"job_id", jobID,
		"score", result.Score,
		"total", result.Total)

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
