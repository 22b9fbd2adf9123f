package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

// QuizHandler serves quiz definitions to the front end.
type QuizHandler struct {
	quizzes quiz.Provider
	logger  logging.Logger
}

func NewQuizHandler(quizzes quiz.Provider, logger logging.Logger) *QuizHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &QuizHandler{quizzes: quizzes, logger: logger}
}

// QuizResponse adds the attainable total to the definition.
type QuizResponse struct {
	*maturity.Quiz
	MaxScore int `json:"maxScore"`
}

// Get handles GET /api/v1/quizzes/{type}.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := maturity.ParseEvaluationType(chi.URLParam(r, "type"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	qz, err := h.quizzes.Get(t)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, QuizResponse{Quiz: qz, MaxScore: qz.MaxScore()})
}
