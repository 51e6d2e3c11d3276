package http

import (
	"log/slog"
	"net/http"

	"classquiz-service/internal/app"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Services are the use cases the API exposes.
type Services struct {
	Accounts   *app.AccountService
	Classes    *app.ClassService
	Quizzes    *app.QuizService
	Attempts   *app.AttemptService
	Dashboards *app.DashboardService
	Feed       app.Feed
}

// Server maps HTTP requests onto Services.
type Server struct {
	svc      Services
	log      *slog.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	return &Server{
		svc:      svc,
		log:      logger,
		validate: validate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed API. Paths are accepted with or without a
// trailing slash.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/accounts/register", s.public("register", s.register))
	mux.HandleFunc("POST /api/accounts/login", s.public("login", s.login))
	mux.HandleFunc("POST /api/accounts/token/refresh", s.public("refresh_token", s.refreshToken))
	mux.HandleFunc("POST /api/accounts/logout", s.protected("logout", s.logout))
	mux.HandleFunc("GET /api/accounts/user", s.protected("current_user", s.currentUser))

	mux.HandleFunc("GET /api/teacher/dashboard", s.protected("teacher_dashboard", s.teacherDashboard))
	mux.HandleFunc("GET /api/teacher/classes", s.protected("list_classes", s.listClasses))
	mux.HandleFunc("POST /api/teacher/classes", s.protected("create_class", s.createClass))
	mux.HandleFunc("GET /api/teacher/classes/{id}", s.protected("get_class", s.getClass))
	mux.HandleFunc("PUT /api/teacher/classes/{id}", s.protected("update_class", s.updateClass))
	mux.HandleFunc("DELETE /api/teacher/classes/{id}", s.protected("delete_class", s.deleteClass))

	mux.HandleFunc("GET /api/student/dashboard", s.protected("student_dashboard", s.studentDashboard))
	mux.HandleFunc("GET /api/student/enrolled-classes", s.protected("enrolled_classes", s.listClasses))
	mux.HandleFunc("POST /api/student/join-class", s.protected("join_class", s.joinByCode))
	mux.HandleFunc("POST /api/student/leave-class", s.protected("leave_class", s.leaveByBody))

	mux.HandleFunc("GET /api/classes", s.protected("list_classes", s.listClasses))
	mux.HandleFunc("POST /api/classes", s.protected("create_class", s.createClass))
	mux.HandleFunc("GET /api/classes/{id}", s.protected("get_class", s.getClass))
	mux.HandleFunc("PUT /api/classes/{id}", s.protected("update_class", s.updateClass))
	mux.HandleFunc("PATCH /api/classes/{id}", s.protected("patch_class", s.patchClass))
	mux.HandleFunc("DELETE /api/classes/{id}", s.protected("delete_class", s.deleteClass))
	mux.HandleFunc("POST /api/classes/{id}/join", s.protected("join_class", s.joinClass))
	mux.HandleFunc("POST /api/classes/{id}/remove_student", s.protected("remove_student", s.removeStudent))
	mux.HandleFunc("POST /api/classes/{id}/leave_class", s.protected("leave_class", s.leaveClass))
	mux.HandleFunc("GET /api/classes/{id}/quizzes", s.protected("class_quizzes", s.classQuizzes))

	mux.HandleFunc("GET /api/quizzes", s.protected("list_quizzes", s.listQuizzes))
	mux.HandleFunc("POST /api/quizzes", s.protected("create_quiz", s.createQuiz))
	mux.HandleFunc("GET /api/quizzes/available", s.protected("available_quizzes", s.availableQuizzes))
	mux.HandleFunc("GET /api/quizzes/{id}", s.protected("get_quiz", s.getQuiz))
	mux.HandleFunc("PUT /api/quizzes/{id}", s.protected("update_quiz", s.updateQuiz))
	mux.HandleFunc("PATCH /api/quizzes/{id}", s.protected("patch_quiz", s.patchQuiz))
	mux.HandleFunc("DELETE /api/quizzes/{id}", s.protected("delete_quiz", s.deleteQuiz))
	mux.HandleFunc("POST /api/quizzes/{id}/start", s.protected("start_quiz", s.startQuiz))
	mux.HandleFunc("POST /api/quizzes/{id}/publish", s.protected("publish_quiz", s.publishQuiz))
	mux.HandleFunc("GET /api/quizzes/{id}/submissions", s.protected("quiz_submissions", s.submissions))
	mux.HandleFunc("GET /api/quizzes/{id}/statistics", s.protected("quiz_statistics", s.statistics))
	mux.HandleFunc("GET /api/quizzes/{id}/live", s.protected("live_feed", s.live))

	mux.HandleFunc("GET /api/sessions", s.protected("list_sessions", s.listSessions))
	mux.HandleFunc("POST /api/sessions", s.protected("create_session", s.createSession))
	mux.HandleFunc("GET /api/sessions/{id}", s.protected("get_session", s.getSession))
	mux.HandleFunc("PUT /api/sessions/{id}", s.protected("update_session", s.updateSession))
	mux.HandleFunc("PATCH /api/sessions/{id}", s.protected("patch_session", s.patchSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.protected("delete_session", s.deleteSession))

	mux.HandleFunc("GET /api/questions", s.protected("list_questions", s.listQuestions))
	mux.HandleFunc("POST /api/questions", s.protected("create_question", s.createQuestion))
	mux.HandleFunc("GET /api/questions/{id}", s.protected("get_question", s.getQuestion))
	mux.HandleFunc("PUT /api/questions/{id}", s.protected("update_question", s.updateQuestion))
	mux.HandleFunc("PATCH /api/questions/{id}", s.protected("patch_question", s.patchQuestion))
	mux.HandleFunc("DELETE /api/questions/{id}", s.protected("delete_question", s.deleteQuestion))

	mux.HandleFunc("GET /api/attempts", s.protected("list_attempts", s.listAttempts))
	mux.HandleFunc("GET /api/attempts/{id}", s.protected("get_attempt", s.getAttempt))
	mux.HandleFunc("POST /api/attempts/{id}/submit_answer", s.protected("submit_answer", s.submitAnswer))
	mux.HandleFunc("POST /api/attempts/{id}/complete_session", s.protected("complete_session", s.completeSession))
	mux.HandleFunc("GET /api/attempts/{id}/student_attempt_details", s.protected("attempt_details", s.attemptDetails))

	// Quiz-side resources are also served without the /api prefix.
	for _, root := range []string{"/quizzes", "/sessions", "/questions", "/attempts"} {
		mux.Handle(root, apiAlias(mux))
		mux.Handle(root+"/", apiAlias(mux))
	}

	return stripSlash(mux)
}
