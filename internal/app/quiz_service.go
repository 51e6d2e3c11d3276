package app

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizInput creates or updates a quiz. Sessions are only read on create.
type QuizInput struct {
	Title              string
	Description        string
	ClassIDs           []uuid.UUID
	RandomizeQuestions bool
	ShowResult         bool
	ShowAnswers        bool
	Sessions           []SessionInput
}

// SessionInput creates or updates a session. Questions are only read on create.
// A nil Order falls back to the position in the enclosing list.
type SessionInput struct {
	Name      string
	Duration  int
	Order     *int
	Questions []QuestionInput
}

type QuestionInput struct {
	Text    string
	Order   *int
	Options []OptionInput
}

// OptionInput with an ID updates that option; without one it creates a new option.
type OptionInput struct {
	ID        *uuid.UUID
	Text      string
	IsCorrect bool
	Order     *int
}

// QuizPatch changes only the fields that are set.
type QuizPatch struct {
	Title              *string
	Description        *string
	ClassIDs           *[]uuid.UUID
	RandomizeQuestions *bool
	ShowResult         *bool
	ShowAnswers        *bool
}

func (pt QuizPatch) validate() error {
	if pt.Title != nil && strings.TrimSpace(*pt.Title) == "" {
		return domain.Invalid("title is required")
	}
	if pt.ClassIDs != nil && len(*pt.ClassIDs) == 0 {
		return domain.Invalid("a quiz must be assigned to at least one class")
	}
	return nil
}

type PublishInput struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// QuizDetail is the full quiz tree as the caller may see it. When
// RevealAnswers is false option correctness must not be shown.
type QuizDetail struct {
	domain.QuizContent
	RevealAnswers bool
}

// QuizService owns quiz content and publishing.
type QuizService struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

func NewQuizService(store Store, opts ...Option) *QuizService {
	o := buildOptions(opts)
	return &QuizService{store: store, now: o.now, log: o.logger}
}

// Create writes the quiz, its class links and any nested content in one
// transaction. Every class must belong to the caller.
func (s *QuizService) Create(ctx context.Context, p auth.Principal, in QuizInput) (QuizDetail, error) {
	if err := requireTeacher(p); err != nil {
		return QuizDetail{}, err
	}
	if err := in.validate(); err != nil {
		return QuizDetail{}, err
	}
	for i, sess := range in.Sessions {
		if err := sess.validate(i); err != nil {
			return QuizDetail{}, err
		}
	}

	now := s.now()
	quiz := domain.Quiz{
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		CreatorID:          p.UserID,
		ClassIDs:           in.ClassIDs,
		RandomizeQuestions: in.RandomizeQuestions,
		ShowResult:         in.ShowResult,
		ShowAnswers:        in.ShowAnswers,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if err := ownedClasses(ctx, tx, p, in.ClassIDs); err != nil {
			return err
		}
		if err := tx.CreateQuiz(ctx, &quiz); err != nil {
			return err
		}
		for i, sess := range in.Sessions {
			if _, err := createSession(ctx, tx, quiz.ID, sess, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return QuizDetail{}, err
	}
	s.log.Info("quiz created", "quiz", quiz.ID, "creator", p.UserID, "sessions", len(in.Sessions))
	content, err := loadContent(ctx, s.store, quiz)
	if err != nil {
		return QuizDetail{}, err
	}
	return QuizDetail{QuizContent: content, RevealAnswers: true}, nil
}

// Get returns the quiz tree. Students only see published quizzes of their
// classes while the window is open, never see correctness, and get a stable
// per-student question order when the quiz is randomized.
func (s *QuizService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (QuizDetail, error) {
	if p.IsTeacher() {
		quiz, err := ownedQuiz(ctx, s.store, p, id)
		if err != nil {
			return QuizDetail{}, err
		}
		content, err := loadContent(ctx, s.store, quiz)
		if err != nil {
			return QuizDetail{}, err
		}
		return QuizDetail{QuizContent: content, RevealAnswers: true}, nil
	}

	quiz, err := assignedQuiz(ctx, s.store, p, id)
	if err != nil {
		return QuizDetail{}, err
	}
	if !quiz.Window().Contains(s.now()) {
		return QuizDetail{}, domain.ErrQuizUnavailable
	}
	content, err := loadContent(ctx, s.store, quiz)
	if err != nil {
		return QuizDetail{}, err
	}
	if quiz.RandomizeQuestions {
		shuffleFor(content, p.UserID)
	}
	return QuizDetail{QuizContent: content}, nil
}

// List returns created quizzes for teachers and published quizzes of
// enrolled classes for students.
func (s *QuizService) List(ctx context.Context, p auth.Principal) ([]domain.QuizContent, error) {
	var (
		quizzes []domain.Quiz
		err     error
	)
	switch {
	case p.IsTeacher():
		quizzes, err = s.store.ListQuizzesByCreator(ctx, p.UserID)
	case p.IsStudent():
		quizzes, err = s.store.ListQuizzesForStudent(ctx, p.UserID)
		quizzes = publishedOnly(quizzes)
	default:
		return nil, domain.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, quizzes)
}

// Available lists the quizzes a student can open right now.
func (s *QuizService) Available(ctx context.Context, p auth.Principal) ([]domain.QuizContent, error) {
	if err := requireStudent(p); err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzesForStudent(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	open := quizzes[:0]
	for _, q := range quizzes {
		if q.OpenAt(now) {
			open = append(open, q)
		}
	}
	return s.summaries(ctx, open)
}

// Update overwrites quiz fields and class links. Publishing state and the
// window are left alone.
func (s *QuizService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in QuizInput) (QuizDetail, error) {
	if err := in.validate(); err != nil {
		return QuizDetail{}, err
	}
	return s.update(ctx, p, id, &in.ClassIDs, func(q *domain.Quiz) {
		q.Title = strings.TrimSpace(in.Title)
		q.Description = in.Description
		q.RandomizeQuestions = in.RandomizeQuestions
		q.ShowResult = in.ShowResult
		q.ShowAnswers = in.ShowAnswers
	})
}

// Patch is Update for the fields that are set. Class links are only
// replaced when ClassIDs is set.
func (s *QuizService) Patch(ctx context.Context, p auth.Principal, id uuid.UUID, pt QuizPatch) (QuizDetail, error) {
	if err := pt.validate(); err != nil {
		return QuizDetail{}, err
	}
	return s.update(ctx, p, id, pt.ClassIDs, func(q *domain.Quiz) {
		if pt.Title != nil {
			q.Title = strings.TrimSpace(*pt.Title)
		}
		if pt.Description != nil {
			q.Description = *pt.Description
		}
		if pt.RandomizeQuestions != nil {
			q.RandomizeQuestions = *pt.RandomizeQuestions
		}
		if pt.ShowResult != nil {
			q.ShowResult = *pt.ShowResult
		}
		if pt.ShowAnswers != nil {
			q.ShowAnswers = *pt.ShowAnswers
		}
	})
}

func (s *QuizService) update(ctx context.Context, p auth.Principal, id uuid.UUID, classIDs *[]uuid.UUID, apply func(*domain.Quiz)) (QuizDetail, error) {
	var quiz domain.Quiz
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		quiz, err = ownedQuiz(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if classIDs != nil {
			if err := ownedClasses(ctx, tx, p, *classIDs); err != nil {
				return err
			}
			quiz.ClassIDs = *classIDs
		}
		apply(&quiz)
		quiz.UpdatedAt = s.now()
		return tx.UpdateQuiz(ctx, quiz)
	})
	if err != nil {
		return QuizDetail{}, err
	}
	content, err := loadContent(ctx, s.store, quiz)
	if err != nil {
		return QuizDetail{}, err
	}
	return QuizDetail{QuizContent: content, RevealAnswers: true}, nil
}

func (s *QuizService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := ownedQuiz(ctx, s.store, p, id); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.log.Info("quiz deleted", "quiz", id, "creator", p.UserID)
	return nil
}

// Publish marks the quiz published and sets whichever window bounds are
// given; a bound left out keeps its current value, open when never set.
// There is no unpublish.
func (s *QuizService) Publish(ctx context.Context, p auth.Principal, id uuid.UUID, in PublishInput) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		quiz, err = ownedQuiz(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if in.StartDate != nil {
			quiz.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			quiz.EndDate = in.EndDate
		}
		if quiz.StartDate != nil && quiz.EndDate != nil && quiz.EndDate.Before(*quiz.StartDate) {
			return domain.Invalid("end_date must not be before start_date")
		}
		quiz.IsPublished = true
		quiz.UpdatedAt = s.now()
		return tx.UpdateQuiz(ctx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.log.Info("quiz published", "quiz", id, "start", quiz.StartDate, "end", quiz.EndDate)
	return quiz, nil
}

// AuthorizeLiveFeed checks that p may watch the quiz's live results.
func (s *QuizService) AuthorizeLiveFeed(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	_, err := ownedQuiz(ctx, s.store, p, id)
	return err
}

// summaries loads session trees so list views can report totals.
func (s *QuizService) summaries(ctx context.Context, quizzes []domain.Quiz) ([]domain.QuizContent, error) {
	out := make([]domain.QuizContent, 0, len(quizzes))
	for _, q := range quizzes {
		content, err := loadContent(ctx, s.store, q)
		if err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, nil
}

func loadContent(ctx context.Context, store ContentRepository, quiz domain.Quiz) (domain.QuizContent, error) {
	sessions, err := store.ListSessions(ctx, quiz.ID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	content := domain.QuizContent{Quiz: quiz, Sessions: make([]domain.SessionContent, 0, len(sessions))}
	for _, sess := range sessions {
		sc, err := loadSession(ctx, store, sess)
		if err != nil {
			return domain.QuizContent{}, err
		}
		content.Sessions = append(content.Sessions, sc)
	}
	return content, nil
}

func loadSession(ctx context.Context, store ContentRepository, sess domain.QuizSession) (domain.SessionContent, error) {
	questions, err := store.ListQuestions(ctx, sess.ID)
	if err != nil {
		return domain.SessionContent{}, err
	}
	return domain.SessionContent{QuizSession: sess, Questions: questions}, nil
}

// shuffleFor reorders each session's questions with a seed derived from the
// quiz and the student, so reloads keep the same order.
func shuffleFor(content domain.QuizContent, studentID uuid.UUID) {
	h := fnv.New64a()
	h.Write(content.ID[:])
	h.Write(studentID[:])
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	for _, sess := range content.Sessions {
		qs := sess.Questions
		rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}
}

func (in QuizInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Invalid("title is required")
	}
	if len(in.ClassIDs) == 0 {
		return domain.Invalid("a quiz must be assigned to at least one class")
	}
	return nil
}

func (in SessionInput) validate(pos int) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("session %d: name is required", pos+1)
	}
	if in.Duration < 0 {
		return domain.Invalid("session %d: duration must not be negative", pos+1)
	}
	for i, q := range in.Questions {
		if err := q.validate(i); err != nil {
			return domain.Invalid("session %d: %v", pos+1, err)
		}
	}
	return nil
}

func (in QuestionInput) validate(pos int) error {
	if strings.TrimSpace(in.Text) == "" {
		return domain.Invalid("question %d: text is required", pos+1)
	}
	for i, o := range in.Options {
		if strings.TrimSpace(o.Text) == "" {
			return domain.Invalid("question %d: option %d: text is required", pos+1, i+1)
		}
	}
	return nil
}

func orderOr(order *int, pos int) int {
	if order != nil {
		return *order
	}
	return pos
}
