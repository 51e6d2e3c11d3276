package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"classquiz-service/internal/infra/memory"
	"github.com/google/uuid"
)

func TestTwoSessionScenarioSealsWithMean(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 2, 1)
	sessA, sessB := quiz.Sessions[0], quiz.Sessions[1]

	events, cancel, err := h.feed.Subscribe(h.ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, sessA.Questions[0], true)
	h.answer(student, attempt.ID, sessA.Questions[1], false)

	res, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, sessA.ID)
	if err != nil {
		t.Fatalf("complete session A: %v", err)
	}
	if *res.SessionAttempt.Score != 50 {
		t.Fatalf("session A score = %v, want 50", *res.SessionAttempt.Score)
	}
	if res.Sealed || res.Attempt.Sealed() {
		t.Fatalf("attempt sealed after the first of two sessions")
	}

	h.clock.Advance(time.Minute)
	h.answer(student, attempt.ID, sessB.Questions[0], true)
	res, err = h.attempts.CompleteSession(h.ctx, student, attempt.ID, sessB.ID)
	if err != nil {
		t.Fatalf("complete session B: %v", err)
	}
	if *res.SessionAttempt.Score != 100 {
		t.Fatalf("session B score = %v, want 100", *res.SessionAttempt.Score)
	}
	if !res.Sealed || res.Attempt.CompletedAt == nil || *res.Attempt.Score != 75 {
		t.Fatalf("expected sealed attempt with final score 75, got %+v", res.Attempt)
	}

	stored, err := h.store.GetAttempt(h.ctx, attempt.ID)
	if err != nil || !stored.Sealed() || *stored.Score != 75 {
		t.Fatalf("stored attempt not sealed: %+v (%v)", stored, err)
	}

	select {
	case ev := <-events:
		if ev.Type != domain.EventAttemptCompleted || ev.Score != 75 || ev.Statistics.Count != 1 {
			t.Fatalf("unexpected live event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no live event after sealing")
	}
}

func TestStartIsIdempotentWhileInProgress(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	first, created, err := h.attempts.Start(h.ctx, student, quiz.ID)
	if err != nil || !created {
		t.Fatalf("first start: created=%v err=%v", created, err)
	}
	second, created, err := h.attempts.Start(h.ctx, student, quiz.ID)
	if err != nil || created {
		t.Fatalf("second start: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("start returned a different attempt: %v vs %v", first.ID, second.ID)
	}
}

func TestConcurrentStartsShareOneAttempt(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	const n = 8
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, _, err := h.attempts.Start(h.ctx, student, quiz.ID)
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			ids <- a.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	if len(seen) != 1 {
		t.Fatalf("expected one attempt, got %d", len(seen))
	}
}

func TestStartRespectsWindow(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	start := h.clock.Now().Add(time.Hour)
	end := start.Add(time.Hour)
	if _, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, _, err := h.attempts.Start(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrQuizNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}

	h.clock.Advance(3 * time.Hour)
	if _, _, err := h.attempts.Start(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrQuizEnded) {
		t.Fatalf("expected ended, got %v", err)
	}
}

func TestPublishWithOnlyEndDateLeavesStartOpen(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	end := h.clock.Now().Add(time.Hour)
	published, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{EndDate: &end})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.StartDate != nil {
		t.Fatalf("start date should stay unbounded, got %v", published.StartDate)
	}
	if _, _, err := h.attempts.Start(h.ctx, student, quiz.ID); err != nil {
		t.Fatalf("start inside end-only window: %v", err)
	}
}

func TestStartRequiresEnrollmentAndPublish(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	member := h.user(domain.RoleStudent)
	outsider := h.user(domain.RoleStudent)
	class := h.class(teacher, member)

	draft, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{
		Title:    "Draft",
		ClassIDs: []uuid.UUID{class.ID},
		Sessions: []app.SessionInput{{Name: "Only"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := h.attempts.Start(h.ctx, member, draft.ID); !errors.Is(err, domain.ErrQuizNotPublished) {
		t.Fatalf("expected unpublished error, got %v", err)
	}

	quiz := h.quiz(teacher, class.ID, 1)
	if _, _, err := h.attempts.Start(h.ctx, outsider, quiz.ID); !errors.Is(err, domain.ErrNotAssigned) {
		t.Fatalf("expected not assigned, got %v", err)
	}
	if _, _, err := h.attempts.Start(h.ctx, teacher, quiz.ID); !errors.Is(err, domain.ErrStudentOnly) {
		t.Fatalf("expected student only, got %v", err)
	}
}

func TestCompletedQuizCannotBeRestarted(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, quiz.Sessions[0].Questions[0], true)
	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, _, err := h.attempts.Start(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrQuizAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
}

func TestAnswerCorrectnessIsReadAtSubmission(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1, 1)
	question := quiz.Sessions[0].Questions[0]
	wrong := question.Options[1]

	attempt := h.start(student, quiz.ID)
	first := h.answer(student, attempt.ID, question, false)
	if first.IsCorrect {
		t.Fatalf("wrong option scored as correct")
	}

	// The author flips the flags after the first submission.
	_, err := h.quizzes.UpdateQuestion(h.ctx, teacher, question.ID, app.QuestionInput{
		Text: question.Text,
		Options: []app.OptionInput{
			{ID: &question.Options[0].ID, Text: "right", IsCorrect: false},
			{ID: &wrong.ID, Text: "wrong", IsCorrect: true},
		},
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}

	second, err := h.attempts.SubmitAnswer(h.ctx, student, attempt.ID, app.AnswerInput{QuestionID: question.ID, OptionID: wrong.ID})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !second.IsCorrect || second.ID != first.ID {
		t.Fatalf("expected the same answer now correct, got %+v", second)
	}
}

func TestSealedAttemptRejectsFurtherWork(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, question, true)
	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := h.attempts.SubmitAnswer(h.ctx, student, attempt.ID, app.AnswerInput{QuestionID: question.ID, OptionID: question.Options[1].ID})
	if !errors.Is(err, domain.ErrAttemptSealed) {
		t.Fatalf("expected sealed conflict on submit, got %v", err)
	}
	_, err = h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID)
	if !errors.Is(err, domain.ErrAttemptSealed) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected sealed conflict on complete, got %v", err)
	}
}

func TestCompletedSessionRejectsAnswers(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1, 1)
	first := quiz.Sessions[0]

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, first.Questions[0], true)
	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := h.attempts.SubmitAnswer(h.ctx, student, attempt.ID, app.AnswerInput{QuestionID: first.Questions[0].ID, OptionID: first.Questions[0].Options[1].ID})
	if !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("expected session completed conflict, got %v", err)
	}
	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, first.ID); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("expected re-completion conflict, got %v", err)
	}
}

func TestCompleteSessionWithoutAnswers(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)

	attempt := h.start(student, quiz.ID)
	_, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID)
	if !errors.Is(err, domain.ErrSessionAttemptNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for a session with no answers, got %v", err)
	}

	// A session attempt whose answers were all removed scores zero.
	question := quiz.Sessions[0].Questions[0]
	h.answer(student, attempt.ID, question, true)
	if err := h.quizzes.DeleteQuestion(h.ctx, teacher, question.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	res, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if *res.SessionAttempt.Score != 0 {
		t.Fatalf("empty session score = %v, want 0", *res.SessionAttempt.Score)
	}
}

func TestOnlyOwnerMayAnswer(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	owner := h.user(domain.RoleStudent)
	other := h.user(domain.RoleStudent)
	class := h.class(teacher, owner, other)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	attempt := h.start(owner, quiz.ID)
	_, err := h.attempts.SubmitAnswer(h.ctx, other, attempt.ID, app.AnswerInput{QuestionID: question.ID, OptionID: question.Options[0].ID})
	if !errors.Is(err, domain.ErrNotAttemptOwner) {
		t.Fatalf("expected ownership error, got %v", err)
	}
}

func TestOptionMustBelongToQuestion(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 2)
	q1, q2 := quiz.Sessions[0].Questions[0], quiz.Sessions[0].Questions[1]

	attempt := h.start(student, quiz.ID)
	_, err := h.attempts.SubmitAnswer(h.ctx, student, attempt.ID, app.AnswerInput{QuestionID: q1.ID, OptionID: q2.Options[0].ID})
	if !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
}

func TestRemovedStudentStaysInStatistics(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 2)

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, quiz.Sessions[0].Questions[0], true)
	h.answer(student, attempt.ID, quiz.Sessions[0].Questions[1], false)
	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := h.classes.RemoveStudent(h.ctx, teacher, class.ID, student.UserID); err != nil {
		t.Fatalf("remove student: %v", err)
	}

	stats, err := h.attempts.Statistics(h.ctx, teacher, quiz.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Count != 1 || stats.Average != 50 || stats.Max != 50 || stats.Min != 50 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
	subs, err := h.attempts.Submissions(h.ctx, teacher, quiz.ID)
	if err != nil {
		t.Fatalf("submissions: %v", err)
	}
	if len(subs) != 1 || subs[0].AttemptID != attempt.ID {
		t.Fatalf("removed student's attempt missing: %+v", subs)
	}
}

func TestReportsAreScopedByRole(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	stranger := h.user(domain.RoleTeacher)
	alice := h.user(domain.RoleStudent)
	bob := h.user(domain.RoleStudent)
	class := h.class(teacher, alice, bob)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	for i, student := range []auth.Principal{alice, bob} {
		attempt := h.start(student, quiz.ID)
		h.answer(student, attempt.ID, question, i == 0)
		if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	all, err := h.attempts.Statistics(h.ctx, teacher, quiz.ID)
	if err != nil || all.Count != 2 || all.Average != 50 || all.Max != 100 || all.Min != 0 {
		t.Fatalf("teacher statistics %+v (%v)", all, err)
	}
	own, err := h.attempts.Statistics(h.ctx, bob, quiz.ID)
	if err != nil || own.Count != 1 || own.Average != 0 {
		t.Fatalf("student statistics %+v (%v)", own, err)
	}
	subs, err := h.attempts.Submissions(h.ctx, alice, quiz.ID)
	if err != nil || len(subs) != 1 || subs[0].Student.ID != alice.UserID {
		t.Fatalf("student submissions %+v (%v)", subs, err)
	}
	if _, err := h.attempts.Statistics(h.ctx, stranger, quiz.ID); !errors.Is(err, domain.ErrNotQuizCreator) {
		t.Fatalf("expected creator check, got %v", err)
	}
}

func TestEmptyStatisticsDefaultToZero(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1)

	stats, err := h.attempts.Statistics(h.ctx, teacher, quiz.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Count != 0 || stats.Average != 0 || stats.Max != 0 || stats.Min != 0 {
		t.Fatalf("expected zero statistics, got %+v", stats)
	}
}

func TestDetailsRespectQuizFlags(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	if _, err := h.quizzes.Update(h.ctx, teacher, quiz.ID, app.QuizInput{
		Title:       quiz.Title,
		ClassIDs:    quiz.ClassIDs,
		ShowResult:  false,
		ShowAnswers: true,
	}); err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, question, false)

	details, err := h.attempts.Details(h.ctx, student, attempt.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.ShowScores || details.RevealAnswers {
		t.Fatalf("student must not see scores or answers yet: %+v", details)
	}
	if got := details.Sessions[0].Answers[0]; got.IsCorrect != nil || got.CorrectOptionID != nil {
		t.Fatalf("hidden fields leaked: %+v", got)
	}

	if _, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	details, err = h.attempts.Details(h.ctx, student, attempt.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if !details.RevealAnswers || details.Attempt.Score != nil {
		t.Fatalf("sealed attempt should reveal answers but keep scores hidden: %+v", details)
	}
	if got := details.Sessions[0].Answers[0].CorrectOptionID; got == nil || *got != question.Options[0].ID {
		t.Fatalf("correct option not revealed: %v", got)
	}

	forTeacher, err := h.attempts.Details(h.ctx, teacher, attempt.ID)
	if err != nil {
		t.Fatalf("teacher details: %v", err)
	}
	if !forTeacher.ShowScores || forTeacher.Attempt.Score == nil || *forTeacher.Attempt.Score != 0 {
		t.Fatalf("creator must see the score: %+v", forTeacher.Attempt)
	}
}

func TestHiddenResultsStayHiddenFromStudents(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	if _, err := h.quizzes.Update(h.ctx, teacher, quiz.ID, app.QuizInput{
		Title:    quiz.Title,
		ClassIDs: quiz.ClassIDs,
	}); err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	events, cancel, err := h.feed.Subscribe(h.ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, question, true)
	res, err := h.attempts.CompleteSession(h.ctx, student, attempt.ID, quiz.Sessions[0].ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !res.Sealed {
		t.Fatalf("single-session attempt should seal")
	}
	if res.SessionAttempt.Score != nil || res.Attempt.Score != nil {
		t.Fatalf("completion leaked scores: session %v attempt %v", res.SessionAttempt.Score, res.Attempt.Score)
	}

	if _, err := h.attempts.Submissions(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected hidden submissions, got %v", err)
	}
	if _, err := h.attempts.Statistics(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrResultsHidden) {
		t.Fatalf("expected hidden statistics, got %v", err)
	}

	stats, err := h.attempts.Statistics(h.ctx, teacher, quiz.ID)
	if err != nil || stats.Count != 1 || stats.Average != 100 {
		t.Fatalf("creator statistics %+v (%v)", stats, err)
	}
	subs, err := h.attempts.Submissions(h.ctx, teacher, quiz.ID)
	if err != nil || len(subs) != 1 || subs[0].Score != 100 {
		t.Fatalf("creator submissions %+v (%v)", subs, err)
	}
	select {
	case ev := <-events:
		if ev.Score != 100 {
			t.Fatalf("live feed should carry the real score, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no live event after sealing")
	}
}

// cancelAwareReports fails like a real database driver once its context is done.
type cancelAwareReports struct {
	*memory.Store
}

func (r cancelAwareReports) ScoreSummary(ctx context.Context, quizID uuid.UUID, studentID *uuid.UUID) (domain.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return domain.Statistics{}, err
	}
	return r.Store.ScoreSummary(ctx, quizID, studentID)
}

func TestStatisticsQueryOutlivesCallerCancellation(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1)
	attempts := app.NewAttemptService(h.store, cancelAwareReports{h.store}, h.feed, app.WithClock(h.clock.Now))

	ctx, cancel := context.WithCancel(h.ctx)
	cancel()
	if _, err := attempts.Statistics(ctx, teacher, quiz.ID); err != nil {
		t.Fatalf("shared statistics query inherited the caller's cancellation: %v", err)
	}
}
