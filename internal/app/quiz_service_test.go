package app_test

import (
	"errors"
	"testing"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func TestCreateQuizWritesTreeInOneTransaction(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	other := h.user(domain.RoleTeacher)
	mine := h.class(teacher)
	theirs := h.class(other)

	_, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{
		Title:    "Mixed",
		ClassIDs: []uuid.UUID{mine.ID, theirs.ID},
		Sessions: []app.SessionInput{{Name: "One", Questions: []app.QuestionInput{{Text: "Q", Options: []app.OptionInput{{Text: "A", IsCorrect: true}}}}}},
	})
	if !errors.Is(err, domain.ErrNotClassOwner) {
		t.Fatalf("expected ownership error, got %v", err)
	}
	quizzes, _ := h.store.ListQuizzesByCreator(h.ctx, teacher.UserID)
	if len(quizzes) != 0 {
		t.Fatalf("rejected quiz was partially written: %+v", quizzes)
	}

	detail, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{
		Title:    "Full",
		ClassIDs: []uuid.UUID{mine.ID},
		Sessions: []app.SessionInput{
			{Name: "One", Duration: 10, Questions: []app.QuestionInput{{Text: "Q1", Options: []app.OptionInput{{Text: "A", IsCorrect: true}, {Text: "B"}}}}},
			{Name: "Two", Duration: 5, Questions: []app.QuestionInput{{Text: "Q2"}, {Text: "Q3"}}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.IsPublished {
		t.Fatalf("new quizzes start unpublished")
	}
	if detail.TotalQuestions() != 3 || detail.TotalDuration() != 15 {
		t.Fatalf("totals = %d questions, %d minutes", detail.TotalQuestions(), detail.TotalDuration())
	}
	if detail.Sessions[0].Name != "One" || detail.Sessions[1].Questions[1].Text != "Q3" {
		t.Fatalf("content out of order: %+v", detail.Sessions)
	}
}

func TestPublishValidation(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	other := h.user(domain.RoleTeacher)
	class := h.class(teacher)

	empty, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{Title: "Empty", ClassIDs: []uuid.UUID{class.ID}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	published, err := h.quizzes.Publish(h.ctx, teacher, empty.ID, app.PublishInput{})
	if err != nil || !published.IsPublished {
		t.Fatalf("a quiz without sessions may still be published: %+v (%v)", published, err)
	}

	quiz := h.quiz(teacher, class.ID, 1)
	start := h.clock.Now()
	end := start.Add(-time.Hour)
	if _, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{StartDate: &start, EndDate: &end}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}
	if _, err := h.quizzes.Publish(h.ctx, other, quiz.ID, app.PublishInput{}); !errors.Is(err, domain.ErrNotQuizCreator) {
		t.Fatalf("expected creator check, got %v", err)
	}
}

func TestStudentQuizView(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 3)

	view, err := h.quizzes.Get(h.ctx, student, quiz.ID)
	if err != nil {
		t.Fatalf("student get: %v", err)
	}
	if view.RevealAnswers {
		t.Fatalf("students must not see correctness")
	}
	teacherView, err := h.quizzes.Get(h.ctx, teacher, quiz.ID)
	if err != nil || !teacherView.RevealAnswers {
		t.Fatalf("creator view: %+v (%v)", teacherView.RevealAnswers, err)
	}

	end := h.clock.Now().Add(time.Minute)
	if _, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{EndDate: &end}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	h.clock.Advance(time.Hour)
	if _, err := h.quizzes.Get(h.ctx, student, quiz.ID); !errors.Is(err, domain.ErrQuizUnavailable) {
		t.Fatalf("expected unavailable after end, got %v", err)
	}
	listed, err := h.quizzes.List(h.ctx, student)
	if err != nil || len(listed) != 1 {
		t.Fatalf("published quiz should still be listed: %d (%v)", len(listed), err)
	}
	open, err := h.quizzes.Available(h.ctx, student)
	if err != nil || len(open) != 0 {
		t.Fatalf("ended quiz should not be available: %d (%v)", len(open), err)
	}
}

func TestRandomizedOrderIsStablePerStudent(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 8)

	if _, err := h.quizzes.Update(h.ctx, teacher, quiz.ID, app.QuizInput{
		Title:              quiz.Title,
		ClassIDs:           quiz.ClassIDs,
		RandomizeQuestions: true,
		ShowResult:         true,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	first, err := h.quizzes.Get(h.ctx, student, quiz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := h.quizzes.Get(h.ctx, student, quiz.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	a, b := first.Sessions[0].Questions, second.Sessions[0].Questions
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("questions lost while shuffling")
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("order changed between reads at %d", i)
		}
	}
}

func TestUpdateQuestionReconcilesOptions(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]
	keep := question.Options[0]

	updated, err := h.quizzes.UpdateQuestion(h.ctx, teacher, question.ID, app.QuestionInput{
		Text: "Reworded",
		Options: []app.OptionInput{
			{ID: &keep.ID, Text: "still right", IsCorrect: true},
			{Text: "new wrong"},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "Reworded" || len(updated.Options) != 2 {
		t.Fatalf("unexpected question %+v", updated)
	}
	if updated.Options[0].ID != keep.ID || updated.Options[0].Text != "still right" {
		t.Fatalf("kept option not updated: %+v", updated.Options[0])
	}
	if _, err := h.store.GetOption(h.ctx, question.Options[1].ID); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("dropped option still stored: %v", err)
	}

	stray := uuid.New()
	_, err = h.quizzes.UpdateQuestion(h.ctx, teacher, question.ID, app.QuestionInput{
		Text:    "Again",
		Options: []app.OptionInput{{ID: &stray, Text: "x"}},
	})
	if !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected unknown option error, got %v", err)
	}
	again, _ := h.store.GetQuestion(h.ctx, question.ID)
	if again.Text != "Reworded" {
		t.Fatalf("failed update partially applied: %q", again.Text)
	}
}

func TestSessionCRUDIsCreatorOnly(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	other := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1)

	sess, err := h.quizzes.CreateSession(h.ctx, teacher, quiz.ID, app.SessionInput{Name: "Extra", Duration: 3})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Order != 1 {
		t.Fatalf("appended session order = %d, want 1", sess.Order)
	}
	if _, err := h.quizzes.CreateSession(h.ctx, other, quiz.ID, app.SessionInput{Name: "Nope"}); !errors.Is(err, domain.ErrNotQuizCreator) {
		t.Fatalf("expected creator check, got %v", err)
	}

	q, err := h.quizzes.CreateQuestion(h.ctx, teacher, sess.ID, app.QuestionInput{Text: "New", Options: []app.OptionInput{{Text: "yes", IsCorrect: true}}})
	if err != nil || len(q.Options) != 1 {
		t.Fatalf("create question: %+v (%v)", q, err)
	}
	listed, err := h.quizzes.ListQuestions(h.ctx, teacher, &sess.ID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("list questions: %d (%v)", len(listed), err)
	}
	all, err := h.quizzes.ListSessions(h.ctx, teacher, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("list sessions: %d (%v)", len(all), err)
	}

	if err := h.quizzes.DeleteSession(h.ctx, teacher, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := h.quizzes.GetQuestion(h.ctx, teacher, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("question survived its session: %v", err)
	}
}

func TestRepublishKeepsUnsentBound(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1)

	start := h.clock.Now().Add(time.Hour)
	end := start.Add(24 * time.Hour)
	if _, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	later := end.Add(24 * time.Hour)
	got, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{EndDate: &later})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Fatalf("start date lost on republish: %v", got.StartDate)
	}
	if got.EndDate == nil || !got.EndDate.Equal(later) {
		t.Fatalf("end date = %v, want %v", got.EndDate, later)
	}

	early := start.Add(-time.Hour)
	if _, err := h.quizzes.Publish(h.ctx, teacher, quiz.ID, app.PublishInput{EndDate: &early}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("end before the kept start should be rejected, got %v", err)
	}
}

func TestPatchQuestionKeepsOptionsAndAnswers(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)
	question := quiz.Sessions[0].Questions[0]

	attempt := h.start(student, quiz.ID)
	h.answer(student, attempt.ID, question, true)

	text := "Fixed typo"
	patched, err := h.quizzes.PatchQuestion(h.ctx, teacher, question.ID, app.QuestionPatch{Text: &text})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Text != text || len(patched.Options) != 2 || patched.Order != question.Order {
		t.Fatalf("unexpected question after text-only patch: %+v", patched)
	}

	sa, err := h.store.FindSessionAttempt(h.ctx, attempt.ID, quiz.Sessions[0].ID)
	if err != nil {
		t.Fatalf("session attempt: %v", err)
	}
	answers, err := h.store.ListAnswers(h.ctx, sa.ID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("answers: %+v (%v)", answers, err)
	}
	if got := answers[0].SelectedOptionID; got == nil || *got != question.Options[0].ID {
		t.Fatalf("submitted answer lost its option: %v", got)
	}

	blank := "  "
	if _, err := h.quizzes.PatchQuestion(h.ctx, teacher, question.ID, app.QuestionPatch{Text: &blank}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank text, got %v", err)
	}

	cleared, err := h.quizzes.PatchQuestion(h.ctx, teacher, question.ID, app.QuestionPatch{Options: []app.OptionInput{}})
	if err != nil || len(cleared.Options) != 0 || cleared.Text != text {
		t.Fatalf("explicit empty options should clear them: %+v (%v)", cleared, err)
	}
}

func TestPatchQuizKeepsUnsentFields(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	other := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	second := h.class(teacher)

	quiz, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{
		Title:              "Original",
		Description:        "Keep me",
		ClassIDs:           []uuid.UUID{class.ID, second.ID},
		RandomizeQuestions: true,
		ShowResult:         true,
		ShowAnswers:        true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Renamed"
	patched, err := h.quizzes.Patch(h.ctx, teacher, quiz.ID, app.QuizPatch{Title: &title})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Title != title || patched.Description != "Keep me" {
		t.Fatalf("unexpected text fields: %+v", patched.Quiz)
	}
	if !patched.RandomizeQuestions || !patched.ShowResult || !patched.ShowAnswers {
		t.Fatalf("unsent flags were reset: %+v", patched.Quiz)
	}
	if len(patched.ClassIDs) != 2 {
		t.Fatalf("unsent classes were replaced: %v", patched.ClassIDs)
	}

	hide := false
	only := []uuid.UUID{second.ID}
	patched, err = h.quizzes.Patch(h.ctx, teacher, quiz.ID, app.QuizPatch{ShowResult: &hide, ClassIDs: &only})
	if err != nil {
		t.Fatalf("patch flags: %v", err)
	}
	if patched.ShowResult || !patched.ShowAnswers || len(patched.ClassIDs) != 1 || patched.ClassIDs[0] != second.ID {
		t.Fatalf("unexpected quiz after second patch: %+v", patched.Quiz)
	}

	none := []uuid.UUID{}
	if _, err := h.quizzes.Patch(h.ctx, teacher, quiz.ID, app.QuizPatch{ClassIDs: &none}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty classes, got %v", err)
	}
	if _, err := h.quizzes.Patch(h.ctx, other, quiz.ID, app.QuizPatch{Title: &title}); !errors.Is(err, domain.ErrNotQuizCreator) {
		t.Fatalf("expected creator check, got %v", err)
	}
}

func TestPatchSessionAndClassKeepUnsentFields(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	class := h.class(teacher)
	quiz := h.quiz(teacher, class.ID, 1, 1)
	sess := quiz.Sessions[1]

	duration := 25
	patched, err := h.quizzes.PatchSession(h.ctx, teacher, sess.ID, app.SessionPatch{Duration: &duration})
	if err != nil {
		t.Fatalf("patch session: %v", err)
	}
	if patched.Name != sess.Name || patched.Duration != 25 || patched.Order != sess.Order || len(patched.Questions) != 1 {
		t.Fatalf("unexpected session after patch: %+v", patched)
	}

	subject := "Physics"
	c, err := h.classes.Patch(h.ctx, teacher, class.ID, app.ClassPatch{Subject: &subject})
	if err != nil {
		t.Fatalf("patch class: %v", err)
	}
	if c.Name != class.Name || c.Subject != subject || c.Code != class.Code {
		t.Fatalf("unexpected class after patch: %+v", c)
	}
}
