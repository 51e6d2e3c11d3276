package app_test

import (
	"errors"
	"testing"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func TestJoinTwiceIsAConflict(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)

	_, err := h.classes.JoinByCode(h.ctx, student, class.Code)
	if !errors.Is(err, domain.ErrAlreadyMember) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected already-member conflict, got %v", err)
	}
	students, err := h.store.ListStudents(h.ctx, class.ID)
	if err != nil || len(students) != 1 {
		t.Fatalf("expected a single membership, got %d (%v)", len(students), err)
	}
}

func TestJoinByUnknownCode(t *testing.T) {
	h := newHarness(t)
	student := h.user(domain.RoleStudent)

	if _, err := h.classes.JoinByCode(h.ctx, student, "ZZZZZZ"); !errors.Is(err, domain.ErrClassNotFound) {
		t.Fatalf("expected class not found, got %v", err)
	}
	if _, err := h.classes.JoinByCode(h.ctx, student, "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank code, got %v", err)
	}
}

func TestJoinByIDRequiresMatchingCode(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher)

	if _, err := h.classes.Join(h.ctx, student, class.ID, "WRONG1"); !errors.Is(err, domain.ErrInvalidJoinCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	joined, err := h.classes.Join(h.ctx, student, class.ID, " "+class.Code+" ")
	if err != nil || joined.ID != class.ID {
		t.Fatalf("join with code: %v", err)
	}
}

func TestOnlyTeachersCreateClasses(t *testing.T) {
	h := newHarness(t)
	student := h.user(domain.RoleStudent)

	if _, err := h.classes.Create(h.ctx, student, app.ClassInput{Name: "Nope"}); !errors.Is(err, domain.ErrTeacherOnly) {
		t.Fatalf("expected teacher only, got %v", err)
	}
}

func TestClassCodeCollisionRetries(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	gen := func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	h := newHarness(t, app.WithCodeGenerator(gen))
	teacher := h.user(domain.RoleTeacher)

	first := h.class(teacher)
	second := h.class(teacher)
	if first.Code != "AAAAAA" || second.Code != "BBBBBB" {
		t.Fatalf("expected retry past the collision, got %q and %q", first.Code, second.Code)
	}
}

func TestClassCodeRetriesAreBounded(t *testing.T) {
	gen := func() (string, error) { return "SAME00", nil }
	h := newHarness(t, app.WithCodeGenerator(gen), app.WithCodeAttempts(3))
	teacher := h.user(domain.RoleTeacher)

	h.class(teacher)
	if _, err := h.classes.Create(h.ctx, teacher, app.ClassInput{Name: "Second"}); err == nil {
		t.Fatalf("expected failure once every attempt collides")
	}
}

func TestGeneratedCodesAreUppercaseAlphanumeric(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := app.GenerateClassCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				t.Fatalf("code %q has invalid rune %q", code, r)
			}
		}
	}
}

func TestRemoveAndLeave(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	other := h.user(domain.RoleTeacher)
	alice := h.user(domain.RoleStudent)
	bob := h.user(domain.RoleStudent)
	class := h.class(teacher, alice, bob)

	if err := h.classes.RemoveStudent(h.ctx, other, class.ID, alice.UserID); !errors.Is(err, domain.ErrNotClassOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	if err := h.classes.RemoveStudent(h.ctx, teacher, class.ID, uuid.New()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown student, got %v", err)
	}
	if err := h.classes.RemoveStudent(h.ctx, teacher, class.ID, alice.UserID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := h.classes.RemoveStudent(h.ctx, teacher, class.ID, alice.UserID); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected not member, got %v", err)
	}

	if err := h.classes.Leave(h.ctx, bob, class.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := h.classes.Leave(h.ctx, bob, class.ID); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected not member on second leave, got %v", err)
	}
	if err := h.classes.Leave(h.ctx, bob, uuid.New()); !errors.Is(err, domain.ErrClassNotFound) {
		t.Fatalf("expected class not found, got %v", err)
	}
}

func TestClassVisibility(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	member := h.user(domain.RoleStudent)
	outsider := h.user(domain.RoleStudent)
	class := h.class(teacher, member)

	detail, err := h.classes.Get(h.ctx, member, class.ID)
	if err != nil {
		t.Fatalf("member get: %v", err)
	}
	if detail.Teacher.ID != teacher.UserID || len(detail.Students) != 1 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if _, err := h.classes.Get(h.ctx, outsider, class.ID); !errors.Is(err, domain.ErrNotClassMember) {
		t.Fatalf("expected membership check, got %v", err)
	}

	mine, err := h.classes.List(h.ctx, member)
	if err != nil || len(mine) != 1 {
		t.Fatalf("student list: %v (%v)", mine, err)
	}
	none, err := h.classes.List(h.ctx, outsider)
	if err != nil || len(none) != 0 {
		t.Fatalf("outsider list: %v (%v)", none, err)
	}
}

func TestDeleteClassKeepsQuizzesAndAttempts(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	quiz := h.quiz(teacher, class.ID, 1)
	attempt := h.start(student, quiz.ID)

	if err := h.classes.Delete(h.ctx, teacher, class.ID); err != nil {
		t.Fatalf("delete class: %v", err)
	}
	q, err := h.store.GetQuiz(h.ctx, quiz.ID)
	if err != nil {
		t.Fatalf("quiz deleted with class: %v", err)
	}
	if len(q.ClassIDs) != 0 {
		t.Fatalf("class link survived: %v", q.ClassIDs)
	}
	if _, err := h.store.GetAttempt(h.ctx, attempt.ID); err != nil {
		t.Fatalf("attempt deleted with class: %v", err)
	}
}

func TestClassQuizzesHideDraftsFromStudents(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(domain.RoleTeacher)
	student := h.user(domain.RoleStudent)
	class := h.class(teacher, student)
	h.quiz(teacher, class.ID, 1)
	if _, err := h.quizzes.Create(h.ctx, teacher, app.QuizInput{Title: "Draft", ClassIDs: []uuid.UUID{class.ID}}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	forTeacher, err := h.classes.Quizzes(h.ctx, teacher, class.ID)
	if err != nil || len(forTeacher) != 2 {
		t.Fatalf("teacher sees %d quizzes (%v), want 2", len(forTeacher), err)
	}
	forStudent, err := h.classes.Quizzes(h.ctx, student, class.ID)
	if err != nil || len(forStudent) != 1 {
		t.Fatalf("student sees %d quizzes (%v), want 1", len(forStudent), err)
	}
}
