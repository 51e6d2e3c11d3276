package memory

import (
	"context"
	"sort"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// CompletedSubmissions lists sealed attempts, newest completion first. A
// student removed from every class of the quiz still appears, with no ClassIDs.
func (s *Store) CompletedSubmissions(_ context.Context, quizID uuid.UUID, studentID *uuid.UUID) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.data.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	var out []domain.Submission
	for _, a := range s.completedLocked(quizID, studentID) {
		var classIDs []uuid.UUID
		for _, cid := range q.ClassIDs {
			if _, ok := s.data.members[cid][a.StudentID]; ok {
				classIDs = append(classIDs, cid)
			}
		}
		out = append(out, domain.Submission{
			AttemptID:   a.ID,
			QuizID:      a.QuizID,
			Student:     s.data.users[a.StudentID],
			ClassIDs:    classIDs,
			Score:       *a.Score,
			StartedAt:   a.StartedAt,
			CompletedAt: *a.CompletedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].AttemptID.String() < out[j].AttemptID.String()
	})
	return out, nil
}

func (s *Store) ScoreSummary(_ context.Context, quizID uuid.UUID, studentID *uuid.UUID) (domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.quizzes[quizID]; !ok {
		return domain.Statistics{}, domain.ErrQuizNotFound
	}
	var scores []float64
	for _, a := range s.completedLocked(quizID, studentID) {
		scores = append(scores, *a.Score)
	}
	return domain.Summarize(quizID, scores), nil
}

func (s *Store) completedLocked(quizID uuid.UUID, studentID *uuid.UUID) []domain.QuizAttempt {
	var out []domain.QuizAttempt
	for _, a := range s.data.attempts {
		if a.QuizID != quizID || !a.Sealed() || a.Score == nil {
			continue
		}
		if studentID != nil && a.StudentID != *studentID {
			continue
		}
		out = append(out, a)
	}
	return out
}
