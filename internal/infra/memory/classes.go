package memory

import (
	"context"
	"sort"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateClass(_ context.Context, c *domain.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.codes[c.Code]; ok {
		return domain.ErrClassCodeTaken
	}
	ensureID(&c.ID)
	nowIfZero(&c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.data.classes[c.ID] = *c
	s.data.codes[c.Code] = c.ID
	s.data.members[c.ID] = make(membership)
	return nil
}

func (s *Store) GetClass(_ context.Context, id uuid.UUID) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data.classes[id]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return c, nil
}

func (s *Store) GetClassByCode(_ context.Context, code string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.data.codes[code]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return s.data.classes[id], nil
}

// UpdateClass overwrites name and subject. Code and owner never change.
func (s *Store) UpdateClass(_ context.Context, c domain.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.classes[c.ID]
	if !ok {
		return domain.ErrClassNotFound
	}
	cur.Name = c.Name
	cur.Subject = c.Subject
	cur.UpdatedAt = c.UpdatedAt
	s.data.classes[c.ID] = cur
	return nil
}

// DeleteClass drops the class, its memberships and its quiz assignments.
func (s *Store) DeleteClass(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.data.classes[id]
	if !ok {
		return domain.ErrClassNotFound
	}
	delete(s.data.classes, id)
	delete(s.data.codes, c.Code)
	delete(s.data.members, id)
	for qid, q := range s.data.quizzes {
		if !q.HasClass(id) {
			continue
		}
		kept := make([]uuid.UUID, 0, len(q.ClassIDs))
		for _, cid := range q.ClassIDs {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		q.ClassIDs = kept
		s.data.quizzes[qid] = q
	}
	return nil
}

func (s *Store) ListClassesByTeacher(_ context.Context, teacherID uuid.UUID) ([]domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Class
	for _, c := range s.data.classes {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	sortClasses(out)
	return out, nil
}

func (s *Store) ListClassesByStudent(_ context.Context, studentID uuid.UUID) ([]domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Class
	for classID, m := range s.data.members {
		if _, ok := m[studentID]; ok {
			out = append(out, s.data.classes[classID])
		}
	}
	sortClasses(out)
	return out, nil
}

func (s *Store) AddStudent(_ context.Context, classID, studentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.data.members[classID]
	if !ok {
		return domain.ErrClassNotFound
	}
	if _, ok := m[studentID]; ok {
		return domain.ErrAlreadyMember
	}
	m[studentID] = time.Now().UTC()
	return nil
}

func (s *Store) RemoveStudent(_ context.Context, classID, studentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.data.members[classID]
	if !ok {
		return domain.ErrClassNotFound
	}
	if _, ok := m[studentID]; !ok {
		return domain.ErrNotMember
	}
	delete(m, studentID)
	return nil
}

func (s *Store) IsEnrolled(_ context.Context, classID, studentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data.members[classID][studentID]
	return ok, nil
}

// ListStudents returns members in join order.
func (s *Store) ListStudents(_ context.Context, classID uuid.UUID) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.data.members[classID]
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if !m[ids[i]].Equal(m[ids[j]]) {
			return m[ids[i]].Before(m[ids[j]])
		}
		return ids[i].String() < ids[j].String()
	})
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.data.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func sortClasses(cs []domain.Class) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}
