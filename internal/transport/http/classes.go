package http

import (
	"net/http"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
)

func (s *Server) listClasses(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	classes, err := s.svc.Classes.List(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toClasses(classes))
	return nil
}

func (s *Server) createClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req classRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	c, err := s.svc.Classes.Create(r.Context(), p, app.ClassInput{Name: req.Name, Subject: req.Subject})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toClass(c))
	return nil
}

func (s *Server) getClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	detail, err := s.svc.Classes.Get(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toClassDetail(detail))
	return nil
}

func (s *Server) updateClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req classRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	c, err := s.svc.Classes.Update(r.Context(), p, id, app.ClassInput{Name: req.Name, Subject: req.Subject})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toClass(c))
	return nil
}

func (s *Server) patchClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req classPatchRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	c, err := s.svc.Classes.Patch(r.Context(), p, id, app.ClassPatch{Name: req.Name, Subject: req.Subject})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toClass(c))
	return nil
}

func (s *Server) deleteClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Classes.Delete(r.Context(), p, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) joinClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req joinRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if _, err := s.svc.Classes.Join(r.Context(), p, id, req.Code); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully joined the class"})
	return nil
}

func (s *Server) joinByCode(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req joinRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	c, err := s.svc.Classes.JoinByCode(r.Context(), p, req.Code)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toClass(c))
	return nil
}

func (s *Server) removeStudent(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req removeStudentRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if err := s.svc.Classes.RemoveStudent(r.Context(), p, id, req.StudentID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Student removed successfully"})
	return nil
}

func (s *Server) leaveClass(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Classes.Leave(r.Context(), p, id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully left the class"})
	return nil
}

// leaveByBody is the student route variant that names the class in the body.
func (s *Server) leaveByBody(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req leaveRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if err := s.svc.Classes.Leave(r.Context(), p, req.ClassID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully left the class"})
	return nil
}

func (s *Server) classQuizzes(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	quizzes, err := s.svc.Classes.Quizzes(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuizHeaders(quizzes))
	return nil
}
