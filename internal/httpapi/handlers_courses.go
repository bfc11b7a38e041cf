package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

type courseResponse struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreditHours int     `json:"creditHours"`
	IsActive    bool    `json:"isActive"`
}

func mapCourse(course model.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Code:        course.Code,
		Name:        course.Name,
		Description: course.Description,
		CreditHours: course.CreditHours,
		IsActive:    course.IsActive,
	}
}

func mapCourses(courses []model.Course) []courseResponse {
	resp := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, mapCourse(course))
	}
	return resp
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListCourses(r.Context())
	if err != nil {
		s.serverError(w, r, "listing courses", err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourses(courses))
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	course, err := s.store.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.serverError(w, r, "getting course", err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourse(course))
}

type createCourseRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreditHours int     `json:"creditHours"`
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" || req.CreditHours <= 0 {
		writeError(w, http.StatusBadRequest, "code, name and a positive creditHours are required")
		return
	}

	course := model.Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		CreditHours: req.CreditHours,
		IsActive:    true,
	}
	if err := s.store.CreateCourse(r.Context(), &course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "course code is already in use")
			return
		}
		s.serverError(w, r, "creating course", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCourse(course))
}

type updateCourseRequest struct {
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	CreditHours int     `json:"creditHours"`
	IsActive    bool    `json:"isActive"`
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req updateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := s.store.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.serverError(w, r, "getting course", err)
		return
	}

	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.CreditHours > 0 {
		course.CreditHours = req.CreditHours
	}
	course.IsActive = req.IsActive

	if err := s.store.UpdateCourse(r.Context(), course); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.serverError(w, r, "updating course", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	if err := s.store.DeleteCourse(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.serverError(w, r, "deleting course", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCourseStudents(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	if _, err := s.store.GetCourse(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		s.serverError(w, r, "getting course", err)
		return
	}

	students, err := s.store.ListCourseStudents(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "listing course students", err)
		return
	}
	writeJSON(w, http.StatusOK, mapStudents(students))
}
