package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

type studentResponse struct {
	ID               int64     `json:"id"`
	StudentID        string    `json:"studentId"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	DateOfBirth      time.Time `json:"dateOfBirth"`
	Gender           string    `json:"gender"`
	Address          *string   `json:"address,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	RegistrationDate time.Time `json:"registrationDate"`
	IsActive         bool      `json:"isActive"`
}

func mapStudent(student model.Student) studentResponse {
	return studentResponse{
		ID:               student.ID,
		StudentID:        student.StudentID,
		FirstName:        student.FirstName,
		LastName:         student.LastName,
		DateOfBirth:      student.DateOfBirth,
		Gender:           student.Gender,
		Address:          student.Address,
		Email:            student.Email,
		Phone:            student.Phone,
		RegistrationDate: student.RegistrationDate,
		IsActive:         student.IsActive,
	}
}

func mapStudents(students []model.Student) []studentResponse {
	resp := make([]studentResponse, 0, len(students))
	for _, student := range students {
		resp = append(resp, mapStudent(student))
	}
	return resp
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		s.serverError(w, r, "listing students", err)
		return
	}
	writeJSON(w, http.StatusOK, mapStudents(students))
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "getting student", err)
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(student))
}

type createStudentRequest struct {
	StudentID   string    `json:"studentId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Gender      string    `json:"gender"`
	Address     *string   `json:"address,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" || req.FirstName == "" || req.LastName == "" || req.DateOfBirth.IsZero() {
		writeError(w, http.StatusBadRequest, "studentId, firstName, lastName and dateOfBirth are required")
		return
	}
	gender := req.Gender
	if gender == "" {
		gender = "Unknown"
	}

	student := model.Student{
		StudentID:   req.StudentID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Gender:      gender,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		IsActive:    true,
	}
	if err := s.store.CreateStudent(r.Context(), &student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "student id is already in use")
			return
		}
		s.serverError(w, r, "creating student", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapStudent(student))
}

type updateStudentRequest struct {
	StudentID   *string   `json:"studentId,omitempty"`
	FirstName   *string   `json:"firstName,omitempty"`
	LastName    *string   `json:"lastName,omitempty"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Gender      *string   `json:"gender,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	IsActive    bool      `json:"isActive"`
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req updateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "getting student", err)
		return
	}

	if req.StudentID != nil {
		student.StudentID = *req.StudentID
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if !req.DateOfBirth.IsZero() {
		student.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Address != nil {
		student.Address = req.Address
	}
	if req.Email != nil {
		student.Email = req.Email
	}
	if req.Phone != nil {
		student.Phone = req.Phone
	}
	student.IsActive = req.IsActive

	if err := s.store.UpdateStudent(r.Context(), student); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "updating student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	if err := s.store.DeleteStudent(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "deleting student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStudentCourses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	if _, err := s.store.GetStudent(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "getting student", err)
		return
	}

	courses, err := s.store.ListStudentCourses(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "listing student courses", err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourses(courses))
}

func (s *Server) handleAssignStudentCourses(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var courseIDs []int64
	if err := decodeJSON(r, &courseIDs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.store.GetStudent(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		s.serverError(w, r, "getting student", err)
		return
	}

	missing, err := s.store.MissingCourseIDs(r.Context(), courseIDs)
	if err != nil {
		s.serverError(w, r, "validating course ids", err)
		return
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid course ids: %v", missing))
		return
	}

	if err := s.store.ReplaceStudentEnrollments(r.Context(), id, courseIDs); err != nil {
		s.serverError(w, r, "assigning courses", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
