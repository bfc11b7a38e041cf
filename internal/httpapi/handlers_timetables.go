package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

const timetableCacheTTL = time.Minute

type timetableResponse struct {
	ID           int64   `json:"id"`
	CourseID     int64   `json:"courseId"`
	CourseName   string  `json:"courseName"`
	DayOfWeek    int     `json:"dayOfWeek"`
	DayName      string  `json:"dayName"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	RoomNumber   *string `json:"roomNumber,omitempty"`
	AcademicYear string  `json:"academicYear"`
	Semester     string  `json:"semester"`
}

func mapTimetableSlot(slot model.TimetableSlot) timetableResponse {
	return timetableResponse{
		ID:           slot.ID,
		CourseID:     slot.CourseID,
		CourseName:   slot.CourseName,
		DayOfWeek:    slot.DayOfWeek,
		DayName:      model.DayName(slot.DayOfWeek),
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		RoomNumber:   slot.RoomNumber,
		AcademicYear: slot.AcademicYear,
		Semester:     slot.Semester,
	}
}

func currentAcademicYear(now time.Time) string {
	return fmt.Sprintf("%d/%d", now.Year(), now.Year()+1)
}

func timetableCacheKey(academicYear string) string {
	if academicYear == "" {
		return "timetables:all"
	}
	return "timetables:year:" + academicYear
}

func (s *Server) cachedTimetableSlots(ctx context.Context, academicYear string) ([]model.TimetableSlot, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, timetableCacheKey(academicYear)).Bytes(); err == nil {
			var slots []model.TimetableSlot
			if err := json.Unmarshal(data, &slots); err == nil {
				return slots, nil
			}
		}
	}

	slots, err := s.store.ListTimetableSlots(ctx, academicYear)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(slots); err == nil {
			_ = s.cache.Set(ctx, timetableCacheKey(academicYear), data, timetableCacheTTL).Err()
		}
	}
	return slots, nil
}

func (s *Server) invalidateTimetableCache(ctx context.Context, academicYears ...string) {
	if s.cache == nil {
		return
	}
	keys := []string{timetableCacheKey("")}
	for _, year := range academicYears {
		if year != "" {
			keys = append(keys, timetableCacheKey(year))
		}
	}
	_ = s.cache.Del(ctx, keys...).Err()
}

func (s *Server) handleListTimetableSlots(w http.ResponseWriter, r *http.Request) {
	academicYear := ""
	if r.URL.Query().Get("current") == "true" {
		academicYear = currentAcademicYear(time.Now().UTC())
	}

	slots, err := s.cachedTimetableSlots(r.Context(), academicYear)
	if err != nil {
		s.serverError(w, r, "listing timetable slots", err)
		return
	}

	resp := make([]timetableResponse, 0, len(slots))
	for _, slot := range slots {
		resp = append(resp, mapTimetableSlot(slot))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTimetableSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timetable slot id")
		return
	}

	slot, err := s.store.GetTimetableSlot(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "timetable slot not found")
			return
		}
		s.serverError(w, r, "getting timetable slot", err)
		return
	}
	writeJSON(w, http.StatusOK, mapTimetableSlot(slot))
}

type timetableSlotRequest struct {
	CourseID     int64   `json:"courseId"`
	DayOfWeek    int     `json:"dayOfWeek"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	RoomNumber   *string `json:"roomNumber,omitempty"`
	AcademicYear string  `json:"academicYear"`
	Semester     string  `json:"semester"`
}

func (req *timetableSlotRequest) validate() error {
	if req.CourseID <= 0 {
		return errors.New("courseId is required")
	}
	if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
		return errors.New("dayOfWeek must be between 1 and 7")
	}
	if _, err := time.Parse("15:04:05", req.StartTime); err != nil {
		return errors.New("startTime must be formatted as HH:MM:SS")
	}
	if _, err := time.Parse("15:04:05", req.EndTime); err != nil {
		return errors.New("endTime must be formatted as HH:MM:SS")
	}
	if strings.TrimSpace(req.AcademicYear) == "" || strings.TrimSpace(req.Semester) == "" {
		return errors.New("academicYear and semester are required")
	}
	return nil
}

func (s *Server) handleCreateTimetableSlot(w http.ResponseWriter, r *http.Request) {
	var req timetableSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	course, err := s.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown course")
			return
		}
		s.serverError(w, r, "getting course", err)
		return
	}

	slot := model.TimetableSlot{
		CourseID:     req.CourseID,
		CourseName:   course.Name,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoomNumber:   req.RoomNumber,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.store.CreateTimetableSlot(r.Context(), &slot); err != nil {
		s.serverError(w, r, "creating timetable slot", err)
		return
	}

	s.invalidateTimetableCache(r.Context(), slot.AcademicYear)
	writeJSON(w, http.StatusCreated, mapTimetableSlot(slot))
}

func (s *Server) handleUpdateTimetableSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timetable slot id")
		return
	}

	var req timetableSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.GetTimetableSlot(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "timetable slot not found")
			return
		}
		s.serverError(w, r, "getting timetable slot", err)
		return
	}

	if _, err := s.store.GetCourse(r.Context(), req.CourseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown course")
			return
		}
		s.serverError(w, r, "getting course", err)
		return
	}

	slot := model.TimetableSlot{
		ID:           id,
		CourseID:     req.CourseID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoomNumber:   req.RoomNumber,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.store.UpdateTimetableSlot(r.Context(), slot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "timetable slot not found")
			return
		}
		s.serverError(w, r, "updating timetable slot", err)
		return
	}

	s.invalidateTimetableCache(r.Context(), existing.AcademicYear, slot.AcademicYear)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTimetableSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timetable slot id")
		return
	}

	existing, err := s.store.GetTimetableSlot(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "timetable slot not found")
			return
		}
		s.serverError(w, r, "getting timetable slot", err)
		return
	}

	if err := s.store.DeleteTimetableSlot(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "timetable slot not found")
			return
		}
		s.serverError(w, r, "deleting timetable slot", err)
		return
	}

	s.invalidateTimetableCache(r.Context(), existing.AcademicYear)
	w.WriteHeader(http.StatusNoContent)
}
