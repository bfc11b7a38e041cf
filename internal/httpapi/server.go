// Package httpapi exposes the JSON API: the anonymous auth endpoints and the
// policy-gated CRUD routes for students, courses and timetables.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/auth"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/config"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/service"
)

// Store is the persistence surface the handlers need. *repository.Store
// satisfies it.
type Store interface {
	ListStudents(ctx context.Context) ([]model.Student, error)
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	CreateStudent(ctx context.Context, student *model.Student) error
	UpdateStudent(ctx context.Context, student model.Student) error
	DeleteStudent(ctx context.Context, id int64) error
	ListStudentCourses(ctx context.Context, studentID int64) ([]model.Course, error)
	ReplaceStudentEnrollments(ctx context.Context, studentID int64, courseIDs []int64) error
	MissingCourseIDs(ctx context.Context, ids []int64) ([]int64, error)

	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, id int64) (model.Course, error)
	CreateCourse(ctx context.Context, course *model.Course) error
	UpdateCourse(ctx context.Context, course model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	ListCourseStudents(ctx context.Context, courseID int64) ([]model.Student, error)

	ListTimetableSlots(ctx context.Context, academicYear string) ([]model.TimetableSlot, error)
	GetTimetableSlot(ctx context.Context, id int64) (model.TimetableSlot, error)
	CreateTimetableSlot(ctx context.Context, slot *model.TimetableSlot) error
	UpdateTimetableSlot(ctx context.Context, slot model.TimetableSlot) error
	DeleteTimetableSlot(ctx context.Context, id int64) error
}

type Server struct {
	cfg    config.Config
	authn  *service.Authenticator
	store  Store
	cache  *redis.Client
	logger *slog.Logger
}

// NewServer wires the handlers. cache may be nil; timetable reads then skip
// the cache and go straight to the store.
func NewServer(cfg config.Config, authn *service.Authenticator, store Store, cache *redis.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		authn:  authn,
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Anonymous by design; everything else goes through the policy gate.
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Route("/students", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requirePolicy(auth.PolicyAdminOrStaff))
			r.Get("/", s.handleListStudents)
			r.Post("/", s.handleCreateStudent)
			r.Get("/{id}", s.handleGetStudent)
			r.Put("/{id}", s.handleUpdateStudent)
			r.Delete("/{id}", s.handleDeleteStudent)
			r.Get("/{id}/courses", s.handleGetStudentCourses)
			r.Post("/{id}/courses", s.handleAssignStudentCourses)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.With(s.requirePolicy(auth.PolicyAdminOrStaff)).Get("/", s.handleListCourses)
			r.With(s.requirePolicy(auth.PolicyAdminOrStaff)).Post("/", s.handleCreateCourse)
			r.With(s.requirePolicy(auth.PolicyAdminOrStaff)).Get("/{id}", s.handleGetCourse)
			r.With(s.requirePolicy(auth.PolicyAdminOrStaff)).Put("/{id}", s.handleUpdateCourse)
			r.With(s.requirePolicy(auth.PolicyAdminOrStaff)).Delete("/{id}", s.handleDeleteCourse)
			r.With(s.requirePolicy(auth.PolicyAdminOnly)).Get("/{id}/students", s.handleGetCourseStudents)
		})

		r.Route("/timetables", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requirePolicy(auth.PolicyAdminOrStaff))
			r.Get("/", s.handleListTimetableSlots)
			r.Post("/", s.handleCreateTimetableSlot)
			r.Get("/{id}", s.handleGetTimetableSlot)
			r.Put("/{id}", s.handleUpdateTimetableSlot)
			r.Delete("/{id}", s.handleDeleteTimetableSlot)
		})
	})

	return r
}

// Auth middleware

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), s.cfg.JWTIssuer, s.cfg.JWTAudience, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePolicy gates a route on the token's role claim. It runs after
// authMiddleware, so a missing claim set means a wiring bug and is treated
// as forbidden.
func (s *Server) requirePolicy(policy auth.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil || !policy.Allows(model.Role(claims.Role)) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JSON helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
