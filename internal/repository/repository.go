// Package repository implements the PostgreSQL store behind the API.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// Users

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, COALESCE(email, ''), COALESCE(full_name, ''), password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return model.User{}, mapError(err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, COALESCE(email, ''), COALESCE(full_name, ''), password_hash, role, created_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return model.User{}, mapError(err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, password_hash, role)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
		RETURNING id, created_at
	`, user.Username, user.Email, user.FullName, user.PasswordHash, user.Role)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

// Students

const studentColumns = `id, student_id, first_name, last_name, date_of_birth, gender, address, email, phone, registration_date, is_active`

func scanStudent(row pgx.Row) (model.Student, error) {
	var student model.Student
	err := row.Scan(
		&student.ID,
		&student.StudentID,
		&student.FirstName,
		&student.LastName,
		&student.DateOfBirth,
		&student.Gender,
		&student.Address,
		&student.Email,
		&student.Phone,
		&student.RegistrationDate,
		&student.IsActive,
	)
	if err != nil {
		return model.Student{}, mapError(err)
	}
	return student, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (s *Store) CreateStudent(ctx context.Context, student *model.Student) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO students (student_id, first_name, last_name, date_of_birth, gender, address, email, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, registration_date
	`, student.StudentID, student.FirstName, student.LastName, student.DateOfBirth, student.Gender,
		student.Address, student.Email, student.Phone, student.IsActive)
	if err := row.Scan(&student.ID, &student.RegistrationDate); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateStudent(ctx context.Context, student model.Student) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students
		SET student_id = $1, first_name = $2, last_name = $3, date_of_birth = $4, gender = $5,
		    address = $6, email = $7, phone = $8, is_active = $9
		WHERE id = $10
	`, student.StudentID, student.FirstName, student.LastName, student.DateOfBirth, student.Gender,
		student.Address, student.Email, student.Phone, student.IsActive, student.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListStudentCourses(ctx context.Context, studentID int64) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.code, c.name, c.description, c.credit_hours, c.is_active
		FROM student_courses sc
		JOIN courses c ON c.id = sc.course_id
		WHERE sc.student_id = $1
		ORDER BY c.id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCourses(rows)
}

// ReplaceStudentEnrollments swaps the student's course assignments for the
// given set inside a single transaction.
func (s *Store) ReplaceStudentEnrollments(ctx context.Context, studentID int64, courseIDs []int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM student_courses WHERE student_id = $1`, studentID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, courseID := range courseIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO student_courses (student_id, course_id, enrolled_at)
			VALUES ($1, $2, $3)
		`, studentID, courseID, now); err != nil {
			return mapError(err)
		}
	}
	return tx.Commit(ctx)
}

// MissingCourseIDs returns the subset of ids with no matching course row.
func (s *Store) MissingCourseIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM courses WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Courses

func collectCourses(rows pgx.Rows) ([]model.Course, error) {
	courses := make([]model.Course, 0)
	for rows.Next() {
		var course model.Course
		if err := rows.Scan(&course.ID, &course.Code, &course.Name, &course.Description, &course.CreditHours, &course.IsActive); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, description, credit_hours, is_active
		FROM courses
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCourses(rows)
}

func (s *Store) GetCourse(ctx context.Context, id int64) (model.Course, error) {
	var course model.Course
	row := s.pool.QueryRow(ctx, `
		SELECT id, code, name, description, credit_hours, is_active
		FROM courses
		WHERE id = $1
	`, id)
	err := row.Scan(&course.ID, &course.Code, &course.Name, &course.Description, &course.CreditHours, &course.IsActive)
	if err != nil {
		return model.Course{}, mapError(err)
	}
	return course, nil
}

func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO courses (code, name, description, credit_hours, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, course.Code, course.Name, course.Description, course.CreditHours, course.IsActive)
	if err := row.Scan(&course.ID); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateCourse(ctx context.Context, course model.Course) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE courses
		SET code = $1, name = $2, description = $3, credit_hours = $4, is_active = $5
		WHERE id = $6
	`, course.Code, course.Name, course.Description, course.CreditHours, course.IsActive, course.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCourseStudents(ctx context.Context, courseID int64) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.student_id, s.first_name, s.last_name, s.date_of_birth, s.gender,
		       s.address, s.email, s.phone, s.registration_date, s.is_active
		FROM student_courses sc
		JOIN students s ON s.id = sc.student_id
		WHERE sc.course_id = $1
		ORDER BY s.id
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// Timetable

func scanTimetableSlot(row pgx.Row) (model.TimetableSlot, error) {
	var slot model.TimetableSlot
	var start, end pgtype.Time
	err := row.Scan(
		&slot.ID,
		&slot.CourseID,
		&slot.CourseName,
		&slot.DayOfWeek,
		&start,
		&end,
		&slot.RoomNumber,
		&slot.AcademicYear,
		&slot.Semester,
	)
	if err != nil {
		return model.TimetableSlot{}, mapError(err)
	}
	slot.StartTime = formatTimeOfDay(start)
	slot.EndTime = formatTimeOfDay(end)
	return slot, nil
}

const timetableQuery = `
	SELECT t.id, t.course_id, c.name, t.day_of_week, t.start_time, t.end_time,
	       t.room_number, t.academic_year, t.semester
	FROM timetable_slots t
	JOIN courses c ON c.id = t.course_id
`

// ListTimetableSlots returns all slots, or only those for the given
// academic year when one is provided.
func (s *Store) ListTimetableSlots(ctx context.Context, academicYear string) ([]model.TimetableSlot, error) {
	query := timetableQuery
	args := []any{}
	if academicYear != "" {
		query += ` WHERE t.academic_year = $1`
		args = append(args, academicYear)
	}
	query += ` ORDER BY t.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]model.TimetableSlot, 0)
	for rows.Next() {
		slot, err := scanTimetableSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) GetTimetableSlot(ctx context.Context, id int64) (model.TimetableSlot, error) {
	row := s.pool.QueryRow(ctx, timetableQuery+` WHERE t.id = $1`, id)
	return scanTimetableSlot(row)
}

func (s *Store) CreateTimetableSlot(ctx context.Context, slot *model.TimetableSlot) error {
	start, err := parseTimeOfDay(slot.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTimeOfDay(slot.EndTime)
	if err != nil {
		return err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO timetable_slots (course_id, day_of_week, start_time, end_time, room_number, academic_year, semester)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, slot.CourseID, slot.DayOfWeek, start, end, slot.RoomNumber, slot.AcademicYear, slot.Semester)
	if err := row.Scan(&slot.ID); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateTimetableSlot(ctx context.Context, slot model.TimetableSlot) error {
	start, err := parseTimeOfDay(slot.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTimeOfDay(slot.EndTime)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE timetable_slots
		SET course_id = $1, day_of_week = $2, start_time = $3, end_time = $4,
		    room_number = $5, academic_year = $6, semester = $7
		WHERE id = $8
	`, slot.CourseID, slot.DayOfWeek, start, end, slot.RoomNumber, slot.AcademicYear, slot.Semester, slot.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTimetableSlot(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTimeOfDay(t pgtype.Time) string {
	total := t.Microseconds / 1_000_000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func parseTimeOfDay(value string) (pgtype.Time, error) {
	parsed, err := time.Parse("15:04:05", value)
	if err != nil {
		return pgtype.Time{}, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	seconds := int64(parsed.Hour())*3600 + int64(parsed.Minute())*60 + int64(parsed.Second())
	return pgtype.Time{Microseconds: seconds * 1_000_000, Valid: true}, nil
}
