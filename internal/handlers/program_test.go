package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

var programCols = []string{"id", "title", "description", "category", "image_url", "published", "created_at", "updated_at"}

func TestProgramHandler_CreateProgram(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO programs \(title, description, category, image_url, published\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING`).
		WithArgs("Tutoring", "After-school tutoring", "education", "", true).
		WillReturnRows(sqlmock.NewRows(programCols).
			AddRow(id.String(), "Tutoring", "After-school tutoring", "education", "", true, now, now))

	h := &ProgramHandler{Repo: repo.NewProgramRepo(db), Log: discardLog}

	body, _ := json.Marshal(map[string]interface{}{
		"title": "Tutoring", "description": "After-school tutoring", "category": "education", "published": true,
	})
	req := httptest.NewRequest("POST", "/api/admin/programs", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateProgram(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var out models.Program
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != id || out.Title != "Tutoring" {
		t.Errorf("unexpected program: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProgramHandler_CreateProgram_Invalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &ProgramHandler{Repo: repo.NewProgramRepo(db), Log: discardLog}

	// Title too short fails validation before any DB work.
	body, _ := json.Marshal(map[string]string{"title": "x"})
	rr := httptest.NewRecorder()
	h.CreateProgram(rr, httptest.NewRequest("POST", "/api/admin/programs", bytes.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProgramHandler_GetProgram_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, title, description, category, image_url, published, created_at, updated_at FROM programs WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	h := &ProgramHandler{Repo: repo.NewProgramRepo(db), Log: discardLog}

	req := requestWithChiURLParams("GET", "/api/admin/programs/"+id.String(), nil, map[string]string{"id": id.String()})
	rr := httptest.NewRecorder()
	h.GetProgram(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProgramHandler_DeleteProgram_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM programs WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := &ProgramHandler{Repo: repo.NewProgramRepo(db), Log: discardLog}

	req := requestWithChiURLParams("DELETE", "/api/admin/programs/"+id.String(), nil, map[string]string{"id": id.String()})
	rr := httptest.NewRecorder()
	h.DeleteProgram(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProgramHandler_ListPrograms_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM programs ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(programCols))

	h := &ProgramHandler{Repo: repo.NewProgramRepo(db), Log: discardLog}

	rr := httptest.NewRecorder()
	h.ListPrograms(rr, httptest.NewRequest("GET", "/api/admin/programs", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("empty list body: %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
