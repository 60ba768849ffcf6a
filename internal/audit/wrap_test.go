package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/middleware"
	"github.com/yefosr/cms-backend/internal/models"
)

func adminRequest(method, path string, id uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	return r.WithContext(middleware.WithAdmin(r.Context(), id))
}

func TestWithAudit_Unauthorized(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	handlerRan := false
	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}, Options{Action: models.ActionUpdate, ResourceType: models.ResourceProgram})

	// No admin in context: the wrapper rejects before the handler runs and
	// writes nothing to the store.
	rr := httptest.NewRecorder()
	wrapped(rr, httptest.NewRequest("PUT", "/api/admin/programs/1", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if handlerRan {
		t.Error("handler ran despite missing session")
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "unauthorized" {
		t.Errorf("unexpected body: %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_RecordsSuccess(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("POST", "/api/admin/programs", adminID)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "create", "program", "p-7", nil, []byte(`{"id":"p-7","title":"Tutoring"}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"p-7","title":"Tutoring"}`))
	}, Options{
		Action:       models.ActionCreate,
		ResourceType: models.ResourceProgram,
		ResourceID: func(r *http.Request, result json.RawMessage) string {
			var out struct {
				ID string `json:"id"`
			}
			json.Unmarshal(result, &out)
			return out.ID
		},
	})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != `{"id":"p-7","title":"Tutoring"}` {
		t.Errorf("response altered: %q", rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_PreviousData(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("PUT", "/api/admin/programs/p-7", adminID)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "update", "program", nil, []byte(`{"title":"old"}`), []byte(`{"title":"new"}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	fetched := false
	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		if !fetched {
			t.Error("handler ran before previous data fetch")
		}
		w.Write([]byte(`{"title":"new"}`))
	}, Options{
		Action:       models.ActionUpdate,
		ResourceType: models.ResourceProgram,
		PreviousData: func(ctx context.Context, r *http.Request) (json.RawMessage, error) {
			fetched = true
			return json.RawMessage(`{"title":"old"}`), nil
		},
	})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_SkipOnError(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"program not found"}`))
	}, Options{
		Action:       models.ActionDelete,
		ResourceType: models.ResourceProgram,
		SkipOnError:  true,
	})

	rr := httptest.NewRecorder()
	wrapped(rr, adminRequest("DELETE", "/api/admin/programs/nope", adminID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	// No insert was expected; any write would fail expectations.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_RecordsFailureWithoutSkip(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("POST", "/api/admin/programs", adminID)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "create", "program", nil, nil, []byte(`{"error":"validation failed"}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"validation failed"}`))
	}, Options{Action: models.ActionCreate, ResourceType: models.ResourceProgram})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_UnparseableBody(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("POST", "/api/admin/programs", adminID)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "create", "program", nil, nil, []byte(`{"error":"failed to parse response"}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text, not json"))
	}, Options{Action: models.ActionCreate, ResourceType: models.ResourceProgram})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if rr.Body.String() != "plain text, not json" {
		t.Errorf("response altered: %q", rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_HandlerPanic(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("POST", "/api/admin/programs", adminID)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "create", "program", nil, nil, []byte(`{"error":"internal server error"}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, Options{Action: models.ActionCreate, ResourceType: models.ResourceProgram})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithAudit_CallbackPanicGuard(t *testing.T) {
	l, mock, closeDB := testLogger(t)
	defer closeDB()

	adminID := uuid.New()
	req := adminRequest("POST", "/api/admin/programs", adminID)

	// ResourceID panics; the record is still written with an empty id.
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "create", "program", nil, nil, []byte(`{"ok":true}`), req.RemoteAddr, "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	wrapped := l.WithAudit(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}, Options{
		Action:       models.ActionCreate,
		ResourceType: models.ResourceProgram,
		ResourceID: func(r *http.Request, result json.RawMessage) string {
			panic("derivation bug")
		},
	})

	rr := httptest.NewRecorder()
	wrapped(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
