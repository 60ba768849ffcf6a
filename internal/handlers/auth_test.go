package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/audit"
	"github.com/yefosr/cms-backend/internal/middleware"
	"github.com/yefosr/cms-backend/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

func authHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &AuthHandler{
		Admins:      repo.NewAdminRepo(db),
		Auditor:     audit.NewLogger(repo.NewAuditRepo(db), discardLog),
		Secret:      []byte("test-secret"),
		ExpireHours: 24,
		Log:         discardLog,
	}
	return h, mock, func() { db.Close() }
}

func TestAuthHandler_Login(t *testing.T) {
	h, mock, closeDB := authHandler(t)
	defer closeDB()

	adminID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mock.ExpectQuery(`SELECT id, name, email, password_hash, role, created_at FROM admins WHERE email = \$1`).
		WithArgs("ada@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(adminID.String(), "Ada", "ada@example.org", string(hash), "admin", time.Now()))
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "login", "user", adminID.String(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	body, _ := json.Marshal(map[string]string{"email": "ada@example.org", "password": "hunter2"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	token, err := jwt.Parse(out.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["admin_id"] != adminID.String() {
		t.Errorf("admin_id claim: got %v, want %s", claims["admin_id"], adminID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	h, mock, closeDB := authHandler(t)
	defer closeDB()

	adminID := uuid.New()
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)

	mock.ExpectQuery(`SELECT id, name, email, password_hash, role, created_at FROM admins WHERE email = \$1`).
		WithArgs("ada@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(adminID.String(), "Ada", "ada@example.org", string(hash), "admin", time.Now()))

	body, _ := json.Marshal(map[string]string{"email": "ada@example.org", "password": "wrong"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	// Failed attempts are not audited.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h, mock, closeDB := authHandler(t)
	defer closeDB()

	adminID := uuid.New()
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(adminID, "logout", "user", adminID.String(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req = req.WithContext(middleware.WithAdmin(req.Context(), adminID))
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
