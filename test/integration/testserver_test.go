package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moveout-labs/moveout-backend/internal/database"
	"github.com/moveout-labs/moveout-backend/internal/http/handler"
	"github.com/moveout-labs/moveout-backend/internal/http/router"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/repository"
	"github.com/moveout-labs/moveout-backend/internal/security"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

const testPassword = "valid pass 42"

type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// memStorage is an in-process stand-in for the MinIO-backed storage service
// so the API flow tests do not need an object store.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	counter int
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) UploadBoxMedia(_ context.Context, userID uint, file io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	key := fmt.Sprintf("media/user-%d/obj-%d", userID, s.counter)
	s.objects[key] = data
	return key, nil
}

func (s *memStorage) DeleteObject(_ context.Context, userID uint, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.HasPrefix(objectKey, fmt.Sprintf("media/user-%d/", userID)) {
		delete(s.objects, objectKey)
	}
	return nil
}

func (s *memStorage) GenerateObjectURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func (s *memStorage) DeleteUserObjects(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := fmt.Sprintf("media/user-%d/", userID)
	var removed int64
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memStorage) objectCount(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := fmt.Sprintf("media/user-%d/", userID)
	n := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n
}

type testEnv struct {
	db      *gorm.DB
	server  *httptest.Server
	storage *memStorage
	users   repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	boxes := repository.NewBoxRepository(db)
	contents := repository.NewBoxContentRepository(db)
	labels := repository.NewInsuranceLabelRepository(db)
	contacts := repository.NewContactRepository(db)
	sessions := repository.NewSessionRepository(db)
	creds := repository.NewLocalCredentialRepository(db)
	verifTokens := repository.NewVerificationTokenRepository(db)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := mailer.NewDevMailer(quiet)
	storage := newMemStorage()

	jwtMgr := security.NewJWTManager(
		"0123456789abcdef0123456789abcdef",
		"moveout-backend",
		"moveout-api",
		15*time.Minute,
	)
	authSvc := service.NewAuthService(users, creds, sessions, verifTokens, jwtMgr, mail,
		"integration-pepper", 15*time.Minute, 720*time.Hour, 48*time.Hour)
	activitySvc := service.NewActivityService(users)
	lifecycleSvc := service.NewLifecycleService(users, boxes, contents, labels, contacts, sessions, creds, verifTokens, storage, mail)
	boxSvc := service.NewBoxService(boxes, contents, labels, contacts, storage)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(authSvc),
		UserHandler:        handler.NewUserHandler(lifecycleSvc, activitySvc),
		AdminHandler:       handler.NewAdminHandler(lifecycleSvc),
		BoxHandler:         handler.NewBoxHandler(boxSvc, storage),
		JWTManager:         jwtMgr,
		CORSOrigins:        []string{"http://localhost:3000"},
		APIRateLimitRPM:    10000,
		AuthRateLimitRPM:   10000,
		ActivityRateWindow: time.Millisecond,
	})
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testEnv{db: db, server: server, storage: storage, users: users}
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, bearer string) (int, apiEnvelope) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

type userPayload struct {
	ID                 uint   `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	IsAdmin            bool   `json:"is_admin"`
	IsActive           bool   `json:"is_active"`
	LastActivity       string `json:"last_activity"`
	LastReminderSent   string `json:"last_reminder_sent"`
	DeactivatedAt      string `json:"deactivated_at"`
	DeactivationReason string `json:"deactivation_reason"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (e *testEnv) register(t *testing.T, email, name string) userPayload {
	t.Helper()
	status, env := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": email, "name": name, "password": testPassword,
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
	var u userPayload
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode registered user: %v", err)
	}
	return u
}

func (e *testEnv) login(t *testing.T, email string) (userPayload, tokenPayload) {
	t.Helper()
	status, env := e.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": testPassword,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
	var out struct {
		User   userPayload  `json:"user"`
		Tokens tokenPayload `json:"tokens"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}
	return out.User, out.Tokens
}

func (e *testEnv) uploadMedia(t *testing.T, boxID uint, token string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "label.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("type", "image"); err != nil {
		t.Fatalf("write type field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.server.URL+boxContentsPath(boxID), &buf)
	if err != nil {
		t.Fatalf("new upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("upload media: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload media: status %d", resp.StatusCode)
	}
}

func userPath(id uint) string           { return fmt.Sprintf("/api/v1/users/%d", id) }
func userActivationPath(id uint) string { return fmt.Sprintf("/api/v1/users/%d/activation", id) }
func adminStatusPath(id uint) string    { return fmt.Sprintf("/api/v1/admin/users/%d/admin", id) }
func boxContentsPath(id uint) string    { return fmt.Sprintf("/api/v1/boxes/%d/contents", id) }

func (e *testEnv) me(t *testing.T, token string) userPayload {
	t.Helper()
	status, env := e.doJSON(t, http.MethodGet, "/api/v1/me", nil, token)
	if status != http.StatusOK {
		t.Fatalf("me: status %d", status)
	}
	var u userPayload
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode me payload: %v", err)
	}
	return u
}
