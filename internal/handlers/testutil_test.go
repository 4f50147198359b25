package handlers

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/porty/backend/internal/config"
	"github.com/porty/backend/internal/database"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/internal/services"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *fakeStore
}

// fakeStore keeps uploaded objects in memory. Setting failDelete simulates
// an unreachable object store.
type fakeStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete bool
	deletes    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectName] = data
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, objectName)
	if f.failDelete {
		return errors.New("object store unavailable")
	}
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStore) ObjectURL(objectName string) string {
	return "http://test-store.local/porty-media/" + objectName
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	store := newFakeStore()
	auditService := services.NewAuditService(db)

	uploadCfg := config.UploadConfig{
		MaxImageBytes: 10 * 1024 * 1024,
		MaxVideoBytes: 50 * 1024 * 1024,
	}

	authHandler := NewAuthHandler(db, auditService)
	portfolioHandler := NewPortfolioHandler(db)
	projectsHandler := NewProjectsHandler(db, store, auditService, uploadCfg)
	adminHandler := NewAdminHandler(db, store, auditService)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 64 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3000", "mysite.com"))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	app.Use(middleware.Tenant("mysite.com"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.RejectBase64, authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Get("/check-subdomain/:subdomain", authHandler.CheckSubdomain)

	api.Get("/public/portfolio", portfolioHandler.GetPublicByHost)

	portfolioRoutes := api.Group("/portfolio")
	portfolioRoutes.Get("/me", authMiddleware.RequireAuth, portfolioHandler.GetMine)
	portfolioRoutes.Put("/me", authMiddleware.RequireAuth, middleware.RejectBase64, portfolioHandler.UpdateMine)
	portfolioRoutes.Get("/:subdomain", portfolioHandler.GetPublic)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Get("/me", projectsHandler.ListMine)
	projectRoutes.Post("/upload/image", projectsHandler.UploadImage)
	projectRoutes.Post("/upload/video", projectsHandler.UploadVideo)
	projectRoutes.Post("/external", middleware.RejectBase64, projectsHandler.AddExternal)
	projectRoutes.Put("/reorder", middleware.RejectBase64, projectsHandler.Reorder)
	projectRoutes.Get("/:id", projectsHandler.Get)
	projectRoutes.Put("/:id", middleware.RejectBase64, projectsHandler.Update)
	projectRoutes.Delete("/:id", projectsHandler.Delete)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/stats", adminHandler.Stats)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Get("/user/:id", adminHandler.GetUser)
	adminRoutes.Put("/user/:id/suspend", adminHandler.SuspendUser)
	adminRoutes.Put("/user/:id/unsuspend", adminHandler.UnsuspendUser)
	adminRoutes.Put("/user/:id/template", adminHandler.ChangeTemplate)
	adminRoutes.Delete("/user/:id", adminHandler.DeleteUser)

	return &testEnv{app: app, db: db, store: store}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password, subdomain string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Subdomain:    subdomain,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestPortfolio(t *testing.T, db *gorm.DB, user *models.User) *models.Portfolio {
	t.Helper()

	portfolio := models.NewPortfolio(user.ID)
	if err := db.Create(&portfolio).Error; err != nil {
		t.Fatalf("failed creating test portfolio: %v", err)
	}
	return &portfolio
}

func createTestProject(t *testing.T, db *gorm.DB, user *models.User, title string, order int) *models.Project {
	t.Helper()

	project := &models.Project{
		UserID:       user.ID,
		Title:        title,
		MediaType:    models.MediaTypeImage,
		MediaURL:     "http://test-store.local/porty-media/" + title + ".png",
		Tags:         []string{},
		DisplayOrder: order,
		IsVisible:    true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed creating test project: %v", err)
	}
	return project
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performUpload posts a multipart body with a single file field plus the
// given form values.
func performUpload(t *testing.T, app *fiber.App, path, filename, contentType string, content []byte, form map[string]string, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	boundary := "testboundary42"

	writePart := func(header, body string) {
		fmt.Fprintf(&buf, "--%s\r\n%s\r\n\r\n%s\r\n", boundary, header, body)
	}

	for key, value := range form {
		writePart(fmt.Sprintf("Content-Disposition: form-data; name=%q", key), value)
	}
	fmt.Fprintf(&buf, "--%s\r\nContent-Disposition: form-data; name=\"file\"; filename=%q\r\nContent-Type: %s\r\n\r\n", boundary, filename, contentType)
	buf.Write(content)
	fmt.Fprintf(&buf, "\r\n--%s--\r\n", boundary)

	requestHeaders := map[string]string{
		"Content-Type": "multipart/form-data; boundary=" + boundary,
	}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
