package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"firepm/internal/database"
	"firepm/internal/domain/auth"
	"firepm/internal/domain/media"
	"firepm/internal/domain/project"
	"firepm/internal/middleware"
	jwtsvc "firepm/internal/pkg/jwt"
)

// memStore is an in-memory stand-in for the S3 client.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memStore) Remove(_ context.Context, bucket string, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, bucket+"/"+k)
	}
	return nil
}

func (m *memStore) SignedURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key, nil
}

func (m *memStore) PublicURL(bucket, key string) string {
	return "https://public.example/" + bucket + "/" + key
}

func (m *memStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok, nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	store      *memStore
	jwtService *jwtsvc.Service
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&auth.User{},
		&project.Project{},
		&media.File{},
		&media.FileVersion{},
	))

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	store := newMemStore()

	userRepo := auth.NewRepository(db)
	projectRepo := project.NewRepository(db)
	mediaRepo := media.NewRepository(db)

	authHandler := auth.NewHandler(auth.NewService(userRepo, jwtService))
	projectHandler := project.NewHandler(projectRepo)
	mediaService := media.NewService(mediaRepo, projectRepo, userRepo, store, "project-media", time.Hour)
	mediaHandler := media.NewHandler(mediaService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	auth.RegisterRoutes(v1, authHandler)

	protected := v1.Group("")
	protected.Use(middleware.Auth(jwtService))
	{
		project.RegisterRoutes(protected, projectHandler)
		media.RegisterRoutes(protected, mediaHandler)
	}

	return &E2ETestSuite{router: r, db: db, store: store, jwtService: jwtService}
}

func (s *E2ETestSuite) createUser(t *testing.T, email, role string) (int64, string) {
	t.Helper()
	u := &auth.User{Email: email, PasswordHash: "$2a$10$dummy", Role: role, FullName: "Test " + role}
	require.NoError(t, s.db.Create(u).Error)
	token, err := s.jwtService.GenerateToken(u.ID, role)
	require.NoError(t, err)
	return u.ID, token
}

func (s *E2ETestSuite) createProject(t *testing.T, id int64, status int, clientID *int64) {
	t.Helper()
	p := &project.Project{ID: id, Name: fmt.Sprintf("Project %d", id), Status: status, ClientID: clientID}
	require.NoError(t, s.db.Create(p).Error)
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

func dataURI(contentType string, payload []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestMediaVersioningFlow(t *testing.T) {
	s := setupTestSuite(t)
	_, staffToken := s.createUser(t, "staff@test.com", auth.RoleStaff)
	s.createProject(t, 42, project.StatusActive, nil)

	// First upload: version 1.
	w := s.makeRequest("POST", "/api/v1/media", gin.H{
		"media_data":      dataURI("application/pdf", []byte("revision one")),
		"file_name":       "site plan.pdf",
		"project_id":      42,
		"target_location": "documents",
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	assert.Equal(t, float64(1), resp.Data["version_number"])
	assert.Equal(t, true, resp.Data["is_current_version"])
	assert.Equal(t, "project-media", resp.Data["bucket_name"])
	assert.Regexp(t, regexp.MustCompile(`^42/documents/\d+-site_plan\.pdf$`), resp.Data["file_path"])
	assert.NotEmpty(t, resp.Data["public_url"])
	firstID := int64(resp.Data["id"].(float64))

	// Same name again: version 2 linked to version 1.
	w = s.makeRequest("POST", "/api/v1/media", gin.H{
		"media_data":      dataURI("application/pdf", []byte("revision two")),
		"file_name":       "site plan.pdf",
		"project_id":      42,
		"target_location": "documents",
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp = parseResponse(t, w)
	assert.Equal(t, float64(2), resp.Data["version_number"])
	assert.Equal(t, float64(firstID), resp.Data["previous_version_id"])
	secondID := int64(resp.Data["id"].(float64))

	// The superseded row was archived.
	w = s.makeRequest("GET", fmt.Sprintf("/api/v1/media/%d/versions", secondID), nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version_number":1`)

	// Both blobs remain in storage.
	assert.Equal(t, 2, s.store.len())
}

func TestMediaVisibilityForClient(t *testing.T) {
	s := setupTestSuite(t)
	clientID, clientToken := s.createUser(t, "client@test.com", auth.RoleClient)
	_, staffToken := s.createUser(t, "staff@test.com", auth.RoleStaff)

	// Status >= contract means uploads default to private.
	s.createProject(t, 7, project.StatusContract, &clientID)

	w := s.makeRequest("POST", "/api/v1/media", gin.H{
		"media_data":      dataURI("application/pdf", []byte("signed contract")),
		"file_name":       "contract.pdf",
		"project_id":      7,
		"target_location": "contracts",
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Staff sees the file.
	w = s.makeRequest("GET", "/api/v1/media?project_id=7", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contract.pdf")

	// Client does not.
	w = s.makeRequest("GET", "/api/v1/media?project_id=7", nil, clientToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "contract.pdf")
}

func TestFeaturedImageFlow(t *testing.T) {
	s := setupTestSuite(t)
	_, staffToken := s.createUser(t, "staff@test.com", auth.RoleStaff)
	s.createProject(t, 3, project.StatusActive, nil)

	w := s.makeRequest("POST", "/api/v1/media", gin.H{
		"media_data":      dataURI("image/jpeg", []byte("jpeg bytes")),
		"file_name":       "hero.jpg",
		"project_id":      3,
		"target_location": "project",
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := int64(parseResponse(t, w).Data["id"].(float64))

	w = s.makeRequest("PUT", "/api/v1/media/featured", gin.H{
		"project_id": 3,
		"file_id":    fileID,
		"is_active":  true,
	}, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.makeRequest("GET", "/api/v1/media?media_type=featuredImage&project_id=3", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hero.jpg")
	assert.Contains(t, w.Body.String(), "https://signed.example/")
}

func TestDeleteMediaRemovesBlobAndRow(t *testing.T) {
	s := setupTestSuite(t)
	_, staffToken := s.createUser(t, "staff@test.com", auth.RoleStaff)
	s.createProject(t, 5, project.StatusActive, nil)

	w := s.makeRequest("POST", "/api/v1/media", gin.H{
		"media_data":      dataURI("application/pdf", []byte("minutes")),
		"file_name":       "minutes.pdf",
		"project_id":      5,
		"target_location": "discussions",
	}, staffToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := int64(parseResponse(t, w).Data["id"].(float64))
	require.Equal(t, 1, s.store.len())

	w = s.makeRequest("DELETE", fmt.Sprintf("/api/v1/media/%d", fileID), nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, s.store.len())

	w = s.makeRequest("GET", fmt.Sprintf("/api/v1/media?file_id=%d", fileID), nil, staffToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := setupTestSuite(t)

	w := s.makeRequest("POST", "/api/v1/auth/register", gin.H{
		"email":     "owner@example.com",
		"password":  "hunter2secret",
		"full_name": "Dana Whitfield",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.makeRequest("POST", "/api/v1/auth/login", gin.H{
		"email":    "owner@example.com",
		"password": "hunter2secret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data["token"])
}
