package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/liqtags/relaychat/internal/archive"
	"github.com/liqtags/relaychat/internal/config"
	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/hub"
	"github.com/liqtags/relaychat/internal/presence"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/internal/service"
	"github.com/liqtags/relaychat/pkg/jwt"
	"github.com/liqtags/relaychat/pkg/middleware"
	"github.com/liqtags/relaychat/pkg/storage"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.UserModel{}, &domain.TodoModel{}, &domain.FileModel{}))

	tokens, err := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour, "relaychat-test")
	require.NoError(t, err)

	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	todoRepo := repository.NewGormTodoRepository(db)
	fileRepo := repository.NewGormFileRepository(db)

	authSvc := service.NewAuthService(userRepo, tokens)
	todoSvc := service.NewTodoService(todoRepo)
	fileSvc := service.NewFileService(fileRepo, store)

	chatHub := hub.New(100)
	registry := presence.NewLocalRegistry()

	r := gin.New()
	RegisterRoutes(r,
		NewAuthHandler(authSvc),
		NewTodoHandler(todoSvc),
		NewFileHandler(fileSvc),
		NewWSHandler(chatHub, registry, archive.Disabled{}, config.WebSocketConfig{
			PingInterval: 30 * time.Second, PongWait: 60 * time.Second,
			WriteWait: 5 * time.Second, MaxMessageSize: 4096,
		}),
		NewSystemHandler(chatHub, registry),
		middleware.NewAuthMiddleware(tokens),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, apiEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var env apiEnvelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func registerUser(t *testing.T, srv *httptest.Server, username string) *domain.AuthResponse {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth domain.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return &auth
}

func TestAPI_RegisterLoginMe(t *testing.T) {
	srv := newAPIServer(t)

	auth := registerUser(t, srv, "alice")
	assert.Equal(t, "alice", auth.User.Username)
	assert.NotEmpty(t, auth.AccessToken)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me domain.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestAPI_RegisterDuplicateConflicts(t *testing.T) {
	srv := newAPIServer(t)
	registerUser(t, srv, "alice")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestAPI_LoginBadPassword(t *testing.T) {
	srv := newAPIServer(t)
	registerUser(t, srv, "alice")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_MeRequiresAuth(t *testing.T) {
	srv := newAPIServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RefreshAndLogout(t *testing.T) {
	srv := newAPIServer(t)
	auth := registerUser(t, srv, "alice")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", gin.H{
		"refresh_token": auth.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", auth.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The old access token no longer works.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", auth.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_TodoCRUD(t *testing.T) {
	srv := newAPIServer(t)
	auth := registerUser(t, srv, "alice")
	token := auth.AccessToken

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/todos", token, gin.H{
		"title": "write tests",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var todo domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.Equal(t, "write tests", todo.Title)
	assert.False(t, todo.Completed)

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/todos", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	// Partial update: only completed changes.
	resp, env = doJSON(t, http.MethodPut, srv.URL+"/api/todos/1", token, gin.H{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.Equal(t, "write tests", todo.Title)
	assert.True(t, todo.Completed)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/todos/1", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/todos/1", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_TodosAreUserScoped(t *testing.T) {
	srv := newAPIServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/todos", alice.AccessToken, gin.H{
		"title": "alice's task",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var todo domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))

	// Bob cannot see or delete Alice's todo.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/todos/1", bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/todos/1", bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/todos", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)
}

func TestAPI_FileUploadDownload(t *testing.T) {
	srv := newAPIServer(t)
	auth := registerUser(t, srv, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello from the upload test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var meta domain.FileMetadata
	require.NoError(t, json.Unmarshal(env.Data, &meta))
	assert.Equal(t, "notes.txt", meta.Filename)
	assert.EqualValues(t, 26, meta.Size)

	// Downloads are public and stream the stored bytes back.
	dlResp, err := http.Get(srv.URL + "/api/files/" + meta.ID)
	require.NoError(t, err)
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)

	body, err := io.ReadAll(dlResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello from the upload test", string(body))
}

func TestAPI_FileUploadRequiresAuth(t *testing.T) {
	srv := newAPIServer(t)

	resp, err := http.Post(srv.URL+"/api/files", "multipart/form-data", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Health(t *testing.T) {
	srv := newAPIServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
