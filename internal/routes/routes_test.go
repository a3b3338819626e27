package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/config"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/metrics"
)

type server struct {
	t          *testing.T
	engine     *gin.Engine
	packageDir string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dataDir := t.TempDir()
	cfg := &config.Config{
		DataDir:         dataDir,
		PackageDir:      filepath.Join(dataDir, "apks"),
		JWTSecret:       "test-secret",
		TokenTTL:        24 * time.Hour,
		OwnerEmail:      "owner@example.com",
		OwnerPassword:   "ownerpw",
		MaxPackageBytes: 1 << 20,
		MaxIconBytes:    64 << 10,
	}
	db, err := database.Open(cfg.DataDir)
	require.NoError(t, err)
	require.NoError(t, database.SeedOwner(db, cfg, zap.NewNop()))
	files, err := filestore.NewLocal(cfg.PackageDir)
	require.NoError(t, err)

	r := gin.New()
	Register(r, Deps{DB: db, Files: files, Config: cfg, Log: zap.NewNop(), Metrics: metrics.New()})
	return &server{t: t, engine: r, packageDir: cfg.PackageDir}
}

func (s *server) do(req *http.Request, tok string) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (s *server) json(method, path, tok string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(s.t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, tok)
}

type upload struct {
	field, filename, contentType string
	body                         []byte
}

func (s *server) multipart(path, tok string, fields map[string]string, files ...upload) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(s.t, err)
		_, err = part.Write(f.body)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req, tok)
}

func (s *server) adminToken(email, password string) string {
	s.t.Helper()
	w, body := s.json(http.MethodPost, "/admin/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func (s *server) userToken() string {
	s.t.Helper()
	w, body := s.json(http.MethodPost, "/signup", "", map[string]any{
		"name": "Ana", "email": "ana@example.com", "phone": "555", "age": 31, "password": "pw",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func TestSignupLoginVerify(t *testing.T) {
	s := newServer(t)
	s.userToken()

	w, body := s.json(http.MethodPost, "/signup", "", map[string]any{"name": "X", "email": "ana@example.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = s.json(http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = s.json(http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	tok := body["token"].(string)

	_, body = s.do(httptest.NewRequest(http.MethodGet, "/api/verify?token="+url.QueryEscape(tok), nil), "")
	assert.Equal(t, true, body["loggedIn"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "Ana", body["name"])

	w, body = s.do(httptest.NewRequest(http.MethodGet, "/api/verify", nil), "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["loggedIn"])
}

func TestSignupWithFormBody(t *testing.T) {
	s := newServer(t)
	form := url.Values{"name": {"Bo"}, "email": {"bo@example.com"}, "age": {"40"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w, body := s.do(req, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["token"])
}

func TestAdminManagement(t *testing.T) {
	s := newServer(t)
	owner := s.adminToken("owner@example.com", "ownerpw")

	_, body := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil), owner)
	assert.Equal(t, true, body["isAdmin"])
	assert.Equal(t, "owner", body["role"])

	w, _ := s.json(http.MethodPost, "/admin/create", owner, map[string]string{"email": "helper@example.com", "password": "helperpw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.json(http.MethodPost, "/admin/create", owner, map[string]string{"email": "helper@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	helper := s.adminToken("helper@example.com", "helperpw")
	w, _ = s.json(http.MethodPost, "/admin/create", helper, map[string]string{"email": "sneaky@example.com", "password": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.do(httptest.NewRequest(http.MethodGet, "/admin/list", nil), owner)
	require.Equal(t, http.StatusOK, w.Code)
	admins := body["admins"].([]any)
	require.Len(t, admins, 2)
	for _, a := range admins {
		assert.NotContains(t, a.(map[string]any), "password")
	}

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/admin/list", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/delete/owner@example.com", nil), owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/delete/ghost@example.com", nil), owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/delete/helper@example.com", nil), owner)
	assert.Equal(t, http.StatusOK, w.Code)

	_, body = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil), helper)
	assert.Equal(t, false, body["isAdmin"])
}

func TestUploadListDownloadDelete(t *testing.T) {
	s := newServer(t)
	tok := s.userToken()

	w, body := s.multipart("/admin/upload", tok, nil, upload{"apk", "My App!.apk", "application/octet-stream", []byte("apk-bytes")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "my_app_.apk", body["filename"])

	w, body = s.multipart("/admin/upload-icon", tok, map[string]string{"apkName": "my_app_"},
		upload{"icon", "icon.png", "image/png", []byte("\x89PNG\r\n\x1a\nrest")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "my_app_.png", body["filename"])
	assert.Equal(t, true, body["attached"])

	w, body = s.do(httptest.NewRequest(http.MethodGet, "/api/apks", nil), tok)
	require.Equal(t, http.StatusOK, w.Code)
	apks := body["apks"].([]any)
	require.Len(t, apks, 1)
	rec := apks[0].(map[string]any)
	assert.Equal(t, "my_app_.apk", rec["apk"])
	assert.Equal(t, "file", rec["type"])
	assert.Equal(t, "my_app_.png", rec["icon"])

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/download/my_app_.apk?token="+url.QueryEscape(tok), nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "apk-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/apks/files/my_app_.png?token="+url.QueryEscape(tok), nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/download/my_app_.apk", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/download/missing.apk", nil), tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/apk/ghost", nil), tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/apk/my_app_", nil), tok)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := os.Stat(filepath.Join(s.packageDir, "my_app_.apk"))
	assert.True(t, os.IsNotExist(err))

	_, body = s.do(httptest.NewRequest(http.MethodGet, "/api/apks", nil), tok)
	assert.Empty(t, body["apks"])
}

func TestUploadRejections(t *testing.T) {
	s := newServer(t)
	tok := s.userToken()

	w, _ := s.multipart("/admin/upload", "", nil, upload{"apk", "a.apk", "application/octet-stream", []byte("x")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := s.multipart("/admin/upload", tok, nil, upload{"apk", "notes.txt", "text/plain", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "only APK files")

	w, _ = s.multipart("/admin/upload", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.multipart("/admin/upload", tok, nil, upload{"apk", "big.apk", "application/octet-stream", bytes.Repeat([]byte("a"), 3<<20)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.multipart("/admin/upload-icon", tok, map[string]string{"apkName": "x"}, upload{"icon", "i.gif", "text/plain", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkPackages(t *testing.T) {
	s := newServer(t)
	tok := s.userToken()

	w, _ := s.multipart("/admin/upload-link", tok, map[string]string{"appName": "Maps", "apkLink": "not-a-url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.multipart("/admin/upload-link", tok, map[string]string{"appName": "Maps", "apkLink": "https://example.com/app.apk"},
		upload{"icon", "m.png", "image/png", []byte("png")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pkg := body["package"].(map[string]any)
	assert.Equal(t, "link", pkg["type"])
	assert.Equal(t, "https://example.com/app.apk", pkg["apkLink"])

	form := url.Values{"appName": {"Notes"}, "apkLink": {"https://example.com/notes.apk"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/upload-link", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w, _ = s.do(req, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.multipart("/admin/upload-link", tok, map[string]string{"appName": "Maps", "apkLink": "https://example.com/b.apk"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/apk-link/Maps", nil), tok)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/admin/apk-link/Maps", nil), tok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, body = s.do(httptest.NewRequest(http.MethodGet, "/api/apks", nil), tok)
	assert.Len(t, body["apks"], 1)
}

func TestFallbackRedirectsAndMetrics(t *testing.T) {
	s := newServer(t)

	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/no/such/page", nil), "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w, body := s.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = s.do(httptest.NewRequest(http.MethodGet, "/api/config", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1<<20), body["maxPackageBytes"])
	assert.Equal(t, float64(24*3600), body["tokenTtlSeconds"])

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	data, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apkhub_http_requests_total")
}
