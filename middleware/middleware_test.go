package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kevinaaaquil/bookshelf/models"
)

type stubTokens map[string]*models.AuthContext

func (s stubTokens) ParseToken(token string) (*models.AuthContext, error) {
	if ac, ok := s[token]; ok {
		return ac, nil
	}
	return nil, errors.New("bad token")
}

var (
	userCtx  = &models.AuthContext{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	adminCtx = &models.AuthContext{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	tokens   = stubTokens{"user-token": userCtx, "admin-token": adminCtx}
)

func whoami(w http.ResponseWriter, r *http.Request) {
	if ac := FromContext(r.Context()); ac != nil {
		_, _ = w.Write([]byte(ac.Role))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuth(t *testing.T) {
	h := Auth(tokens)(http.HandlerFunc(whoami))

	rr := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"missing authorization header"}`, rr.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token user-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer nope").Code)

	rr = serve(h, "Bearer user-token")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.RoleUser, rr.Body.String())
}

func TestWriteError_EscapesMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, `bad "quote" \ here`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad \"quote\" \\ here"}`, rr.Body.String())
}

func TestOptional(t *testing.T) {
	h := Optional(tokens)(http.HandlerFunc(whoami))

	rr := serve(h, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())

	assert.Equal(t, "admin", serve(h, "Bearer admin-token").Body.String())
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer expired").Code)
}

func TestRequireRole(t *testing.T) {
	h := Auth(tokens)(RequireRole(models.RoleAdmin)(http.HandlerFunc(whoami)))

	assert.Equal(t, http.StatusForbidden, serve(h, "Bearer user-token").Code)
	assert.Equal(t, http.StatusOK, serve(h, "Bearer admin-token").Code)

	bare := RequireRole(models.RoleAdmin)(http.HandlerFunc(whoami))
	assert.Equal(t, http.StatusUnauthorized, serve(bare, "").Code)
}

func echoBody(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("X-Query", r.URL.RawQuery)
	_, _ = w.Write(body)
}

func TestSanitize_Body(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":{"$gt":""},"year":2000}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	Sanitize(http.HandlerFunc(echoBody)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"title":{},"year":2000}`, rr.Body.String())
}

func TestSanitize_InvalidJSONPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	Sanitize(http.HandlerFunc(echoBody)).ServeHTTP(rr, req)

	assert.Equal(t, `{"title":`, rr.Body.String())
}

func TestSanitize_Query(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/suggestions?status=pending&$where=1&a.b=2", nil)
	rr := httptest.NewRecorder()
	Sanitize(http.HandlerFunc(echoBody)).ServeHTTP(rr, req)

	assert.Equal(t, "status=pending", rr.Header().Get("X-Query"))
}

func TestSanitize_SkipsMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/authors/x/image", strings.NewReader(`{"$raw":1}`))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rr := httptest.NewRecorder()
	Sanitize(http.HandlerFunc(echoBody)).ServeHTTP(rr, req)

	assert.Equal(t, `{"$raw":1}`, rr.Body.String())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	rr := httptest.NewRecorder()
	CORS(nil)(next).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	h := CORS([]string{"https://shelf.example.com"})(next)
	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "https://shelf.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "https://shelf.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
}
