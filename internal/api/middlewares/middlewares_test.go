package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/models"
	"interview-api/internal/auth"
	"interview-api/internal/database/repositories"
	"interview-api/internal/sanitize"
	"interview-api/pkg/config"
	"interview-api/pkg/logger"
	"interview-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServices struct {
	log       *logger.Logger
	metrics   *metrics.Metrics
	tokens    *auth.TokenService
	sanitizer *sanitize.Sanitizer
	repo      interfaces.CandidateRepository
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	return &testServices{
		log:       logger.NewNop(),
		metrics:   metrics.NewMetrics("test"),
		tokens:    tokens,
		sanitizer: sanitize.New(),
		repo:      repositories.NewMemoryCandidateRepository(),
	}
}

func (s *testServices) GetLogger() *logger.Logger                           { return s.log }
func (s *testServices) GetMetrics() *metrics.Metrics                        { return s.metrics }
func (s *testServices) AuthService() interfaces.AuthServiceInterface        { return s.tokens }
func (s *testServices) Sanitizer() interfaces.SanitizerInterface            { return s.sanitizer }
func (s *testServices) CandidateRepository() interfaces.CandidateRepository { return s.repo }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *models.ErrorInfo {
	t.Helper()
	var resp models.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestAuthRequired(t *testing.T) {
	services := newTestServices(t)
	token, err := services.tokens.Issue("alice")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthRequired(services), func(c *gin.Context) {
		userName, ok := CurrentUser(c)
		fromCtx, _ := auth.IdentityFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": userName, "ok": ok, "ctx": fromCtx})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "missing token", header: "", wantStatus: http.StatusForbidden, wantCode: models.ErrCodeTokenMissing},
		{name: "garbage token", header: "not-a-jwt", wantStatus: http.StatusUnauthorized, wantCode: models.ErrCodeInvalidToken},
		{name: "raw token", header: token, wantStatus: http.StatusOK},
		{name: "bearer token", header: "Bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			assert.JSONEq(t, `{"user":"alice","ok":true,"ctx":"alice"}`, rec.Body.String())
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(services.metrics.TokenRejections.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(services.metrics.TokenRejections.WithLabelValues("invalid")))
}

func TestAuthRequired_MessagesMatchClients(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.GET("/me", AuthRequired(services), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "Token is missing", decodeError(t, rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "abc.def.ghi")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "Token is invalid", decodeError(t, rec).Message)
}

func echoBody(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Data(http.StatusOK, "application/json", body)
}

func TestSanitize_JSONBody(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))

	var tree any
	router.POST("/echo", func(c *gin.Context) {
		tree, _ = c.Get(SanitizedBodyKey)
		echoBody(c)
	})

	body := `{"name":"<b>bob</b><script>alert(1)</script>","age":30,"big":12345678901234567890,"tags":["<img src=x onerror=alert(1)>",true,null]}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, `"name":"<b>bob</b>"`)
	assert.Contains(t, out, `"age":30`)
	assert.Contains(t, out, `"big":12345678901234567890`)
	assert.Contains(t, out, `true,null]`)
	assert.NotNil(t, tree)
}

func TestSanitize_ContentLengthFollowsRewrite(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.POST("/len", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		assert.Equal(t, int64(len(body)), c.Request.ContentLength)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/len", strings.NewReader(`{"a":"<script>x</script>keep"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSanitize_RejectsDeepPayload(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	called := false
	router.POST("/echo", func(c *gin.Context) { called = true })

	deep := strings.Repeat("[", sanitize.DefaultMaxDepth+1) + strings.Repeat("]", sanitize.DefaultMaxDepth+1)
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(deep))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrCodePayloadTooDeep, decodeError(t, rec).Code)
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(services.metrics.SanitizeRejections.WithLabelValues("depth")))
}

func TestSanitize_AcceptsPayloadAtLimit(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.POST("/echo", echoBody)

	ok := strings.Repeat("[", sanitize.DefaultMaxDepth) + strings.Repeat("]", sanitize.DefaultMaxDepth)
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(ok))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitize_MalformedJSON(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.POST("/echo", echoBody)

	for _, body := range []string{`{"name":`, `{"a":1} {"b":2}`} {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, models.ErrCodeInvalidRequest, decodeError(t, rec).Code)
	}
}

func TestSanitize_EmptyJSONBodyPassesThrough(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.DELETE("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodDelete, "/x", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSanitize_FormQueryAndParams(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.POST("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"form":  c.PostForm("designation"),
			"query": c.Query("q"),
			"param": c.Param("id"),
		})
	})

	form := "designation=" + "%3Cscript%3Ealert(1)%3C%2Fscript%3EEngineer"
	req := httptest.NewRequest(http.MethodPost, "/items/a%26b?q=%3Cscript%3Ebad%3C%2Fscript%3Egood", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"form":"Engineer","query":"good","param":"a&amp;b"}`, rec.Body.String())
}

func multipartBody(t *testing.T, fields map[string]string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	require.NoError(t, w.Close())
	return buf.String(), w.FormDataContentType()
}

func TestSanitize_BodyTypes(t *testing.T) {
	const payload = "<script>alert(1)</script>bob<img src=x onerror=alert(1)>"
	multipartPayload, multipartType := multipartBody(t, map[string]string{"name": payload})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "multipart", contentType: multipartType, body: multipartPayload, wantStatus: http.StatusOK},
		{name: "xml", contentType: "application/xml", body: "<r><name>" + payload + "</name></r>", wantStatus: http.StatusUnsupportedMediaType},
		{name: "text xml", contentType: "text/xml", body: "<r><name>x</name></r>", wantStatus: http.StatusUnsupportedMediaType},
		{name: "yaml", contentType: "application/x-yaml", body: "name: \"" + payload + "\"", wantStatus: http.StatusUnsupportedMediaType},
		{name: "toml", contentType: "application/toml", body: "name = '" + payload + "'", wantStatus: http.StatusUnsupportedMediaType},
		{name: "plain text", contentType: "text/plain", body: payload, wantStatus: http.StatusUnsupportedMediaType},
		{name: "protobuf", contentType: "application/x-protobuf", body: payload, wantStatus: http.StatusUnsupportedMediaType},
		{name: "no content type", contentType: "", body: payload, wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := newTestServices(t)
			router := gin.New()
			router.Use(Sanitize(services))

			var seen []string
			router.POST("/echo", func(c *gin.Context) {
				var req struct {
					Name string `form:"name" json:"name" xml:"name" yaml:"name" toml:"name"`
				}
				_ = c.ShouldBind(&req)
				body, _ := io.ReadAll(c.Request.Body)
				seen = append(seen, req.Name, c.PostForm("name"), string(body))
				if c.Request.MultipartForm != nil {
					seen = append(seen, c.Request.MultipartForm.Value["name"]...)
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			for _, value := range seen {
				assert.NotContains(t, value, "<script")
				assert.NotContains(t, value, "onerror")
			}
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, seen, "bob<img src=\"x\">")
				return
			}
			assert.Empty(t, seen)
			assert.Equal(t, models.ErrCodeUnsupportedMedia, decodeError(t, rec).Code)
		})
	}
}

func TestSanitize_EmptyBodyOfAnyTypePasses(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(Sanitize(services))
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(""))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSanitize_CleansPollutedQueryLists(t *testing.T) {
	services := newTestServices(t)
	router := gin.New()
	router.Use(HPP(), Sanitize(services))
	router.GET("/q", func(c *gin.Context) {
		polluted, _ := c.Get(PollutedQueryKey)
		c.JSON(http.StatusOK, gin.H{"q": c.Query("q"), "polluted": polluted})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/q?q=%3Cscript%3Ex%3C%2Fscript%3Ea&q=%3Cscript%3Ey%3C%2Fscript%3Eb", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"q":"b","polluted":{"q":["a","b"]}}`, rec.Body.String())
}

func TestHPP_LastValueWins(t *testing.T) {
	router := gin.New()
	router.Use(HPP())
	router.GET("/q", func(c *gin.Context) {
		polluted, _ := c.Get(PollutedQueryKey)
		c.JSON(http.StatusOK, gin.H{"a": c.QueryArray("a"), "b": c.Query("b"), "polluted": polluted})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/q?a=1&a=2&a=3&b=x", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"a":["3"],"b":"x","polluted":{"a":["1","2","3"]}}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:5000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(Security())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(logger.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.ErrCodeInternalError, decodeError(t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewRateLimiter(1, 2)))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.ttl = 0
	assert.True(t, rl.Allow("10.0.0.1"))
	rl.Cleanup()
	assert.Empty(t, rl.visitors)
}

func TestRequestLogging_RequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogging(logger.NewNop()))
	router.GET("/x", func(c *gin.Context) {
		_, hasLogger := c.Get("logger")
		c.JSON(http.StatusOK, gin.H{"id": c.GetString("request_id"), "logger": hasLogger})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := rec.Header().Get(RequestIDHeader)
	assert.True(t, strings.HasPrefix(id, "req_"))
	assert.Len(t, id, len("req_")+12)
	assert.JSONEq(t, `{"id":"`+id+`","logger":true}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req_from_client")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req_from_client", rec.Header().Get(RequestIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewMetrics("test")
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
