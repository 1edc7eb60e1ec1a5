package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/anonymous-confessions/internal/application/services"
	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	saas_http "github.com/avatarctic/anonymous-confessions/internal/infrastructure/httpserver"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/render"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/repositories"
	"github.com/avatarctic/anonymous-confessions/test/mocks"
)

type harness struct {
	srv      *saas_http.Server
	client   *mocks.SocialClientMock
	renderer *countingRenderer
	dir      string
}

// countingRenderer wraps the real renderer so tests can assert it was never reached.
type countingRenderer struct {
	inner *render.Renderer
	calls int
}

func (r *countingRenderer) Render(ctx context.Context, text string) (*confession.RenderedImage, error) {
	r.calls++
	return r.inner.Render(ctx, text)
}

func newHarness(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()
	r, err := render.NewRenderer(&render.Config{Dir: dir}, logger)
	require.NoError(t, err)
	renderer := &countingRenderer{inner: r}

	client := &mocks.SocialClientMock{}
	publisher := services.NewPublisherService(client, nil, logger)
	confessions := services.NewConfessionService(renderer, publisher, &services.ConfessionServiceConfig{Timeout: timeout}, logger)
	limiter := services.NewRateLimiterService(repositories.NewRateLimitMemoryRepository(100), &services.RateLimiterConfig{RequestsPerWindow: 3, Window: time.Minute}, logger)

	srv := saas_http.NewServer(&saas_http.ServerConfig{Host: "127.0.0.1", Port: "0"}, logger, saas_http.ServerDeps{
		ConfessionService:  confessions,
		RateLimiterService: limiter,
	})
	return &harness{srv: srv, client: client, renderer: renderer, dir: dir}
}

func (h *harness) do(method, path, body, ip string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	rec := httptest.NewRecorder()
	h.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func requireCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	require.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validBody(text string) string {
	b, _ := json.Marshal(map[string]string{"text": text})
	return string(b)
}

func TestOptions_AnyPathReturnsEmpty200(t *testing.T) {
	h := newHarness(t, time.Second)
	for _, path := range []string{"/confess", "/.netlify/functions/confess", "/nowhere"} {
		rec := h.do(http.MethodOptions, path, `{"text": 12}`, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Empty(t, rec.Body.String())
		requireCORS(t, rec)
	}
}

func TestNonPostIsMethodNotAllowed(t *testing.T) {
	h := newHarness(t, time.Second)
	for i := 0; i < 5; i++ {
		rec := h.do(http.MethodGet, "/confess", "", "203.0.113.1")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Equal(t, "Method Not Allowed", decode(t, rec)["error"])
		requireCORS(t, rec)
	}
	// GETs did not consume quota
	rec := h.do(http.MethodPost, "/confess", validBody("this one still gets through"), "203.0.113.1")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidLengthIsBadRequestAndNeverPublishes(t *testing.T) {
	h := newHarness(t, time.Second)
	uploads := 0
	h.client.UploadStoryFn = func(ctx context.Context, r io.Reader, p confession.StoryPrompt) (string, error) {
		uploads++
		return "s", nil
	}

	for i, text := range []string{"Hi", strings.Repeat("x", 9), strings.Repeat("x", 501)} {
		rec := h.do(http.MethodPost, "/confess", validBody(text), "198.51.100."+string(rune('1'+i)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid text length (10-500 chars required)", decode(t, rec)["error"])
		requireCORS(t, rec)
	}
	require.Zero(t, uploads)
	require.Zero(t, h.renderer.calls)
}

func TestOversizedBodyIsLengthError(t *testing.T) {
	h := newHarness(t, time.Second)
	body := validBody(strings.Repeat("x", 20000))

	rec := h.do(http.MethodPost, "/confess", body, "198.51.100.20")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, confession.InvalidLengthMessage, decode(t, rec)["error"])
	requireCORS(t, rec)

	// no Content-Length: the limit trips while the body is being read
	req := httptest.NewRequest(http.MethodPost, "/confess", io.MultiReader(strings.NewReader(body)))
	req.ContentLength = -1
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Forwarded-For", "198.51.100.21")
	rec = httptest.NewRecorder()
	h.srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, confession.InvalidLengthMessage, decode(t, rec)["error"])

	require.Zero(t, h.renderer.calls)
}

func TestMalformedBodiesAreBadRequest(t *testing.T) {
	h := newHarness(t, time.Second)
	cases := []struct {
		body string
		want string
	}{
		{`{not json`, "Invalid request body: expected JSON"},
		{`{"text": 42}`, "Invalid request body: text must be a string"},
		{``, "Invalid text length (10-500 chars required)"},
		{`{}`, "Invalid text length (10-500 chars required)"},
	}
	for i, tc := range cases {
		rec := h.do(http.MethodPost, "/confess", tc.body, "192.0.2."+string(rune('1'+i)))
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		require.Equal(t, tc.want, decode(t, rec)["error"])
	}
	require.Zero(t, h.renderer.calls)
}

func TestFourthRequestInWindowIsRateLimited(t *testing.T) {
	h := newHarness(t, time.Second)
	body := validBody(strings.Repeat("a", 50))
	for i := 0; i < 3; i++ {
		rec := h.do(http.MethodPost, "/confess", body, "203.0.113.50")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rendersBefore := h.renderer.calls

	rec := h.do(http.MethodPost, "/confess", body, "203.0.113.50")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many requests. Please try again later.", decode(t, rec)["error"])
	requireCORS(t, rec)
	require.Equal(t, rendersBefore, h.renderer.calls)

	// another client is unaffected
	rec = h.do(http.MethodPost, "/confess", body, "203.0.113.51")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSuccessfulPublishReturnsIDsAndCleansUp(t *testing.T) {
	h := newHarness(t, time.Second)
	var storyImage string
	h.client.UploadStoryFn = func(ctx context.Context, r io.Reader, p confession.StoryPrompt) (string, error) {
		f, ok := r.(*os.File)
		require.True(t, ok)
		storyImage = f.Name()
		return "17900000000000001", nil
	}
	h.client.UploadPhotoFn = func(ctx context.Context, r io.Reader, caption string) (string, error) {
		require.True(t, strings.HasPrefix(caption, "I ate the last slice & blamed the dog <3"))
		return "3100000000000000002", nil
	}

	rec := h.do(http.MethodPost, "/.netlify/functions/confess", validBody("I ate the last slice & blamed the dog <3"), "203.0.113.60")
	require.Equal(t, http.StatusOK, rec.Code)
	requireCORS(t, rec)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "17900000000000001", body["storyId"])
	assert.Equal(t, "3100000000000000002", body["postId"])
	assert.NotEmpty(t, body["message"])

	require.NotEmpty(t, storyImage)
	_, err := os.Stat(storyImage)
	require.ErrorIs(t, err, os.ErrNotExist)
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPublishTimeoutReturnsDistinct500(t *testing.T) {
	h := newHarness(t, 100*time.Millisecond)
	h.client.UploadStoryFn = func(ctx context.Context, r io.Reader, p confession.StoryPrompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	start := time.Now()
	rec := h.do(http.MethodPost, "/confess", validBody("this will take far too long"), "203.0.113.70")
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "Request timed out", body["error"])
	require.NotEmpty(t, body["message"])
	requireCORS(t, rec)
}

func TestPublishFailureIsGeneric500(t *testing.T) {
	h := newHarness(t, time.Second)
	h.client.UploadPhotoFn = func(ctx context.Context, r io.Reader, caption string) (string, error) {
		return "", confession.NewError(confession.KindPublish, "upload rejected", errors.New("feedback_required")).WithDetail(`{"spam":true}`)
	}

	rec := h.do(http.MethodPost, "/confess", validBody("a confession the platform dislikes"), "203.0.113.80")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "Internal server error", body["error"])
	require.NotContains(t, rec.Body.String(), "spam")
	requireCORS(t, rec)

	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPanicIsRecoveredAsServerError(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := &mocks.ConfessionServiceMock{SubmitFn: func(ctx context.Context, text string) (*confession.PublishResult, error) {
		panic("unexpected nil")
	}}
	srv := saas_http.NewServer(&saas_http.ServerConfig{}, logger, saas_http.ServerDeps{ConfessionService: svc})

	req := httptest.NewRequest(http.MethodPost, "/confess", strings.NewReader(validBody("trigger the panic path")))
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", decode(t, rec)["error"])
	require.NotContains(t, rec.Body.String(), "unexpected nil")
	requireCORS(t, rec)
}
