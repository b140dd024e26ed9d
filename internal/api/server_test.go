package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/logger"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordAPI is an in-memory freight-document API
type recordAPI struct {
	mu      sync.Mutex
	body    string
	failGet bool
	failPut bool
	puts    []map[string]json.RawMessage
}

func (a *recordAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/tabela":
		if a.failGet {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, a.body)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/tabela/"):
		if a.failPut {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a.puts = append(a.puts, body)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *recordAPI) sent() []map[string]json.RawMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]json.RawMessage(nil), a.puts...)
}

func (a *recordAPI) set(fn func(a *recordAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

const recordList = `[
	{"id": 1, "ZB1_FILIAL": "01", "ZB1_CGCEMI": "11222333000181", "ZB1_DOC": "000123",
	 "ZB1_EMIT": "TRANSPORTADORA ALADO", "ZB1_TOTVAL": 1532.9, "ZB1_DTLIB": "2024-01-01",
	 "ZB1_STATUS": "PENDENTE", "R_E_C_N_O_": 991},
	{"id": 2, "ZB1_FILIAL": "02", "ZB1_CGCEMI": "12345678909", "ZB1_DOC": "000124",
	 "ZB1_EMIT": "JOSE DA SILVA", "ZB1_TOTVAL": 80, "ZB1_DTLIB": "2024-01-05",
	 "ZB1_STATUS": "LIBERADO"}
]`

func newTenant(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		io.WriteString(w, `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"sub":"auth0|42","name":"Maria Souza","email":"maria@alado.com.br"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type harness struct {
	server *Server
	api    *recordAPI
	tenant *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	records := &recordAPI{body: recordList}
	apiServer := httptest.NewServer(records)
	t.Cleanup(apiServer.Close)
	tenant := newTenant(t)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, Environment: "test"},
		RecordAPI: config.RecordAPIConfig{
			BaseURL:      apiServer.URL + "/api",
			ResourcePath: "tabela",
			Timeout:      5 * time.Second,
		},
		Auth: config.AuthConfig{
			Domain:         tenant.URL,
			ClientID:       "client-123",
			RedirectURI:    "http://localhost:8080/callback",
			LogoutReturnTo: "http://localhost:8080/",
			Scopes:         []string{"openid", "profile", "email"},
			LoginTimeout:   30 * time.Second,
		},
		Session: config.SessionConfig{
			CookieName: "cte_session",
			TTL:        time.Hour,
			KeyPrefix:  "session:",
		},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 1000},
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowedHeaders: []string{"Origin", "Content-Type"},
				MaxAge:         time.Hour,
			},
		},
	}

	container, err := services.NewContainer(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	server, err := NewServer(cfg, logger.Discard(), container)
	require.NoError(t, err)
	t.Cleanup(server.Close)

	return &harness{server: server, api: records, tenant: tenant}
}

// browser keeps the session cookie between requests and never follows redirects
type browser struct {
	t       *testing.T
	h       *harness
	cookies map[string]*http.Cookie
}

func (h *harness) browser(t *testing.T) *browser {
	return &browser{t: t, h: h, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	b.h.server.Router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(b.cookies, cookie.Name)
			continue
		}
		b.cookies[cookie.Name] = cookie
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil, "")
}

func (b *browser) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) sendJSON(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return b.do(method, target, reader, "application/json")
}

func (b *browser) page(target string) *goquery.Document {
	b.t.Helper()
	w := b.get(target)
	require.Equal(b.t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(b.t, err)
	return doc
}

// login runs the authorization code flow against the fake tenant
func (b *browser) login(code string) *httptest.ResponseRecorder {
	b.t.Helper()
	w := b.get("/login")
	require.Equal(b.t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(b.t, err)
	require.Equal(b.t, "/authorize", location.Path)

	query := url.Values{"code": {code}, "state": {location.Query().Get("state")}}
	return b.get("/callback?" + query.Encode())
}

func TestIndexShowsLoginForAnonymous(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	doc := b.page("/")

	assert.Equal(t, "Faça login para continuar", doc.Find(".login-text").Text())
	assert.Equal(t, 0, doc.Find("table").Length())
	assert.Contains(t, b.cookies, "cte_session")
	assert.Empty(t, h.api.sent())
}

func TestLoginRedirectShowsLoading(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/login")
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client-123", location.Query().Get("client_id"))
	assert.Equal(t, "S256", location.Query().Get("code_challenge_method"))

	doc := b.page("/")
	assert.Equal(t, "Loading...", doc.Find(".loading").Text())
}

func TestLoginShowsTable(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.login("good-code")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	doc := b.page("/")
	assert.Equal(t, "Controle CTE - Alado", doc.Find("h1.title").Text())
	assert.Equal(t, "Maria Souza", doc.Find(".user-name").Text())

	rows := doc.Find("tbody tr")
	require.Equal(t, 2, rows.Length())
	first, _ := rows.Eq(0).Attr("data-id")
	second, _ := rows.Eq(1).Attr("data-id")
	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)
	assert.Equal(t, "11.222.333/0001-81", rows.Eq(0).Find(`td[data-field="ZB1_CGCEMI"]`).Text())
	assert.Equal(t, "123.456.789-09", rows.Eq(1).Find(`td[data-field="ZB1_CGCEMI"]`).Text())
	assert.Equal(t, "R$ 1.532,90", rows.Eq(0).Find(`td[data-field="ZB1_TOTVAL"]`).Text())
}

func TestFailedLoginShowsAccessDenied(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.login("bad-code")
	require.Equal(t, http.StatusSeeOther, w.Code)

	doc := b.page("/")
	assert.Equal(t, "Acesso negado", doc.Find(".access-denied-text").Text())

	w = b.get("/logout")
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/v2/logout", location.Path)
	assert.Equal(t, "http://localhost:8080/", location.Query().Get("returnTo"))

	doc = b.page("/")
	assert.Equal(t, "Faça login para continuar", doc.Find(".login-text").Text())
}

func TestProviderErrorShowsAccessDenied(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/login")
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	query := url.Values{
		"error":             {"access_denied"},
		"error_description": {"blocked"},
		"state":             {location.Query().Get("state")},
	}
	w = b.get("/callback?" + query.Encode())
	require.Equal(t, http.StatusSeeOther, w.Code)

	doc := b.page("/")
	assert.Equal(t, "Acesso negado", doc.Find(".access-denied-text").Text())

	w = b.get("/api/v1/session")
	require.Equal(t, http.StatusOK, w.Code)
	var session models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.False(t, session.IsAuthenticated)
	assert.Contains(t, session.Error, "blocked")
}

func TestForgedCallbackKeepsUserLoggedIn(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")

	w := b.get("/callback?error=access_denied&error_description=blocked")
	require.Equal(t, http.StatusSeeOther, w.Code)

	doc := b.page("/")
	assert.Equal(t, "Controle CTE - Alado", doc.Find("h1.title").Text())
	assert.Equal(t, 0, doc.Find(".access-denied-text").Length())
}

func TestEditStageSaveThroughPages(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")
	b.page("/")

	w := b.postForm("/records/1/edit", url.Values{"field": {"ZB1_DTLIB"}, "value": {"2024-01-01"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	doc := b.page("/")
	input := doc.Find(`tr[data-id="1"] td[data-field="ZB1_DTLIB"] input`)
	require.Equal(t, 1, input.Length())
	value, _ := input.Attr("value")
	assert.Equal(t, "2024-01-01", value)
	assert.Equal(t, 0, doc.Find(`tr[data-id="2"] input.edit-input`).Length())

	w = b.postForm("/records/1/save", url.Values{"field": {"ZB1_DTLIB"}, "value": {"2024-02-15"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	sent := h.api.sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `"2024-02-15"`, string(sent[0]["ZB1_DTLIB"]))
	assert.JSONEq(t, `"000123"`, string(sent[0]["ZB1_DOC"]))
	assert.JSONEq(t, `1532.9`, string(sent[0]["ZB1_TOTVAL"]))
	assert.JSONEq(t, `991`, string(sent[0]["R_E_C_N_O_"]))

	h.api.set(func(a *recordAPI) {
		a.body = strings.Replace(a.body, `"ZB1_DTLIB": "2024-01-01"`, `"ZB1_DTLIB": "2024-02-15"`, 1)
	})
	doc = b.page("/")
	assert.Equal(t, 0, doc.Find("input.edit-input").Length())
	assert.Equal(t, "2024-02-15", doc.Find(`tr[data-id="1"] td[data-field="ZB1_DTLIB"]`).Text())
}

func TestPagePostsRequireLogin(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.postForm("/records/1/edit", url.Values{"field": {"ZB1_DTLIB"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestFetchFailureRendersEmptyTable(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")
	h.api.set(func(a *recordAPI) { a.failGet = true })

	doc := b.page("/")
	assert.Equal(t, 1, doc.Find("table").Length())
	assert.Equal(t, 0, doc.Find("tbody tr").Length())

	w := b.get("/api/v1/records")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FETCH_FAILED", resp.Code)
}

func TestRecordsAPIRequiresLogin(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/api/v1/records")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNAUTHORIZED", resp.Code)
}

func TestRecordsAPIFlow(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")

	w := b.get("/api/v1/records")
	require.Equal(t, http.StatusOK, w.Code)
	var list models.RecordsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Empty(t, list.Edits)

	w = b.sendJSON(http.MethodPost, "/api/v1/records/1/edit", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state models.EditStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "editing", state.Phase)
	assert.Equal(t, "ZB1_DTLIB", state.Field)
	assert.Equal(t, map[string]string{"ZB1_DTLIB": "2024-01-01"}, state.Staged)

	w = b.sendJSON(http.MethodPut, "/api/v1/records/1/staged", `{"field":"ZB1_DTLIB","value":"2024-02-15"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = b.get("/api/v1/records")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Edits, 1)
	assert.Equal(t, int64(1), list.Edits[0].ID)

	w = b.sendJSON(http.MethodPost, "/api/v1/records/1/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	state = models.EditStateResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "viewing", state.Phase)
	require.NotNil(t, state.Record)
	assert.Equal(t, "2024-02-15", state.Record.Text(models.FieldDtLib))

	sent := h.api.sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `"2024-02-15"`, string(sent[0]["ZB1_DTLIB"]))
}

func TestRecordsAPIErrors(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")
	b.get("/api/v1/records")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{name: "unknown record", method: http.MethodPost, target: "/api/v1/records/99/edit", status: http.StatusNotFound, code: "RECORD_NOT_FOUND"},
		{name: "unknown field", method: http.MethodPost, target: "/api/v1/records/1/edit", body: `{"field":"ZB1_NOPE"}`, status: http.StatusBadRequest, code: "UNKNOWN_FIELD"},
		{name: "stage without edit", method: http.MethodPut, target: "/api/v1/records/2/staged", body: `{"field":"ZB1_DTLIB","value":"x"}`, status: http.StatusConflict, code: "NOT_EDITING"},
		{name: "save without edit", method: http.MethodPost, target: "/api/v1/records/2/save", status: http.StatusConflict, code: "NOT_EDITING"},
		{name: "invalid id", method: http.MethodPost, target: "/api/v1/records/abc/save", status: http.StatusBadRequest, code: "INVALID_ID"},
		{name: "stage without field", method: http.MethodPut, target: "/api/v1/records/1/staged", body: `{"value":"x"}`, status: http.StatusBadRequest, code: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := b.sendJSON(tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, strings.Split(tt.target, "?")[0], resp.Path)
		})
	}
}

func TestRecordsAPISaveFailureKeepsEdit(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)
	b.login("good-code")
	b.get("/api/v1/records")
	h.api.set(func(a *recordAPI) { a.failPut = true })

	w := b.sendJSON(http.MethodPost, "/api/v1/records/1/edit", `{"field":"ZB1_DTLIB","value":"2024-02-15"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = b.sendJSON(http.MethodPost, "/api/v1/records/1/save", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SAVE_FAILED", resp.Code)

	doc := b.page("/")
	value, _ := doc.Find(`tr[data-id="1"] input.edit-input`).Attr("value")
	assert.Equal(t, "2024-02-15", value)
	assert.Equal(t, "Salvar", doc.Find(`tr[data-id="1"] button.save-button`).Text())
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Services, "session_store")
	assert.Contains(t, health.Services, "record_api")
	assert.Contains(t, health.Services, "identity")

	w = b.get("/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = b.get("/health/live")
	assert.Equal(t, http.StatusOK, w.Code)

	b.login("good-code")
	b.page("/")

	w = b.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	var metrics models.MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, int64(1), metrics.Fetches.Success)
	assert.Equal(t, float64(100), metrics.Fetches.SuccessRate)
	assert.NotEmpty(t, metrics.Sessions)
	assert.NotEmpty(t, metrics.RateLimit)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/health/live")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestStaticAndNotFound(t *testing.T) {
	h := newHarness(t)
	b := h.browser(t)

	w := b.get("/static/app.css")
	assert.Equal(t, http.StatusOK, w.Code)

	w = b.get("/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
