package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"newsroom/app/controllers"
	"newsroom/app/guard"
	"newsroom/app/metrics"
	"newsroom/app/repositories"
	"newsroom/app/security"
	"newsroom/app/services"
	"newsroom/app/session"
	"newsroom/app/views"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type site struct {
	router *mux.Router
	store  *repositories.Store
}

func setupTestSite(t *testing.T) *site {
	t.Helper()
	db, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	store := repositories.NewBadgerStore(db)
	t.Cleanup(func() { store.Close() })

	logger := zerolog.Nop()
	m := metrics.New()
	renderer, err := views.NewTemplateRenderer()
	require.NoError(t, err)
	sessions, err := session.NewManager("routes-test-secret", store.Users, store.Revocations, logger, session.Options{TTL: time.Hour})
	require.NoError(t, err)

	users := services.NewUserService(store.Users, security.NewPBKDF2Hasher(1000, 8), m, logger)
	posts := services.NewPostService(store.Posts, store.Comments, store.Users, logger)
	comments := services.NewCommentService(store.Comments, store.Posts, logger)
	rs := controllers.NewResponder(renderer, logger)

	router := Setup(Handlers{
		Auth:     controllers.NewAuthController(rs, users, sessions, m),
		Posts:    controllers.NewPostController(rs, posts, comments),
		Pages:    controllers.NewPageController(rs),
		Sessions: sessions,
		Metrics:  m,
		Logger:   logger,
	})
	return &site{router: router, store: store}
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t       *testing.T
	site    *site
	cookies map[string]*http.Cookie
}

func (s *site) browser(t *testing.T) *browser {
	return &browser{t: t, site: s, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.site.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

func (b *browser) register(email, password, name string) {
	b.t.Helper()
	rec := b.post("/register", url.Values{"email": {email}, "password": {password}, "name": {name}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, "/", rec.Header().Get("Location"))
}

func (b *browser) login(email, password string) {
	b.t.Helper()
	rec := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, "/", rec.Header().Get("Location"))
}

func newsForm(title, body string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"img_url":  {"https://img.example/photo.jpg"},
		"body":     {body},
	}
}

func TestNewsroomScenario(t *testing.T) {
	s := setupTestSite(t)
	alice := s.browser(t)
	bob := s.browser(t)
	visitor := s.browser(t)

	alice.register("alice@x.com", "a", "Alice")
	alice.login("alice@x.com", "a")
	bob.register("bob@x.com", "b", "Bob")
	bob.login("bob@x.com", "b")

	t.Run("members cannot write news", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, bob.get("/write-news").Code)
		assert.Equal(t, http.StatusForbidden, bob.post("/write-news", newsForm("Bob's news", "by bob")).Code)
		assert.Equal(t, http.StatusForbidden, visitor.get("/write-news").Code)
	})

	t.Run("admin publishes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, alice.get("/write-news").Code)
		rec := alice.post("/write-news", newsForm("Launch Day", "We launched."))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		home := visitor.get("/")
		assert.Equal(t, http.StatusOK, home.Code)
		assert.Contains(t, home.Body.String(), "Launch Day")
		assert.NotContains(t, home.Body.String(), "/delete/1")
		assert.Contains(t, alice.get("/").Body.String(), "/delete/1")
	})

	t.Run("member comments", func(t *testing.T) {
		rec := bob.post("/post/1", url.Values{"comment_text": {"Congrats!"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/post/1", rec.Header().Get("Location"))

		page := visitor.get("/post/1")
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), "Congrats!")
		assert.Contains(t, page.Body.String(), "Bob")
	})

	t.Run("anonymous comment is not stored", func(t *testing.T) {
		rec := visitor.post("/post/1", url.Values{"comment_text": {"spam"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))

		login := visitor.get("/login")
		assert.Contains(t, login.Body.String(), controllers.MsgLoginToComment)
		assert.NotContains(t, visitor.get("/post/1").Body.String(), "spam")
	})

	t.Run("member cannot delete", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, bob.post("/delete/1", nil).Code)
		assert.Equal(t, http.StatusOK, visitor.get("/post/1").Code)
	})

	t.Run("anonymous delete goes to login", func(t *testing.T) {
		rec := visitor.post("/delete/1", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, guard.LoginPath, rec.Header().Get("Location"))
		assert.Contains(t, visitor.get("/login").Body.String(), guard.LoginRequiredMessage)
	})

	t.Run("admin deletes with comments", func(t *testing.T) {
		rec := alice.post("/delete/1", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		assert.Equal(t, http.StatusNotFound, visitor.get("/post/1").Code)
		assert.Equal(t, http.StatusNotFound, alice.post("/delete/1", nil).Code)
		assert.Contains(t, visitor.get("/").Body.String(), "No news yet.")
	})
}

func TestLoginMessages(t *testing.T) {
	s := setupTestSite(t)
	b := s.browser(t)
	b.register("alice@x.com", "secret", "Alice")

	rec := b.post("/login", url.Values{"email": {"ghost@x.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	page := b.get("/login").Body.String()
	assert.Contains(t, page, controllers.MsgUserNotFound)

	// Shown once.
	assert.NotContains(t, b.get("/login").Body.String(), controllers.MsgUserNotFound)

	rec = b.post("/login", url.Values{"email": {"alice@x.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), controllers.MsgPasswordMismatch)
	_, loggedIn := b.cookies[session.CookieName]
	assert.False(t, loggedIn)
}

func TestDuplicateRegistration(t *testing.T) {
	s := setupTestSite(t)
	b := s.browser(t)
	b.register("alice@x.com", "secret", "Alice")

	rec := b.post("/register", url.Values{"email": {"Alice@X.com"}, "password": {"other"}, "name": {"Impostor"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), controllers.MsgAlreadyRegistered)

	// The original password still works.
	b.login("alice@x.com", "secret")
	assert.Contains(t, b.get("/").Body.String(), "Alice")
}

func TestLogout(t *testing.T) {
	s := setupTestSite(t)
	b := s.browser(t)
	b.register("alice@x.com", "secret", "Alice")
	b.login("alice@x.com", "secret")
	stolen := b.cookies[session.CookieName]
	require.NotNil(t, stolen)

	rec := b.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, b.cookies, session.CookieName)
	assert.Equal(t, http.StatusForbidden, b.get("/write-news").Code)

	// A copy of the old cookie no longer authenticates.
	replay := s.browser(t)
	replay.cookies[session.CookieName] = stolen
	assert.Equal(t, http.StatusForbidden, replay.get("/write-news").Code)
}

func TestAPI(t *testing.T) {
	s := setupTestSite(t)
	admin := s.browser(t)
	admin.register("alice@x.com", "secret", "Alice")
	admin.login("alice@x.com", "secret")
	require.Equal(t, http.StatusSeeOther, admin.post("/write-news", newsForm("First", "one")).Code)
	require.Equal(t, http.StatusSeeOther, admin.post("/post/1", url.Values{"comment_text": {"hello"}}).Code)

	visitor := s.browser(t)

	rec := visitor.get("/api/posts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var list struct {
		Posts []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "First", list.Posts[0].Title)

	rec = visitor.get("/api/posts/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Author   string `json:"author"`
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Alice", detail.Author)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "hello", detail.Comments[0].Text)

	rec = visitor.get("/api/posts/7")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestMiscRoutes(t *testing.T) {
	s := setupTestSite(t)
	b := s.browser(t)

	tests := []struct {
		path string
		code int
	}{
		{"/about", http.StatusOK},
		{"/contact", http.StatusOK},
		{"/register", http.StatusOK},
		{"/login", http.StatusOK},
		{"/static/style.css", http.StatusOK},
		{"/post/42", http.StatusNotFound},
		{"/no/such/page", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, b.get(tt.path).Code)
		})
	}

	t.Run("delete is post only", func(t *testing.T) {
		assert.Equal(t, http.StatusMethodNotAllowed, b.get("/delete/1").Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := b.get("/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `newsroom_http_requests_total{method="GET",route="/about",status="200"} 1`)
	})
}
