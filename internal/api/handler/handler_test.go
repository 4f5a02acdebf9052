package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/api/middleware"
	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

type stubResolver struct {
	id string
}

func (s stubResolver) Resolve(header string) (domain.CallerIdentity, error) {
	if header != "Bearer good" {
		return domain.CallerIdentity{}, domain.ErrUnauthenticated
	}
	return domain.CallerIdentity{ID: s.id}, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// authed runs h behind the Auth middleware with a fixed caller.
func authed(callerID string, h echo.HandlerFunc) echo.HandlerFunc {
	return middleware.Auth(stubResolver{id: callerID})(h)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func assertHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

// --- auth ---

type stubAuthService struct {
	registerFn func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*domain.User, error) {
			if username != "alice" || email != "alice@x.com" || password != "pw123" {
				t.Fatalf("unexpected args: %s %s %s", username, email, password)
			}
			return &domain.User{ID: "u1", Username: username, Email: email, PasswordHash: "hash", APIKey: "key"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/registration", `{"name":"alice","email":"alice@x.com","password":"pw123"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["id"] != "u1" || resp["name"] != "alice" || resp["verified"] != false {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "hash") || strings.Contains(rec.Body.String(), "key") {
		t.Fatalf("secrets leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	for _, body := range []string{
		`{"name":"alice","password":"pw"}`,
		`{"name":"alice","email":"not-an-email","password":"pw"}`,
		`{"email":"alice@x.com","password":"pw"}`,
		`{bad json`,
	} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/registration", body), httptest.NewRecorder())
		assertHTTPStatus(t, handler.Register(c), http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*domain.User, error) {
			return nil, errors.Join(domain.ErrUsernameTaken, domain.ErrEmailTaken)
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/registration", `{"name":"bob","email":"b@x.com","password":"pw"}`), httptest.NewRecorder())
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrUsernameTaken) || !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected both conflicts, got %v", err)
	}
}

func TestAuthHandler_Login_JSONAndForm(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			if username != "alice" || password != "pw123" {
				return nil, domain.ErrInvalidCredentials
			}
			return &ports.LoginResult{AccessToken: "tok", TokenType: "bearer"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	form := url.Values{"username": {"alice"}, "password": {"pw123"}}.Encode()
	formReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
	formReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	for name, req := range map[string]*http.Request{
		"json": jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"pw123"}`),
		"form": formReq,
	} {
		rec := httptest.NewRecorder()
		if err := handler.Login(e.NewContext(req, rec)); err != nil {
			t.Fatalf("%s: handler error: %v", name, err)
		}
		var resp tokenResponse
		decode(t, rec, &resp)
		if resp.AccessToken != "tok" || resp.TokenType != "bearer" {
			t.Fatalf("%s: unexpected response %+v", name, resp)
		}
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"bad"}`), httptest.NewRecorder())
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// --- users / otp / password ---

type stubUserService struct {
	users map[string]*domain.User
}

func (s *stubUserService) Details(_ context.Context, caller domain.CallerIdentity) (*domain.User, error) {
	u, ok := s.users[caller.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func TestUserHandler_Details(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubUserService{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "alice", Email: "alice@x.com", Verified: true},
	}})

	req := httptest.NewRequest(http.MethodGet, "/details", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	if err := authed("u1", handler.Details)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp userResponse
	decode(t, rec, &resp)
	if resp.Name != "alice" || !resp.Verified {
		t.Fatalf("unexpected response %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/details", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	if err := authed("ghost", handler.Details)(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := handler.Details(e.NewContext(httptest.NewRequest(http.MethodGet, "/details", nil), httptest.NewRecorder())); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without middleware, got %v", err)
	}
}

type stubVerificationService struct {
	requested []string
	code      string
}

func (s *stubVerificationService) RequestOTP(_ context.Context, caller domain.CallerIdentity) error {
	s.requested = append(s.requested, caller.ID)
	return nil
}

func (s *stubVerificationService) VerifyOTP(_ context.Context, _ domain.CallerIdentity, code string) error {
	if code != s.code {
		return domain.ErrInvalidOTP
	}
	return nil
}

func TestOTPHandler(t *testing.T) {
	e := newEcho()
	stub := &stubVerificationService{code: "123456"}
	handler := NewOTPHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/otp", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	if err := authed("u1", handler.Request)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("request error: %v", err)
	}
	if len(stub.requested) != 1 || stub.requested[0] != "u1" {
		t.Fatalf("unexpected requests %v", stub.requested)
	}

	req = jsonRequest(http.MethodPost, "/otp", `{"otp":"123456"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec = httptest.NewRecorder()
	if err := authed("u1", handler.Verify)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("verify error: %v", err)
	}
	var resp messageResponse
	decode(t, rec, &resp)
	if resp.Msg != "User successfully verified" {
		t.Fatalf("unexpected message %q", resp.Msg)
	}

	req = jsonRequest(http.MethodPost, "/otp", `{"otp":"000000"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	if err := authed("u1", handler.Verify)(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/otp", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bad")
	if err := authed("u1", handler.Request)(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

type stubPasswordService struct {
	lastToken string
}

func (s *stubPasswordService) RequestReset(_ context.Context, email string) error {
	if email != "alice@x.com" {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *stubPasswordService) ResetPassword(_ context.Context, token, _ string) (*domain.User, error) {
	s.lastToken = token
	return &domain.User{ID: "u1", Username: "alice"}, nil
}

func TestPasswordHandler(t *testing.T) {
	e := newEcho()
	stub := &stubPasswordService{}
	handler := NewPasswordHandler(stub)

	rec := httptest.NewRecorder()
	if err := handler.RequestReset(e.NewContext(jsonRequest(http.MethodPost, "/password/request", `{"email":"alice@x.com"}`), rec)); err != nil {
		t.Fatalf("request error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	err := handler.RequestReset(e.NewContext(jsonRequest(http.MethodPost, "/password/request", `{"email":"bob@x.com"}`), httptest.NewRecorder()))
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	rec = httptest.NewRecorder()
	if err := handler.Reset(e.NewContext(jsonRequest(http.MethodPut, "/password/reset?token=abc", `{"password":"new"}`), rec)); err != nil {
		t.Fatalf("reset error: %v", err)
	}
	if stub.lastToken != "abc" {
		t.Fatalf("token not forwarded, got %q", stub.lastToken)
	}

	err = handler.Reset(e.NewContext(jsonRequest(http.MethodPut, "/password/reset", `{"password":"new"}`), httptest.NewRecorder()))
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without token, got %v", err)
	}
}

// --- blog ---

type stubBlogService struct {
	listInput ports.ListPostsInput
	posts     map[string]*domain.Post
}

func (s *stubBlogService) List(_ context.Context, in ports.ListPostsInput) ([]*domain.Post, error) {
	s.listInput = in
	out := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubBlogService) Get(_ context.Context, id string) (*domain.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return p, nil
}

func (s *stubBlogService) Create(_ context.Context, caller domain.CallerIdentity, in ports.CreatePostInput) (*domain.Post, error) {
	p := &domain.Post{ID: "p9", Title: in.Title, Body: in.Body, AuthorID: caller.ID, CreatedAt: time.Now().UTC()}
	s.posts[p.ID] = p
	return p, nil
}

func (s *stubBlogService) Update(_ context.Context, caller domain.CallerIdentity, id string, patch domain.PostPatch) (*domain.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	if !domain.Authorize(caller, p.AuthorID) {
		return nil, domain.ErrForbidden
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	return p, nil
}

func (s *stubBlogService) Delete(_ context.Context, caller domain.CallerIdentity, id string) error {
	p, ok := s.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	if !domain.Authorize(caller, p.AuthorID) {
		return domain.ErrForbidden
	}
	delete(s.posts, id)
	return nil
}

func newStubBlog() *stubBlogService {
	return &stubBlogService{posts: map[string]*domain.Post{
		"p1": {ID: "p1", Title: "Hello", Body: "World", AuthorID: "u1", AuthorName: "alice"},
	}}
}

func TestBlogHandler_ListQuery(t *testing.T) {
	e := newEcho()
	stub := newStubBlog()
	handler := NewBlogHandler(stub)

	rec := httptest.NewRecorder()
	if err := handler.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/blog?limit=10&orderby=title", nil), rec)); err != nil {
		t.Fatalf("list error: %v", err)
	}
	if stub.listInput.Limit != 10 || stub.listInput.OrderBy != "title" {
		t.Fatalf("unexpected list input %+v", stub.listInput)
	}
	var posts []domain.Post
	decode(t, rec, &posts)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}

	for _, target := range []string{"/blog?orderby=password", "/blog?limit=-1", "/blog?limit=abc"} {
		err := handler.List(e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
		assertHTTPStatus(t, err, http.StatusBadRequest)
	}
}

func TestBlogHandler_Get(t *testing.T) {
	e := newEcho()
	handler := NewBlogHandler(newStubBlog())

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/blog/p1", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := handler.Get(c); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestBlogHandler_CreateUpdateDelete(t *testing.T) {
	e := newEcho()
	stub := newStubBlog()
	handler := NewBlogHandler(stub)

	req := jsonRequest(http.MethodPost, "/blog", `{"title":"T","body":"B"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	if err := authed("u2", handler.Create)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created domain.Post
	decode(t, rec, &created)
	if created.AuthorID != "u2" {
		t.Fatalf("author not taken from caller: %+v", created)
	}

	req = jsonRequest(http.MethodPost, "/blog", `{"title":"","body":"B"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	assertHTTPStatus(t, authed("u2", handler.Create)(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest)

	update := func(caller, id, body string) (*httptest.ResponseRecorder, error) {
		req := jsonRequest(http.MethodPut, "/blog/"+id, body)
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return rec, authed(caller, handler.Update)(c)
	}

	if _, err := update("u2", "p1", `{"title":"hijack"}`); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	rec, err := update("u1", "p1", `{"title":"New"}`)
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	var updated domain.Post
	decode(t, rec, &updated)
	if updated.Title != "New" {
		t.Fatalf("unexpected post %+v", updated)
	}

	del := func(caller, id string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodDelete, "/blog/"+id, nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return rec, authed(caller, handler.Delete)(c)
	}

	if _, err := del("u2", "p1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	rec, err = del("u1", "p1")
	if err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, err := del("u1", "p1"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

// --- health ---

func TestHealthHandlers(t *testing.T) {
	e := newEcho()

	rec := httptest.NewRecorder()
	if err := NewHealthHandler().Liveness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("liveness error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ready := NewHealthDependenciesHandler(map[string]DependencyCheck{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	if err := ready.Readiness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)); err != nil {
		t.Fatalf("readiness error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	decode(t, rec, &resp)
	if resp.Dependencies["mongodb"].Status != "ok" || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("unexpected readiness %+v", resp)
	}
}
