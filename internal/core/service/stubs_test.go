package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	seq       int
	createErr error
	findErr   error
	matchOver *int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("u%d", r.seq)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matchOver != nil {
		return *r.matchOver, nil
	}
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	u.Verified = true
	return 1, nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

type stubOTPRepo struct {
	mu      sync.Mutex
	records []*domain.OTPRecord
	seq     int
}

func (r *stubOTPRepo) Create(_ context.Context, rec *domain.OTPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *rec
	stored.ID = fmt.Sprintf("otp%d", r.seq)
	r.records = append(r.records, &stored)
	return nil
}

func (r *stubOTPRepo) FindMatch(_ context.Context, userID, code string) (*domain.OTPRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Code == code {
			found := *rec
			return &found, nil
		}
	}
	return nil, domain.ErrInvalidOTP
}

func (r *stubOTPRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

func (r *stubOTPRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type stubPostRepo struct {
	mu      sync.Mutex
	posts   map[string]*domain.Post
	seq     int
	lastRun ports.ListPostsFilter
	finds   int
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *stubPostRepo) Create(_ context.Context, post *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *post
	stored.ID = fmt.Sprintf("p%d", r.seq)
	r.posts[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	out := *p
	return &out, nil
}

func (r *stubPostRepo) List(_ context.Context, filter ports.ListPostsFilter) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = filter
	out := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *stubPostRepo) Update(_ context.Context, id string, patch domain.PostPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Body != nil {
		p.Body = *patch.Body
	}
	return 1, nil
}

func (r *stubPostRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return 0, nil
	}
	delete(r.posts, id)
	return 1, nil
}

type stubPostCache struct {
	mu          sync.Mutex
	posts       map[string]*domain.Post
	invalidated []string
}

func newStubPostCache() *stubPostCache {
	return &stubPostCache{posts: make(map[string]*domain.Post)}
}

func (c *stubPostCache) Get(_ context.Context, id string) (*domain.Post, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.posts[id]
	if !ok {
		return nil, false, nil
	}
	out := *p
	return &out, true, nil
}

func (c *stubPostCache) Set(_ context.Context, post *domain.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *post
	c.posts[post.ID] = &stored
	return nil
}

func (c *stubPostCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.posts, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type sentMessage struct {
	template  string
	recipient string
	vars      map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, template, recipient string, vars map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{template: template, recipient: recipient, vars: vars})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fixedCode struct {
	codes []string
	next  int
}

func (f *fixedCode) Generate() (string, error) {
	code := f.codes[f.next%len(f.codes)]
	f.next++
	return code, nil
}
