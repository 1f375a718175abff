package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/livra/internal/editor"
	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/query"
	"github.com/five82/livra/internal/session"
	"github.com/five82/livra/internal/storage"
)

type fakeBackend struct {
	mu      sync.Mutex
	token   string
	created []livra.NewPost
	gotAuth string
	posts   map[string]livra.Post
	tags    []livra.Tag
	saveErr error
}

func (f *fakeBackend) ListPosts(_ context.Context, q livra.ListQuery) (livra.PostPage, error) {
	return livra.PostPage{
		Posts:      []livra.PostSummary{{ID: "id-" + q.Search, Title: q.Search}},
		TotalPages: 3,
	}, nil
}

func (f *fakeBackend) FetchPost(_ context.Context, id string) (livra.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return livra.Post{}, &livra.StatusError{StatusCode: 404}
}

func (f *fakeBackend) CreatePost(_ context.Context, token string, post livra.NewPost) (livra.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotAuth = token
	f.created = append(f.created, post)
	if f.saveErr != nil {
		return livra.Post{}, f.saveErr
	}
	return livra.Post{ID: "new-1", Title: post.Title, Content: post.Content}, nil
}

func (f *fakeBackend) ListTags(context.Context) ([]livra.Tag, error) {
	return f.tags, nil
}

func (f *fakeBackend) ExchangeGoogleToken(context.Context, string) (livra.AuthResponse, error) {
	return livra.AuthResponse{AccessToken: f.token}, nil
}

type fakeClipboard struct {
	text []string
}

func (c *fakeClipboard) WriteText(s string) error {
	c.text = append(c.text, s)
	return nil
}

func signedToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u1",
		"email": "ada@example.com",
		"name":  "Ada",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func newSession(t *testing.T) *session.Store {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.toml"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	return session.New(kv)
}

func newTestModel(t *testing.T, backend *fakeBackend, sess *session.Store, clip *fakeClipboard) Model {
	t.Helper()
	opts := Options{Backend: backend, Session: sess}
	if clip != nil {
		opts.Clipboard = clip
	}
	m := New(opts)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCopyIndicatorExpires(t *testing.T) {
	clip := &fakeClipboard{}
	m := newTestModel(t, &fakeBackend{}, nil, clip)
	m.copiedFor = time.Millisecond

	seq := m.store.BeginLoad("p1")
	m = update(t, m, postLoadedMsg{seq: seq, id: "p1", post: livra.Post{
		ID:      "p1",
		Title:   "Snippets",
		Content: "intro\n\n```go\nfmt.Println(1)\n```\n",
	}})
	if m.focusedBlock != 0 {
		t.Fatalf("focusedBlock = %d, want 0", m.focusedBlock)
	}

	m, cmd := updateCmd(t, m, runes("y"))
	if cmd == nil {
		t.Fatal("copy returned no expiry command")
	}
	if len(clip.text) != 1 || clip.text[0] != "fmt.Println(1)" {
		t.Fatalf("clipboard = %q, want the code block", clip.text)
	}
	if !m.copies.Copied(0) || !strings.Contains(m.View(), "Copied!") {
		t.Fatal("indicator not shown after copy")
	}

	m = update(t, m, cmd())
	if m.copies.Copied(0) || strings.Contains(m.View(), "Copied!") {
		t.Fatal("indicator still shown after expiry")
	}
}

func TestCopyAgainRestartsWindow(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil, &fakeClipboard{})
	m.copiedFor = time.Millisecond
	seq := m.store.BeginLoad("p1")
	m = update(t, m, postLoadedMsg{seq: seq, id: "p1", post: livra.Post{
		ID: "p1", Title: "t", Content: "```go\nx\n```\n",
	}})

	m, cmd := updateCmd(t, m, runes("y"))
	if cmd == nil {
		t.Fatal("first copy returned no expiry command")
	}
	first, ok := cmd().(copyExpiredMsg)
	if !ok {
		t.Fatal("first copy did not schedule an expiry")
	}
	m = update(t, m, runes("y"))

	m = update(t, m, first)
	if !m.copies.Copied(0) {
		t.Fatal("first expiry cleared the second copy")
	}
}

func TestStalePostLoadIgnored(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil, nil)

	older := m.store.BeginLoad("a")
	newer := m.store.BeginLoad("b")

	m = update(t, m, postLoadedMsg{seq: newer, id: "b", post: livra.Post{ID: "b", Title: "B"}})
	m = update(t, m, postLoadedMsg{seq: older, id: "a", post: livra.Post{ID: "a", Title: "A"}})

	if !m.snapshot.HasPost || m.snapshot.Post.ID != "b" {
		t.Fatalf("post = %+v, want b", m.snapshot.Post)
	}
}

func TestPostLoadFailureKeepsContent(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil, nil)

	seq := m.store.BeginLoad("a")
	m = update(t, m, postLoadedMsg{seq: seq, id: "a", post: livra.Post{ID: "a", Title: "A"}})
	seq = m.store.BeginLoad("b")
	m = update(t, m, postLoadedMsg{seq: seq, id: "b", err: errors.New("boom")})

	if m.snapshot.Post.ID != "a" || m.snapshot.Loading {
		t.Fatalf("snapshot = %+v, want post a and not loading", m.snapshot)
	}
}

func TestToggleModeRequiresLogin(t *testing.T) {
	backend := &fakeBackend{token: signedToken(t)}
	sess := newSession(t)
	m := newTestModel(t, backend, sess, nil)

	m = update(t, m, runes("m"))
	prompt, ok := m.modal.(*promptModal)
	if !ok {
		t.Fatalf("modal = %T, want login prompt", m.modal)
	}
	if m.ownerOnly {
		t.Fatal("owner mode enabled without a session")
	}

	m = update(t, m, runes("google-id-token"))
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !prompt.busy {
		t.Fatal("enter did not start the login")
	}

	m = update(t, m, cmd())
	if m.modal != nil {
		t.Fatalf("modal still open: %T", m.modal)
	}
	if !m.ownerOnly || !m.signedIn() {
		t.Fatalf("ownerOnly = %v signedIn = %v, want both", m.ownerOnly, m.signedIn())
	}
	if !strings.Contains(m.View(), labelMine) {
		t.Fatal("header does not show the owner mode")
	}
}

func TestLoginPromptCancelDropsPendingMode(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, newSession(t), nil)

	m = update(t, m, runes("m"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != nil || m.pendingOwner || m.ownerOnly {
		t.Fatalf("modal=%T pending=%v owner=%v after cancel", m.modal, m.pendingOwner, m.ownerOnly)
	}
}

func TestSearchReplacesList(t *testing.T) {
	backend := &fakeBackend{}
	queries := query.New(backend, query.WithScheduler(func(_ time.Duration, fn func()) func() bool {
		go fn()
		return func() bool { return false }
	}))
	t.Cleanup(queries.Close)

	m := New(Options{Backend: backend, Queries: queries})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes("/"))
	if m.focus != paneSearch {
		t.Fatalf("focus = %v, want search", m.focus)
	}
	m = update(t, m, runes("go"))

	m = update(t, m, waitForResult(queries)())
	if len(m.snapshot.Posts) != 1 || m.snapshot.Posts[0].ID != "id-go" {
		t.Fatalf("posts = %+v, want id-go", m.snapshot.Posts)
	}
	if m.snapshot.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", m.snapshot.TotalPages)
	}
	if !strings.Contains(m.View(), "go") {
		t.Fatal("list row not rendered")
	}
}

type recordingLister struct {
	queries chan livra.ListQuery
}

func (l *recordingLister) ListPosts(_ context.Context, q livra.ListQuery) (livra.PostPage, error) {
	l.queries <- q
	return livra.PostPage{
		Posts:      []livra.PostSummary{{ID: "p1", Title: "Snippets"}},
		TotalPages: 1,
	}, nil
}

func (l *recordingLister) next(t *testing.T) livra.ListQuery {
	t.Helper()
	select {
	case q := <-l.queries:
		return q
	case <-time.After(2 * time.Second):
		t.Fatal("no list request sent")
		return livra.ListQuery{}
	}
}

func TestToggleModeResetsSearchAndQueriesOwner(t *testing.T) {
	backend := &fakeBackend{
		token: signedToken(t),
		posts: map[string]livra.Post{"p1": {ID: "p1", Title: "Snippets", Content: "body"}},
	}
	sess := newSession(t)
	if _, err := sess.Login(context.Background(), backend, "google-id-token"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	lister := &recordingLister{queries: make(chan livra.ListQuery, 4)}
	queries := query.New(lister, query.WithScheduler(func(_ time.Duration, fn func()) func() bool {
		go fn()
		return func() bool { return false }
	}))
	t.Cleanup(queries.Close)

	m := New(Options{Backend: backend, Session: sess, Queries: queries})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes("/"))
	m = update(t, m, runes("go"))
	if got := lister.next(t); got.Search != "go" {
		t.Fatalf("search query = %+v, want go", got)
	}
	m = update(t, m, waitForResult(queries)())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter did not load the post")
	}
	m = update(t, m, cmd())
	if !m.snapshot.HasPost {
		t.Fatal("post not shown before toggle")
	}

	m = update(t, m, runes("m"))
	if !m.ownerOnly {
		t.Fatal("owner mode not enabled")
	}
	if m.search.Value() != "" {
		t.Fatalf("search = %q, want empty", m.search.Value())
	}
	if m.snapshot.HasPost {
		t.Fatal("selected post kept across mode toggle")
	}
	want := livra.ListQuery{Search: "", UserID: "u1", Page: 0}
	if got := lister.next(t); got != want {
		t.Fatalf("owner query = %+v, want %+v", got, want)
	}
	m = update(t, m, waitForResult(queries)())

	m = update(t, m, runes("m"))
	if m.ownerOnly {
		t.Fatal("owner mode still enabled")
	}
	msg, ok := waitForResult(queries)().(queryResultMsg)
	if !ok || !msg.Cleared {
		t.Fatalf("result = %+v, want cleared", msg)
	}
	m = update(t, m, msg)
	if len(m.snapshot.Posts) != 0 {
		t.Fatalf("posts = %+v, want empty", m.snapshot.Posts)
	}
	select {
	case q := <-lister.queries:
		t.Fatalf("unexpected list request %+v", q)
	default:
	}
}

func signedInModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	backend.token = signedToken(t)
	sess := newSession(t)
	if _, err := sess.Login(context.Background(), backend, "google-id-token"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return newTestModel(t, backend, sess, nil)
}

func TestNewPostRequiresLogin(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, newSession(t), nil)
	m = update(t, m, runes("n"))
	if _, ok := m.modal.(*promptModal); !ok {
		t.Fatalf("modal = %T, want login prompt", m.modal)
	}
}

func TestEditorSaveBlankTitle(t *testing.T) {
	backend := &fakeBackend{}
	m := signedInModel(t, backend)

	m = update(t, m, runes("n"))
	if _, ok := m.modal.(*editorModal); !ok {
		t.Fatalf("modal = %T, want editor", m.modal)
	}
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("save with a blank title produced a command")
	}
	if !errors.Is(m.draft.Err(), editor.ErrTitleRequired) {
		t.Fatalf("draft err = %v, want ErrTitleRequired", m.draft.Err())
	}
	if !strings.Contains(m.View(), editor.ErrTitleRequired.Error()) {
		t.Fatal("validation message not shown")
	}
	if len(backend.created) != 0 {
		t.Fatalf("backend saw %d creates, want 0", len(backend.created))
	}
}

func TestEditorSaveSuccess(t *testing.T) {
	backend := &fakeBackend{}
	m := signedInModel(t, backend)

	m = update(t, m, runes("n"))
	m = update(t, m, runes("  Hello "))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, runes("body"))

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("save produced no command")
	}
	if m.draft.State() != editor.Saving {
		t.Fatalf("state = %v, want saving", m.draft.State())
	}

	m = update(t, m, cmd())
	if m.modal != nil {
		t.Fatalf("modal still open: %T", m.modal)
	}
	if len(backend.created) != 1 {
		t.Fatalf("creates = %d, want 1", len(backend.created))
	}
	if got := backend.created[0]; got.Title != "Hello" || got.Content != "body" {
		t.Fatalf("created %+v", got)
	}
	if backend.gotAuth != backend.token {
		t.Fatal("create was not authorized with the session token")
	}
	if len(m.snapshot.Posts) == 0 || m.snapshot.Posts[0].ID != "new-1" {
		t.Fatalf("posts = %+v, want new-1 first", m.snapshot.Posts)
	}
	if m.snapshot.Post.ID != "new-1" || m.draft.State() != editor.Empty {
		t.Fatalf("post = %q state = %v", m.snapshot.Post.ID, m.draft.State())
	}
}

func TestEditorSaveFailureKeepsDraft(t *testing.T) {
	backend := &fakeBackend{saveErr: errors.New("backend down")}
	m := signedInModel(t, backend)

	m = update(t, m, runes("n"))
	m = update(t, m, runes("Draft"))
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = update(t, m, cmd())

	if _, ok := m.modal.(*editorModal); !ok {
		t.Fatalf("modal = %T, want editor still open", m.modal)
	}
	if m.draft.State() != editor.Error || m.draft.Title() != "Draft" {
		t.Fatalf("state = %v title = %q", m.draft.State(), m.draft.Title())
	}
	if !strings.Contains(m.View(), "backend down") {
		t.Fatal("save error not shown")
	}

	// Closing and reopening keeps the draft.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = update(t, m, runes("n"))
	if e := m.modal.(*editorModal); e.title.Value() != "Draft" {
		t.Fatalf("reopened title = %q, want Draft", e.title.Value())
	}
}

func TestEditorToolbarFormatsSelection(t *testing.T) {
	m := signedInModel(t, &fakeBackend{})

	m = update(t, m, runes("n"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, runes("abc"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlAt})
	for range 3 {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})

	if got := m.draft.Content(); got != "**abc**" {
		t.Fatalf("content = %q, want **abc**", got)
	}
	e := m.modal.(*editorModal)
	if sel := e.selection(); sel.Start != 2 || sel.End != 5 {
		t.Fatalf("selection = %+v, want 2..5", sel)
	}

	// Typing replaces the selection.
	m = update(t, m, runes("x"))
	if got := m.draft.Content(); got != "**x**" {
		t.Fatalf("content = %q, want **x**", got)
	}
}

func TestEditorLinkPromptsForURL(t *testing.T) {
	m := signedInModel(t, &fakeBackend{})

	m = update(t, m, runes("n"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("6"), Alt: true})
	e := m.modal.(*editorModal)
	if e.prompt == nil {
		t.Fatal("link did not ask for a URL")
	}

	// Cancelling leaves the body alone.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if e.prompt != nil || m.draft.Content() != "" {
		t.Fatalf("prompt = %v content = %q after cancel", e.prompt, m.draft.Content())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("6"), Alt: true})
	m = update(t, m, runes("https://a.b"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.draft.Content(); got != "[リンクテキスト](https://a.b)" {
		t.Fatalf("content = %q", got)
	}
}

func TestEditorTags(t *testing.T) {
	backend := &fakeBackend{tags: []livra.Tag{
		{ID: "t1", Name: "go", UsageCount: 9},
		{ID: "t2", Name: "rust", UsageCount: 3},
	}}
	m := signedInModel(t, backend)

	m = update(t, m, runes("n"))
	m = update(t, m, loadTagsCmd(context.Background(), backend)())

	// title -> body -> tags
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, runes("fresh"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	got := m.draft.Tags.Selected()
	if len(got) != 2 || got[0].Name != "fresh" || got[0].Persisted() || got[1].ID != "t1" {
		t.Fatalf("selected = %+v, want fresh then go", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if names := m.draft.Tags.Names(); len(names) != 1 || names[0] != "fresh" {
		t.Fatalf("names = %v after backspace, want [fresh]", names)
	}
}

func TestLogoutLeavesOwnerMode(t *testing.T) {
	m := signedInModel(t, &fakeBackend{})
	m = update(t, m, runes("m"))
	if !m.ownerOnly {
		t.Fatal("owner mode not enabled while signed in")
	}
	m = update(t, m, runes("X"))
	if m.ownerOnly || m.signedIn() {
		t.Fatalf("ownerOnly = %v signedIn = %v after logout", m.ownerOnly, m.signedIn())
	}
}

func TestCycleThemePersists(t *testing.T) {
	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.toml"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	m := New(Options{Prefs: kv})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = update(t, m, runes("T"))

	want := NextTheme(DefaultThemeName)
	if m.theme.Name != want {
		t.Fatalf("theme = %q, want %q", m.theme.Name, want)
	}
	got, ok, err := kv.Get(storage.KeyTheme)
	if err != nil || !ok || got != want {
		t.Fatalf("stored theme = %q ok=%v err=%v, want %q", got, ok, err, want)
	}
}

func TestSearchFailureMarksOffline(t *testing.T) {
	failures := make(chan error, 2)
	m := New(Options{Failures: failures})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	for range 2 {
		err := errors.New("dial tcp: connection refused")
		m.store.Update(nil, err)
		failures <- err
		m = update(t, m, waitForFailure(failures)())
	}
	if !m.snapshot.IsOffline() {
		t.Fatal("two failures did not mark the backend offline")
	}
	if !strings.Contains(m.View(), "OFFLINE") {
		t.Fatal("header does not show OFFLINE")
	}
}
