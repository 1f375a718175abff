package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livra/internal/clipboard"
	"github.com/five82/livra/internal/editor"
	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/logging"
	"github.com/five82/livra/internal/markdown"
	"github.com/five82/livra/internal/query"
	"github.com/five82/livra/internal/session"
	"github.com/five82/livra/internal/state"
	"github.com/five82/livra/internal/storage"
)

// View represents the current active view.
type View int

const (
	ViewPosts View = iota
	ViewLogs
)

type pane int

const (
	paneSearch pane = iota
	paneList
	paneContent
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   livra.Backend
	Session   *session.Store
	Queries   *query.Controller
	Store     *state.Store
	// Failures carries failed list searches; the query controller itself
	// only delivers successful pages.
	Failures  <-chan error
	Prefs     *storage.Store
	Clipboard clipboard.Writer
	Logger    *slog.Logger
	LogPath   string
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx      context.Context
	backend  livra.Backend
	session  *session.Store
	queries  *query.Controller
	failures <-chan error
	store    *state.Store
	prefs    *storage.Store
	clip     clipboard.Writer
	logger   *slog.Logger
	logPath  string

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	focus       pane
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal
	flash       string

	// Post list
	snapshot     state.Snapshot
	search       textinput.Model
	ownerOnly    bool
	pendingOwner bool
	selectedRow  int

	// Content
	content      viewport.Model
	renderer     *markdown.Renderer
	doc          markdown.Document
	focusedBlock int
	copies       *markdown.CopyState
	copiedFor    time.Duration

	// Draft kept across editor openings
	draft *editor.Controller

	logs logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.New()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = DefaultThemeName
	}

	search := textinput.New()
	search.Placeholder = "メモを検索..."
	search.Prompt = "/ "

	return Model{
		ctx:          ctx,
		backend:      opts.Backend,
		session:      opts.Session,
		queries:      opts.Queries,
		failures:     opts.Failures,
		store:        store,
		prefs:        opts.Prefs,
		clip:         clip,
		logger:       logger,
		logPath:      opts.LogPath,
		theme:        GetTheme(themeName),
		keys:         DefaultKeyMap(),
		currentView:  ViewPosts,
		focus:        paneList,
		search:       search,
		snapshot:     store.Snapshot(),
		focusedBlock: -1,
		copies:       &markdown.CopyState{},
		copiedFor:    markdown.CopiedFor,
		draft:        editor.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, waitForResult(m.queries), waitForFailure(m.failures))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case queryResultMsg:
		m.applyResult(query.Result(msg))
		return m, waitForResult(m.queries)

	case queryClosedMsg:
		return m, nil

	case queryFailedMsg:
		m.snapshot = m.store.Snapshot()
		return m, waitForFailure(m.failures)

	case postLoadedMsg:
		return m.handlePostLoaded(msg)

	case postCreatedMsg:
		return m.handlePostCreated(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case tagsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("tag catalog load failed", slog.String("error", msg.err.Error()))
			return m, nil
		}
		m.draft.Tags.SetCatalog(msg.tags)
		return m, nil

	case copyExpiredMsg:
		m.copies.Expire(msg.index, msg.token)
		m.refreshContent()
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case logTickMsg:
		if m.currentView != ViewLogs {
			return m, nil
		}
		return m, tea.Batch(readLogCmd(m.logPath), logTickCmd(LogRefreshInterval))
	}

	// Cursor blinks and other component messages.
	if m.modal != nil {
		modal, cmd, _ := m.modal.Update(msg, m.keys)
		m.modal = modal
		return m, cmd
	}
	if m.focus == paneSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.modal.View(m.theme, m.width, m.height))
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.currentView == ViewPosts && m.focus == paneSearch {
		return m.handleSearchKey(msg)
	}
	m.flash = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = ViewPosts
			return m, nil
		}
		m.currentView = ViewLogs
		m.logs.follow = true
		return m, tea.Batch(readLogCmd(m.logPath), logTickCmd(LogRefreshInterval))

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewLogs {
			m.currentView = ViewPosts
			return m, nil
		}
		if m.focus == paneContent {
			m.focus = paneList
		}
		return m, nil
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.focus = paneSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
		if m.focus == paneList {
			m.focus = paneContent
		} else {
			m.focus = paneList
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleMode):
		return m.toggleMode()

	case key.Matches(msg, m.keys.NewPost):
		return m.openEditor()

	case key.Matches(msg, m.keys.Login):
		return m, m.openLogin("")

	case key.Matches(msg, m.keys.Logout):
		m.logout()
		return m, nil

	case key.Matches(msg, m.keys.PrevBlock):
		m.cycleBlock(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextBlock):
		m.cycleBlock(1)
		return m, nil

	case key.Matches(msg, m.keys.CopyBlock):
		return m, m.copyFocusedBlock()
	}

	if m.focus == paneContent {
		return m.handleContentKey(msg)
	}
	return m.handleListKey(msg)
}

// handleSearchKey edits the search box; every change resubmits page 0.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape),
		key.Matches(msg, m.keys.Confirm),
		key.Matches(msg, m.keys.Tab),
		msg.Type == tea.KeyDown:
		m.search.Blur()
		m.focus = paneList
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.submit(0)
	}
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Posts)
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = max(count-1, 0)
	case key.Matches(msg, m.keys.PrevPage):
		if m.snapshot.Page > 0 {
			m.submit(m.snapshot.Page - 1)
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.snapshot.Page < m.snapshot.TotalPages-1 {
			m.submit(m.snapshot.Page + 1)
		}
	case key.Matches(msg, m.keys.Confirm):
		if m.selectedRow < count {
			return m, m.loadPost(m.snapshot.Posts[m.selectedRow].ID)
		}
	}
	return m, nil
}

func (m Model) handleContentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.content.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.content.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.content.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.content.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.content.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.content.GotoBottom()
	}
	return m, nil
}

// submit sends the current search box and mode to the query controller.
func (m *Model) submit(page int) {
	if m.queries == nil {
		return
	}
	req := query.Request{
		Text:      m.search.Value(),
		OwnerOnly: m.ownerOnly,
		Page:      page,
	}
	if user, ok := m.currentUser(); ok {
		req.OwnerID = user.ID
	}
	m.queries.Submit(req)
}

func (m *Model) applyResult(r query.Result) {
	if r.Cleared {
		m.store.Clear()
	} else {
		page := r.Page
		m.store.Update(&page, nil)
	}
	m.snapshot = m.store.Snapshot()
	m.selectedRow = 0
}

func (m *Model) loadPost(id string) tea.Cmd {
	seq := m.store.BeginLoad(id)
	m.snapshot = m.store.Snapshot()
	m.refreshContent()
	return loadPostCmd(m.ctx, m.backend, id, seq)
}

func (m Model) handlePostLoaded(msg postLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("post load failed",
			slog.String("id", msg.id),
			slog.String("error", msg.err.Error()))
	}
	if m.store.FinishLoad(msg.seq, msg.post, msg.err) && msg.err == nil {
		m.showDocument(msg.post)
	}
	m.snapshot = m.store.Snapshot()
	m.refreshContent()
	return m, nil
}

func (m *Model) showDocument(post livra.Post) {
	m.doc = markdown.Parse(post.Content)
	m.copies.Reset()
	m.focusedBlock = -1
	if len(m.doc.CodeBlocks) > 0 {
		m.focusedBlock = 0
	}
	m.content.GotoTop()
}

func (m *Model) cycleBlock(delta int) {
	n := len(m.doc.CodeBlocks)
	if n == 0 || !m.snapshot.HasPost {
		return
	}
	m.focusedBlock = ((m.focusedBlock+delta)%n + n) % n
	m.refreshContent()
}

// copyFocusedBlock copies the focused code block and shows its indicator
// for copiedFor.
func (m *Model) copyFocusedBlock() tea.Cmd {
	if !m.snapshot.HasPost {
		return nil
	}
	code, ok := m.doc.CopyText(m.focusedBlock)
	if !ok {
		return nil
	}
	if err := m.clip.WriteText(code); err != nil {
		m.logger.Warn("clipboard write failed", slog.String("error", err.Error()))
		m.flash = "コピーできませんでした"
		return nil
	}
	index := m.focusedBlock
	token := m.copies.Mark(index)
	m.refreshContent()
	return copyExpireCmd(m.copiedFor, index, token)
}

func (m Model) toggleMode() (tea.Model, tea.Cmd) {
	if !m.ownerOnly && !m.signedIn() {
		m.pendingOwner = true
		return m, m.openLogin("自分のメモを見るにはログインしてください")
	}
	m.setOwnerOnly(!m.ownerOnly)
	return m, nil
}

func (m *Model) setOwnerOnly(on bool) {
	m.ownerOnly = on
	m.search.SetValue("")
	m.store.Deselect()
	m.doc = markdown.Document{}
	m.snapshot = m.store.Snapshot()
	m.submit(0)
	m.refreshContent()
}

func (m Model) openEditor() (tea.Model, tea.Cmd) {
	if !m.signedIn() {
		return m, m.openLogin("メモを書くにはログインしてください")
	}
	token := m.session.Token()
	modal := newEditorModal(m.draft, m.width, m.height, func(draft livra.NewPost) tea.Cmd {
		return createPostCmd(m.ctx, m.backend, token, draft)
	})
	m.modal = modal
	return m, tea.Batch(modal.Init(), loadTagsCmd(m.ctx, m.backend))
}

func (m Model) handlePostCreated(msg postCreatedMsg) (tea.Model, tea.Cmd) {
	post, err := m.draft.CompleteSave(msg.post, msg.err)
	if err != nil {
		m.logger.Warn("post create failed", slog.String("error", err.Error()))
		return m, nil
	}
	if _, ok := m.modal.(*editorModal); ok {
		m.modal = nil
	}
	m.store.Prepend(post)
	seq := m.store.BeginLoad(post.ID)
	m.store.FinishLoad(seq, post, nil)
	m.showDocument(post)
	m.snapshot = m.store.Snapshot()
	m.selectedRow = 0
	m.flash = "保存しました"
	m.refreshContent()
	return m, nil
}

func (m *Model) openLogin(note string) tea.Cmd {
	if m.session == nil || m.backend == nil {
		return nil
	}
	sess, backend, ctx := m.session, m.backend, m.ctx
	modal := newPromptModal("Googleでログイン", note, "Google ID トークン", true, func(value string) tea.Cmd {
		return loginCmd(ctx, sess, backend, value)
	})
	m.modal = modal
	return modal.Init()
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	prompt, _ := m.modal.(*promptModal)
	if msg.err != nil {
		m.logger.Warn("login failed", slog.String("error", msg.err.Error()))
		m.pendingOwner = false
		if prompt != nil {
			prompt.Fail("ログインに失敗しました: " + msg.err.Error())
		}
		return m, nil
	}
	if prompt != nil {
		m.modal = nil
	}
	m.flash = msg.user.Name + " としてログインしました"
	if m.pendingOwner {
		m.pendingOwner = false
		m.setOwnerOnly(true)
	}
	m.refreshContent()
	return m, nil
}

func (m *Model) logout() {
	if m.session == nil || !m.session.SignedIn() {
		return
	}
	if err := m.session.Logout(); err != nil {
		m.logger.Warn("logout failed", slog.String("error", err.Error()))
	}
	m.draft.Reset()
	m.flash = "ログアウトしました"
	if m.ownerOnly {
		m.setOwnerOnly(false)
		return
	}
	m.refreshContent()
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	modal, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
		m.pendingOwner = false
		return m, cmd
	}
	m.modal = modal
	return m, cmd
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefs != nil {
		if err := m.prefs.Set(storage.KeyTheme, m.theme.Name); err != nil {
			m.logger.Warn("save theme failed", slog.String("error", err.Error()))
		}
	}
	m.refreshContent()
	m.refreshLogs()
}

func (m Model) currentUser() (session.User, bool) {
	if m.session == nil {
		return session.User{}, false
	}
	return m.session.User()
}

func (m Model) signedIn() bool {
	_, ok := m.currentUser()
	return ok
}

// renderMain renders the header, command bar and the active view.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.currentView == ViewLogs {
		b.WriteString(m.renderLogs())
		return b.String()
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderContent()))
	return b.String()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
