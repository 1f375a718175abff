package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/logging"
	"github.com/five82/livra/internal/query"
	"github.com/five82/livra/internal/session"
)

// Messages

type queryResultMsg query.Result

type queryClosedMsg struct{}

type queryFailedMsg struct{ err error }

type postLoadedMsg struct {
	seq  uint64
	id   string
	post livra.Post
	err  error
}

type postCreatedMsg struct {
	post livra.Post
	err  error
}

type loginDoneMsg struct {
	user session.User
	err  error
}

type tagsLoadedMsg struct {
	tags []livra.Tag
	err  error
}

type copyExpiredMsg struct {
	index int
	token uint64
}

type logLinesMsg struct {
	lines []string
	err   error
}

type logTickMsg time.Time

// Commands

// waitForResult blocks on the controller's next list replacement.
func waitForResult(c *query.Controller) tea.Cmd {
	if c == nil {
		return nil
	}
	results := c.Results()
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return queryClosedMsg{}
		}
		return queryResultMsg(r)
	}
}

// waitForFailure blocks on the next failed search.
func waitForFailure(failures <-chan error) tea.Cmd {
	if failures == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-failures
		if !ok {
			return queryClosedMsg{}
		}
		return queryFailedMsg{err: err}
	}
}

func loadPostCmd(ctx context.Context, backend livra.Backend, id string, seq uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		post, err := backend.FetchPost(ctx, id)
		return postLoadedMsg{seq: seq, id: id, post: post, err: err}
	}
}

func createPostCmd(ctx context.Context, backend livra.Backend, token string, draft livra.NewPost) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		post, err := backend.CreatePost(ctx, token, draft)
		return postCreatedMsg{post: post, err: err}
	}
}

func loginCmd(ctx context.Context, sess *session.Store, backend livra.Backend, idToken string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		user, err := sess.Login(ctx, backend, idToken)
		return loginDoneMsg{user: user, err: err}
	}
}

func loadTagsCmd(ctx context.Context, backend livra.Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		tags, err := backend.ListTags(ctx)
		return tagsLoadedMsg{tags: tags, err: err}
	}
}

func copyExpireCmd(d time.Duration, index int, token uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return copyExpiredMsg{index: index, token: token}
	})
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logging.Tail(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func logTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}
