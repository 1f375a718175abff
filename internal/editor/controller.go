// Package editor holds the draft behind the new-post modal: its fields, the
// save state machine and the markdown toolbar transforms.
package editor

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/tags"
)

// ErrTitleRequired is reported when a save is attempted with a blank title.
var ErrTitleRequired = errors.New("タイトルを入力してください。")

// State is the editor lifecycle stage.
type State int

const (
	Empty State = iota
	Editing
	Saving
	Error
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Error:
		return "error"
	}
	return "unknown"
}

// Creator stores a new post on the backend.
type Creator interface {
	CreatePost(ctx context.Context, token string, post livra.NewPost) (livra.Post, error)
}

// Controller owns one draft. It is not safe for concurrent use; the UI
// drives it from its update loop.
type Controller struct {
	title   string
	content string
	state   State
	err     error

	Tags *tags.Selector
}

// New returns an empty controller.
func New() *Controller {
	return &Controller{Tags: tags.NewSelector(nil)}
}

func (c *Controller) Title() string   { return c.title }
func (c *Controller) Content() string { return c.content }
func (c *Controller) State() State    { return c.state }

// Err is the last validation or save error, or nil.
func (c *Controller) Err() error { return c.err }

// CharCount is the number of characters in the body.
func (c *Controller) CharCount() int {
	return utf8.RuneCountInString(c.content)
}

// SetTitle updates the title. Edits are ignored while a save is in flight.
func (c *Controller) SetTitle(title string) {
	if c.state == Saving {
		return
	}
	c.title = title
	c.touch()
}

// SetContent updates the body.
func (c *Controller) SetContent(content string) {
	if c.state == Saving {
		return
	}
	c.content = content
	c.touch()
}

func (c *Controller) touch() {
	if c.state == Error {
		c.err = nil
	}
	if c.title == "" && c.content == "" {
		c.state = Empty
		return
	}
	c.state = Editing
}

// PrepareSave validates the draft and moves to Saving. The returned post
// is what should be sent to the backend.
func (c *Controller) PrepareSave() (livra.NewPost, error) {
	if c.state == Saving {
		return livra.NewPost{}, errors.New("save already in progress")
	}
	title := strings.TrimSpace(c.title)
	if title == "" {
		c.state = Editing
		c.err = ErrTitleRequired
		return livra.NewPost{}, ErrTitleRequired
	}
	c.state = Saving
	c.err = nil
	return livra.NewPost{Title: title, Content: c.content}, nil
}

// CompleteSave records the result of the create request. On success the
// draft is reset and the new post is returned; on failure the draft stays
// for a retry.
func (c *Controller) CompleteSave(post livra.Post, err error) (livra.Post, error) {
	if err != nil {
		c.state = Error
		c.err = err
		return livra.Post{}, err
	}
	c.Reset()
	return post, nil
}

// Save validates the draft and creates the post synchronously.
func (c *Controller) Save(ctx context.Context, creator Creator, token string) (livra.Post, error) {
	draft, err := c.PrepareSave()
	if err != nil {
		return livra.Post{}, err
	}
	post, err := creator.CreatePost(ctx, token, draft)
	return c.CompleteSave(post, err)
}

// Reset clears the draft and its tag selection.
func (c *Controller) Reset() {
	c.title = ""
	c.content = ""
	c.state = Empty
	c.err = nil
	if c.Tags != nil {
		c.Tags.Reset()
	}
}
