package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/five82/livra/internal/config"
	"github.com/five82/livra/internal/livra"
	"github.com/five82/livra/internal/logging"
	"github.com/five82/livra/internal/query"
	"github.com/five82/livra/internal/session"
	"github.com/five82/livra/internal/state"
	"github.com/five82/livra/internal/storage"
	"github.com/five82/livra/internal/ui"
)

// Options configure the Livra client.
type Options struct {
	ConfigPath string // empty uses ~/.config/livra/config.toml
	BackendURL string // overrides the config file and LIVRA_BACKEND_URL
}

// Env holds the long-lived services shared by the TUI and the CLI
// subcommands.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Prefs   *storage.Store
	Session *session.Store
	Client  *livra.Client

	logFile *os.File
}

// Open loads configuration, opens the log file and restores the session.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.BackendURL != "" {
		cfg.BackendURL = opts.BackendURL
	}

	env := &Env{Config: cfg, Logger: logging.Discard()}
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		env.logFile = f
		env.Logger = logging.New(logging.Config{
			Writer: f,
			Format: cfg.LogFormat,
			Level:  logging.ParseLevel(cfg.LogLevel),
		})
	}

	env.Prefs, err = storage.Open(cfg.StatePath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}

	env.Client, err = livra.NewClient(cfg.BackendURL)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init livra client: %w", err)
	}

	env.Session = session.New(env.Prefs, session.WithLogger(env.Logger))
	if err := env.Session.Restore(); err != nil {
		env.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	env.Logger.Info("client started",
		slog.String("backend", env.Client.BaseURL()),
		slog.Bool("signed_in", env.Session.SignedIn()))
	return env, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	if e == nil || e.logFile == nil {
		return nil
	}
	err := e.logFile.Close()
	e.logFile = nil
	return err
}

// Run boots the Livra TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	store := &state.Store{}
	failures := make(chan error, 1)
	queries := query.New(env.Client,
		query.WithLogger(env.Logger),
		query.WithFailureHook(func(_ query.Request, err error) {
			store.Update(nil, err)
			select {
			case failures <- err:
			default:
			}
		}),
	)
	defer queries.Close()

	theme, _, err := env.Prefs.Get(storage.KeyTheme)
	if err != nil {
		env.Logger.Warn("read theme preference", slog.String("error", err.Error()))
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Backend:   env.Client,
		Session:   env.Session,
		Queries:   queries,
		Store:     store,
		Failures:  failures,
		Prefs:     env.Prefs,
		Logger:    env.Logger,
		LogPath:   env.Config.LogFile,
		ThemeName: theme,
	})
}

// ErrSignedOut is returned by WhoAmI when no credential is stored.
var ErrSignedOut = errors.New("not signed in")

// Login exchanges a Google ID token and stores the resulting credential.
func Login(ctx context.Context, opts Options, idToken string) (session.User, error) {
	env, err := Open(opts)
	if err != nil {
		return session.User{}, err
	}
	defer env.Close()
	return env.Session.Login(ctx, env.Client, idToken)
}

// Logout removes the stored credential.
func Logout(opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()
	return env.Session.Logout()
}

// WhoAmI returns the user of the stored credential.
func WhoAmI(opts Options) (session.User, error) {
	env, err := Open(opts)
	if err != nil {
		return session.User{}, err
	}
	defer env.Close()
	user, ok := env.Session.User()
	if !ok {
		return session.User{}, ErrSignedOut
	}
	return user, nil
}
