package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/five82/livra/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("livra", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "override config path (optional)")
	backendURL := fs.String("backend", "", "backend base URL (overrides config and LIVRA_BACKEND_URL)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: livra [flags] [login [-token TOKEN] | logout | whoami]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, BackendURL: *backendURL}

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "":
		err = app.Run(ctx, opts)
	case "login":
		err = login(ctx, opts, fs.Args()[1:], stdout, stderr)
	case "logout":
		if err = app.Logout(opts); err == nil {
			fmt.Fprintln(stdout, "signed out")
		}
	case "whoami":
		err = whoami(opts, stdout)
	default:
		fmt.Fprintf(stderr, "livra: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "livra: %v\n", err)
		return 1
	}
	return 0
}

func login(ctx context.Context, opts app.Options, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "Google ID token (prompted for when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	idToken := strings.TrimSpace(*token)
	if idToken == "" {
		var err error
		if idToken, err = promptToken(stderr, "Google ID token: "); err != nil {
			return err
		}
	}

	user, err := app.Login(ctx, opts, idToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func whoami(opts app.Options, stdout io.Writer) error {
	user, err := app.WhoAmI(opts)
	if errors.Is(err, app.ErrSignedOut) {
		fmt.Fprintln(stdout, "not signed in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}

func promptToken(stderr io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass -token")
	}
	fmt.Fprint(stderr, prompt)
	tok, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(tok)), nil
}
