package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/config"
	"github.com/Makepad-fr/destinai/internal/csrf"
	"github.com/Makepad-fr/destinai/internal/logger"
	"github.com/Makepad-fr/destinai/internal/store/credstore"
	"github.com/Makepad-fr/destinai/internal/store/handoff"
	"github.com/Makepad-fr/destinai/internal/tui"
	"github.com/Makepad-fr/destinai/internal/ui"
	"github.com/Makepad-fr/destinai/internal/view"
)

// Options tune behavior from root flags. Config and the streams are
// injectable; zero values mean "load from the environment" and the process
// stdio.
type Options struct {
	Server string // --server
	Theme  string // --theme

	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// env is everything a subcommand needs, built once per Run.
type env struct {
	cfg     *config.Config
	out     *ui.Printer
	in      *bufio.Reader
	log     *zap.Logger
	client  *api.Client
	creds   *credstore.Store
	handoff handoff.Store
}

func (e *env) ctx() context.Context { return context.Background() }

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}

	theme, _ := ui.ThemeByName(opt.Theme)
	boot := ui.NewPrinter(opt.Stdout, opt.Stderr, theme)

	cmd, a := "tui", []string(nil)
	if len(args) > 0 {
		cmd, a = args[0], args[1:]
	}
	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return 0
	}

	e, err := newEnv(opt)
	if err != nil {
		boot.Fail(err.Error())
		return 2
	}
	defer func() { _ = e.log.Sync() }()

	switch cmd {
	case "tui":
		return e.doTUI()

	case "auth":
		if len(a) == 0 {
			e.out.Fail("usage: destinai auth <login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "login":
			return e.doAuthLogin(a[1:])
		case "logout":
			return e.doAuthLogout()
		case "status":
			return e.doAuthStatus()
		case "whoami":
			return e.doAuthWhoAmI()
		}
		e.out.Fail("usage: destinai auth <login|logout|status|whoami>")
		return 2

	case "favorites", "fav":
		if len(a) == 0 {
			e.out.Fail("usage: destinai favorites <ls|note|rm>")
			return 2
		}
		switch a[0] {
		case "ls":
			return e.doFavoritesList(a[1:])
		case "note":
			return e.doFavoritesNote(a[1:])
		case "rm":
			return e.doFavoritesRemove(a[1:])
		}
		e.out.Fail("usage: destinai favorites <ls|note|rm>")
		return 2

	case "ask":
		return e.doAsk(a)

	case "results":
		return e.doResults(a)

	case "handoff":
		if len(a) != 1 || a[0] != "clear" {
			e.out.Fail("usage: destinai handoff clear")
			return 2
		}
		return e.doHandoffClear()
	}

	e.out.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

func newEnv(opt Options) (*env, error) {
	cfg := opt.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, err
		}
	}
	if err := cfg.WithServer(opt.Server); err != nil {
		return nil, err
	}
	if opt.Theme != "" {
		cfg.Theme = opt.Theme
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logger.New(cfg.Env, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.BaseURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if cfg.CSRF.Header != "" {
		client.UseCSRF(csrf.Static{Header: cfg.CSRF.Header, Token: cfg.CSRF.Token})
	} else if cfg.CSRF.Page != "" {
		client.UseCSRF(csrf.NewPageSource(client.HTTPClient(), client.URL(cfg.CSRF.Page)))
	}

	creds := credstore.New(cfg.Home)
	ti, err := creds.Get()
	if err != nil {
		log.Warn("read credentials", zap.Error(err))
	}
	if ti != nil {
		client.SetSession(ti.Token)
	}

	theme, _ := ui.ThemeByName(cfg.Theme)
	return &env{
		cfg:     cfg,
		out:     ui.NewPrinter(opt.Stdout, opt.Stderr, theme),
		in:      bufio.NewReader(opt.Stdin),
		log:     log,
		client:  client,
		creds:   creds,
		handoff: handoff.NewFile(cfg.SessionDir()),
	}, nil
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `destinai - travel recommendations from your terminal

Usage:
  destinai [--server URL] [--theme classic|neon|mono] <subcommand> [args]

Subcommands:
  tui                                  Interactive client (default)
  auth login <email> [--code C | --token T]
                                       Sign in; without a code, one is emailed and prompted for
  auth logout                          End the session
  auth status                          Show the stored session and whether the server accepts it
  auth whoami                          Decode the session token (JWT) or ask the server
  favorites ls [--page N] [--sort created_at_desc|created_at_asc] [--country C]
                                       List favorites
  favorites note <id> <text...>        Replace a favorite's note (max 100 characters)
  favorites rm <id> [--yes]            Delete a favorite
  ask --who W --travel-type T --accommodation A --activities a,b --budget B --weather W --season S
                                       Answer the questionnaire and show recommendations
  results [--save COUNTRY]             Show recommendations for the last answers
  handoff clear                        Forget the last answers

Examples:
  destinai auth login ana@example.com
  destinai favorites ls --sort created_at_asc --country an
  destinai ask --who couple --travel-type backpacking --accommodation hostels \
      --activities hiking,local_cuisine --budget medium --weather sunny_dry --season spring
  destinai results --save Portugal
`)
}

// parseArgs parses flags that may appear before or after positional args.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// failRequest reports an API error. A 401 points at auth login.
func (e *env) failRequest(op string, err error, msg string) int {
	e.log.Warn(op+" failed", zap.Error(err))
	if view.Unauthorized(err) {
		e.out.Fail("not signed in or session expired. Run: destinai auth login <email>")
		return 1
	}
	e.out.Fail(msg)
	return 1
}

// readLine prompts and reads one trimmed line from stdin.
func (e *env) readLine(prompt string) (string, error) {
	fmt.Fprint(e.out.Writer(), prompt)
	line, err := e.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (e *env) doTUI() int {
	start := tui.RouteLogin
	if e.client.SessionToken() != "" {
		start = tui.RouteFavorites
	}
	err := tui.Run(tui.Deps{
		Client:   e.client,
		Handoff:  handoff.NewMemory(),
		Session:  e.creds,
		Log:      e.log,
		PageSize: e.cfg.PageSize,
		Theme:    e.cfg.Theme,
	}, start)
	if err != nil {
		e.out.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func (e *env) doHandoffClear() int {
	if err := e.handoff.Clear(); err != nil {
		e.out.Fail("handoff: " + err.Error())
		return 1
	}
	e.out.OK("cleared")
	return 0
}
