package cmd

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/config"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/session"
	"github.com/felixgeelhaar/oactl/internal/storage"
	"github.com/felixgeelhaar/oactl/internal/ux"
	"github.com/felixgeelhaar/oactl/internal/version"
)

// guardWaitTimeout bounds how long the process lingers for a pending
// session-expiry redirect before exiting.
const guardWaitTimeout = 3 * time.Second

// App is everything a command needs, built once per invocation.
type App struct {
	opts *options

	Flags    *CommandContext
	Config   *config.Config
	Logger   *log.Logger
	Storage  storage.Backend
	Session  *session.Store
	Notifier *recordingNotifier
	Prompter *ux.Prompter
	Client   *httpclient.Client
	Router   *router.Router
	API      *api.API
}

// Option adjusts how the command tree reaches the outside world.
type Option func(*options)

type options struct {
	out       io.Writer
	errOut    io.Writer
	lookupEnv func(string) (string, bool)
	envFile   string
	prompter  *ux.Prompter
	in        io.Reader
	args      []string
}

// WithOutput redirects command output and notices.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *options) { o.out, o.errOut = out, errOut }
}

// WithEnv replaces the environment lookup and the .env path.
func WithEnv(lookup func(string) (string, bool), envFile string) Option {
	return func(o *options) { o.lookupEnv, o.envFile = lookup, envFile }
}

// WithPrompter replaces terminal detection.
func WithPrompter(p *ux.Prompter) Option {
	return func(o *options) { o.prompter = p }
}

// WithInput replaces stdin.
func WithInput(in io.Reader) Option {
	return func(o *options) { o.in = in }
}

// WithArgs runs the tree with args instead of os.Args.
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = args }
}

func newOptions(opts []Option) *options {
	o := &options{out: os.Stdout, errOut: os.Stderr, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// loadConfig resolves the configuration and applies the --api-url flag.
func (o *options) loadConfig(flags *CommandContext) (*config.Config, string, error) {
	path := flags.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(config.LoadOptions{Path: path, EnvFile: o.envFile, LookupEnv: o.lookupEnv})
	if err != nil {
		return nil, path, err
	}
	if flags.APIURL != "" {
		cfg.APIURL = flags.APIURL
	}
	if flags.Format != "" {
		cfg.Output.Format = flags.Format
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	return cfg, path, cfg.Validate()
}

// setup builds the App for cmd.
func (o *options) setup(cmd *cobra.Command) (*App, error) {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}
	cfg, _, err := o.loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logCfg := log.ConfigFromFlags(cfg.Log.Level, cfg.Log.Format, flags.Verbose, flags.Quiet)
	logCfg.Output = log.NewOutput(o.errOut)
	logCfg.ServiceVersion = version.Version
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	backend, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return nil, err
	}

	store := session.NewStore(backend, logger)
	if err := store.Load(); err != nil {
		logger.WithError(err).Warn("session could not be fully restored")
	}

	prompter := ux.NewPrompter(flags.Yes)
	if o.prompter != nil {
		p := *o.prompter
		p.AssumeYes = p.AssumeYes || flags.Yes
		prompter = &p
	}

	app := &App{
		opts:     o,
		Flags:    flags,
		Config:   cfg,
		Logger:   logger,
		Storage:  backend,
		Session:  store,
		Notifier: newRecordingNotifier(ux.NewNotifier(o.errOut, flags.Quiet)),
		Prompter: prompter,
	}

	app.Router = router.New(store, app.Notifier,
		router.WithLogger(logger),
		router.OnChange(func(m router.Match) { logger.Debug("navigated", "route", m.Route.Name, "path", m.Path) }))

	httpOpts := []httpclient.Option{
		httpclient.WithLogger(logger),
		httpclient.WithNotifier(app.Notifier),
		httpclient.WithNavigator(loginRedirect{router: app.Router, notifier: app.Notifier}),
	}
	app.Client = httpclient.New(httpclient.Config{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.Timeout,
		UserAgent:  version.GetInfo().UserAgent(),
		MaxRetries: 1,
	}, store, httpOpts...)
	app.API = api.New(app.Client, logger)

	app.expireStaleToken(time.Now())
	return app, nil
}

// expireStaleToken drops a token whose exp claim has passed, so the guard
// sends the user to login before a request is wasted on it.
func (a *App) expireStaleToken(now time.Time) {
	if !a.Session.Expired(now) {
		return
	}
	a.Logger.Info("stored token has expired")
	if err := a.Session.ExpireToken(); err != nil {
		a.Logger.WithError(err).Warn("failed to drop expired token")
		return
	}
	a.Notifier.Warning(httpclient.MsgSessionExpired)
}

// Close waits for a pending expiry redirect and releases storage.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), guardWaitTimeout)
	defer cancel()
	if err := a.Client.Guard().Wait(ctx); err != nil {
		a.Client.Guard().Stop()
	}
	if err := a.Storage.Close(); err != nil {
		a.Logger.WithError(err).Warn("failed to close storage")
	}
}

func (a *App) out() io.Writer { return a.opts.out }

// loginRedirect tells the user how to sign back in when the expiry guard
// navigates to the login route.
type loginRedirect struct {
	router   *router.Router
	notifier httpclient.Notifier
}

func (l loginRedirect) Push(path string) {
	l.router.Push(path)
	if path == router.PathLogin {
		l.notifier.Info("run 'oactl login' to sign in again")
	}
}

// recordingNotifier remembers warnings and errors already shown, so the
// final error is not printed twice.
type recordingNotifier struct {
	httpclient.Notifier

	mu    sync.Mutex
	shown []string
}

func newRecordingNotifier(n httpclient.Notifier) *recordingNotifier {
	return &recordingNotifier{Notifier: n}
}

func (r *recordingNotifier) Warning(msg string) {
	r.record(msg)
	r.Notifier.Warning(msg)
}

func (r *recordingNotifier) Error(msg string) {
	r.record(msg)
	r.Notifier.Error(msg)
}

func (r *recordingNotifier) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, msg)
}

// Reported reports whether err's message was already shown, alone or after
// a "prefix: " the view models add.
func (r *recordingNotifier) Reported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if msg == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shown {
		if s == msg || strings.HasSuffix(s, ": "+msg) {
			return true
		}
	}
	return false
}

// notLoggedIn is returned when a command needs a session and cannot prompt for one.
func notLoggedIn() error {
	return errors.New(errors.ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("run 'oactl login' first")
}
