// Package app wires configuration, transport, session and services
// together for one CLI invocation.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/client"
	"github.com/snapgram/cli/pkg/config"
	"github.com/snapgram/cli/pkg/credentials"
	"github.com/snapgram/cli/pkg/feed"
	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/live"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/media"
	"github.com/snapgram/cli/pkg/output"
	"github.com/snapgram/cli/pkg/profile"
	"github.com/snapgram/cli/pkg/prompter"
	"github.com/snapgram/cli/pkg/service"
	"github.com/snapgram/cli/pkg/session"
)

// Options are the global command-line flags.
type Options struct {
	ConfigPath string
	Verbose    bool
	Output     string
}

// App holds every dependency a command needs.
type App struct {
	Config      *config.Config
	Client      *client.Client
	API         *api.API
	Credentials *credentials.Store
	Session     *session.Session
	Printer     *output.Printer
	Formatter   *formatter.Formatter
	Prompter    *prompter.Prompter
}

// New loads configuration and builds the dependency graph. Nothing talks
// to the network until Hydrate or a service call.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logFile := cfg.GetString("log.file")
	if opts.Verbose {
		logFile = ""
	}
	logger.Init(logger.Options{
		Level:   cfg.GetString("log.level"),
		File:    logFile,
		Verbose: opts.Verbose,
	})

	format := cfg.GetString("output.format")
	if opts.Output != "" {
		if !output.ValidFormat(opts.Output) {
			return nil, fmt.Errorf("invalid output format %q: use text, json or table", opts.Output)
		}
		format = opts.Output
	}

	c := client.FromConfig(cfg)
	a := api.New(c)
	store := credentials.NewStore(cfg.CredentialsPath())
	printer := output.New(nil, output.ParseFormat(format))

	return &App{
		Config:      cfg,
		Client:      c,
		API:         a,
		Credentials: store,
		Session:     session.New(c, a, store),
		Printer:     printer,
		Formatter:   formatter.New(printer, cfg.GetString("media.base_url")),
		Prompter:    prompter.New(),
	}, nil
}

// Hydrate restores the stored session. An expired or rejected token is
// reported and the command continues signed out. Other failures keep the
// token and only log.
func (a *App) Hydrate(ctx context.Context) {
	err := a.Session.Hydrate(ctx)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionExpired):
		a.Printer.Warning("Your session has expired. Run 'snapgram auth login' to sign in again.")
	default:
		logger.Debug("Session restore failed", "error", err)
	}
}

func (a *App) Auth() *service.AuthService {
	kakao := service.KakaoSettings{
		ClientID:    a.Config.GetString("kakao.client_id"),
		RedirectURI: a.Config.GetString("kakao.redirect_uri"),
	}
	return service.NewAuthService(a.API, a.Session, kakao, a.Formatter, a.Prompter)
}

func (a *App) Feed() *service.FeedService {
	return service.NewFeedService(feed.New(a.API, a.Config.GetInt("api.page_size")), a.Formatter, a.Prompter)
}

func (a *App) Posts() *service.PostService {
	return service.NewPostService(a.API, feed.NewList(a.API), a.Formatter)
}

func (a *App) Profiles() *service.ProfileService {
	return service.NewProfileService(profile.New(a.API, a.Session), a.Session, media.NewUploader(a.API), a.Formatter, a.Prompter)
}

// LiveConfig returns websocket settings carrying the current token.
func (a *App) LiveConfig() live.Config {
	return live.DefaultConfig(a.Config.GetString("api.ws_url"), a.Session.Token())
}
