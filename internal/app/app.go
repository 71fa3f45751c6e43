package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/command"
	"github.com/five82/tonearm/internal/config"
	"github.com/five82/tonearm/internal/lazy"
	"github.com/five82/tonearm/internal/logging"
	"github.com/five82/tonearm/internal/logocache"
	"github.com/five82/tonearm/internal/media"
	"github.com/five82/tonearm/internal/prefs"
	"github.com/five82/tonearm/internal/reconcile"
	"github.com/five82/tonearm/internal/state"
	"github.com/five82/tonearm/internal/ui"
	"github.com/five82/tonearm/internal/upload"
)

// Options configure the tonearm application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/tonearm/prefs.toml
	APIBind    string // overrides api_bind from the config file
	Debug      bool
	Version    string
}

// mediaIdentity is the MPRIS name suffix: org.mpris.MediaPlayer2.tonearm.
const mediaIdentity = "tonearm"

// Run boots tonearm and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIBind != "" {
		cfg.APIBind = opts.APIBind
	}

	logger, logCloser, err := logging.New(logging.Options{Path: cfg.LogFile, Debug: opts.Debug})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()

	client, err := api.NewClient(cfg.APIBind, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	client.SetVersion(opts.Version)
	logger.Info().Str("api", client.BaseURL()).Str("version", opts.Version).Msg("starting")

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	tracks := lazy.New[int, []api.TrackDescriptor](client.FetchTracks, slices.Clone[[]api.TrackDescriptor])
	dispatcher := command.New(client, logging.Component(logger, "command"))
	uploads := upload.New(client, upload.Options{
		ClearDelay: cfg.UploadClearDelay,
		Logger:     logging.Component(logger, "upload"),
	})

	reconciler, err := reconcile.New(reconcile.Options{
		Fetcher:   client,
		Subscribe: pushChannel(client),
		Store:     store,
		Cache:     tracks,
		Logger:    logging.Component(logger, "reconcile"),
		Base:      cfg.ReconnectBase,
	})
	if err != nil {
		return fmt.Errorf("init reconciler: %w", err)
	}

	w := &workers{logger: logger}

	var logos *logocache.Cache
	if cache, err := logocache.Open(cfg.LogoCachePath(), client, logging.Component(logger, "logocache")); err != nil {
		logger.Warn().Err(err).Str("path", cfg.LogoCachePath()).Msg("logo cache disabled")
	} else {
		logos = cache
		defer logos.Close()
		w.start(ctx, "logocache", runFunc(func(ctx context.Context) error {
			logos.Run(ctx)
			return ctx.Err()
		}))
	}

	var session media.Session
	if cfg.MediaSession {
		if session, err = media.NewSession(mediaIdentity); err != nil {
			logger.Warn().Err(err).Msg("media session unavailable")
			session = nil
		}
	}
	bridge := media.NewBridge(ctx, session, dispatcher, logging.Component(logger, "media"))
	defer bridge.Close()

	var requester logoRequester
	if logos != nil {
		requester = logos
		bridge.SetArtwork(logos)
	}
	w.follow(store, requester, bridge)
	w.start(ctx, "reconcile", reconciler)

	uiOpts := ui.Options{
		Context:   ctx,
		Store:     store,
		Tracks:    tracks,
		Commands:  dispatcher,
		Uploads:   uploads,
		Logger:    logging.Component(logger, "ui"),
		LogPath:   cfg.LogFile,
		ThemeName: userPrefs.Theme,
		Pane:      userPrefs.Pane,
		PrefsPath: opts.PrefsPath,
	}
	if logos != nil {
		uiOpts.Logos = logos
	}

	err = ui.Run(ctx, uiOpts)
	cancel()
	w.wait()
	logger.Info().Msg("stopped")
	return err
}
