// Package app is the composition root for tonearm.
//
// Run loads configuration, opens the log file, builds every component and
// starts the terminal UI. It blocks until the user quits or the context is
// cancelled, then stops the background workers and waits for them.
//
//	Run()
//	 ├─> config.Load()          config.toml, defaults when missing
//	 ├─> logging.New()          JSON lines to log_file
//	 ├─> api.NewClient()        HTTP + push channel
//	 ├─> state.Store{}          daemon collections
//	 ├─> lazy.New()             playlist tracks, keyed by playlist index
//	 ├─> command.New()          playback and queue commands
//	 ├─> upload.New()           validated FLAC upload
//	 ├─> logocache.Open()       bbolt logo cache (optional)
//	 ├─> media.NewSession()     MPRIS on Linux (optional)
//	 ├─> workers: reconciler.Run, logocache.Run
//	 └─> ui.Run()               blocks
//
// Store changes fan out beyond the UI: a new stream catalog queues logo
// fetches, and a new player state is published to the media session.
//
// Only a bad config file, an unusable log path or an invalid api_bind abort
// startup. The logo cache and media session degrade to disabled with a
// warning in the log.
package app
