// Package ui renders tonearm in the terminal with Bubble Tea.
//
// # Layout
//
//	tonearm  ▶ Road Trip · Intro — Band  ● LIVE  Queue: 2
//	╭ Streams ────────╮╭ Library ─────────╮╭ Queue ──────────╮
//	│ ◉ Jazz FM       ││ ▾ Road Trip      ││ 1. Intro — Band │
//	│ ○ News          ││     Intro — Band ││ 2. Outro        │
//	│                 ││ ▸ Focus          ││ C clear queue   │
//	╰─────────────────╯╰──────────────────╯╰─────────────────╯
//	tab next pane · enter play selection · p pause/resume · ? toggle help
//
// Panes stack vertically below LayoutStackedWidth columns. The help, upload
// form and client log are full-screen overlays.
//
// # Data flow
//
// The model never fetches. Run subscribes to the store, the track cache, the
// upload controller and the logo cache and forwards each notification into
// the program as a message:
//
//	storeMsg     one replaced collection; only that pane is rebuilt
//	nodeMsg      a playlist node changed; the library rows are rebuilt
//	uploadMsg    upload phase and message for the form
//	logoMsg      a stream logo was cached
//
// Commands run as tea.Cmd goroutines. Playback commands return nothing; their
// effect arrives later as a storeMsg. Queue commands return queueResultMsg
// and a failure is shown under the queue until the next queue command
// succeeds.
//
// Display rows come from package render; this package only adds cursor,
// focus and styling.
package ui
