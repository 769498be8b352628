package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qvim/internal/clipboard"
	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/engine"
	"github.com/kobzarvs/qvim/internal/keys"
	"github.com/kobzarvs/qvim/internal/logger"
	"github.com/kobzarvs/qvim/internal/session"
)

// ErrKeys reports that a headless key script ended on an error message.
var ErrKeys = errors.New("key script failed")

const sessionInterval = 30 * time.Second

// Options come from the command line.
type Options struct {
	Files []string
	// Keys is a key-notation script for a headless run.
	Keys string
	// Write saves the changed buffers after a headless run instead of
	// printing the active one.
	Write     bool
	Debug     bool
	NoSession bool
}

// App is the top-level runtime for qvim. It owns the engine and carries out
// the actions it returns: file reads and writes, messages and quitting.
type App struct {
	opts   Options
	cfg    config.Config
	eng    *engine.Engine
	styles styles
	store  *session.Store
	done   bool
}

func New(opts Options) *App {
	return &App{opts: opts, cfg: config.Default()}
}

// Run starts the interactive editor on the terminal.
func (a *App) Run() error {
	if err := logger.Init(a.opts.Debug); err == nil {
		defer logger.Close()
	}
	cfg, cfgErr := config.Load()
	a.cfg = cfg

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	if !a.opts.NoSession {
		if path, err := session.DefaultPath(); err == nil {
			a.store = session.Open(path)
		}
	}
	a.setup(clipboard.Default(), s.Size)
	if cfgErr != nil {
		logger.Warn("config", "error", cfgErr)
		a.eng.Notify(cfgErr.Error(), true)
	}
	return a.Serve(s)
}

// setup builds the engine for a screen of the given size and loads the
// files, or the last session when no file was named.
func (a *App) setup(clip clipboard.Provider, size func() (int, int)) {
	w, h := size()
	a.eng = engine.New(a.cfg, engine.WithClipboard(clip), engine.WithSize(w, h))
	a.styles = newStyles(a.cfg.Theme)

	var sess session.Session
	if a.store != nil {
		sess = a.store.Get()
	}
	if len(a.opts.Files) == 0 {
		a.execute(a.eng.RestoreSession(sess))
		return
	}
	a.execute(a.eng.RestoreSession(session.Session{
		Active:         -1,
		CommandHistory: sess.CommandHistory,
		SearchHistory:  sess.SearchHistory,
	}))
	for _, path := range a.opts.Files {
		a.execute(a.open(path))
	}
}

type sessionTick struct{}

// Serve runs the event loop on s until the engine asks to quit.
func (a *App) Serve(s tcell.Screen) error {
	if a.eng == nil {
		a.setup(&clipboard.Memory{}, s.Size)
	}
	stop := make(chan struct{})
	defer close(stop)
	if a.store != nil {
		go func() {
			ticker := time.NewTicker(sessionInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					_ = s.PostEvent(tcell.NewEventInterrupt(sessionTick{}))
				}
			}
		}()
	}

	a.Render(s)
	for !a.done {
		ev := s.PollEvent()
		if ev == nil {
			break
		}
		a.handleEvent(s, ev)
		if !a.done {
			a.Render(s)
		}
	}
	return a.saveSession()
}

func (a *App) handleEvent(s tcell.Screen, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.execute(a.eng.HandleKey(keys.FromEvent(ev)))
	case *tcell.EventResize:
		s.Sync()
		a.eng.Resize(s.Size())
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(sessionTick); ok {
			if err := a.saveSession(); err != nil {
				logger.Warn("session save", "error", err)
			}
		}
	}
}

func (a *App) saveSession() error {
	if a.store == nil {
		return nil
	}
	a.store.Update(a.eng.Session())
	return a.store.Save()
}

// execute carries out actions in order. A failed write stops the rest, so
// :wq does not quit after an error.
func (a *App) execute(actions []engine.Action) {
	for len(actions) > 0 {
		act := actions[0]
		actions = actions[1:]
		switch act := act.(type) {
		case engine.SaveBuffer:
			if err := writeFile(act.Path, act.Content); err != nil {
				logger.Error("write failed", "path", act.Path, "error", err)
				a.eng.Notify(fmt.Sprintf("E212: Can't open file for writing: %s", act.Path), true)
				return
			}
			logger.Debug("wrote file", "path", act.Path, "bytes", len(act.Content))
			if !act.Copy {
				a.eng.MarkSaved(act.Buffer)
			}
		case engine.OpenFile:
			actions = append(a.open(act.Path), actions...)
		case engine.JumpExternal:
			actions = append(a.eng.JumpTo(act.Path, act.Line, act.Col), actions...)
		case engine.ShowMessage:
			a.eng.Notify(act.Text, act.Error)
		case engine.Quit, engine.QuitAll:
			a.done = true
			return
		}
	}
}

// open reads path into the engine. A missing file opens as a new, empty
// buffer.
func (a *App) open(path string) []engine.Action {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		out := a.eng.LoadFile(path, "")
		a.eng.Notify(fmt.Sprintf("%q [New]", path), false)
		return out
	case err != nil:
		logger.Warn("read failed", "path", path, "error", err)
		a.eng.Notify(fmt.Sprintf("E484: Can't open file %s", path), true)
		return nil
	}
	return a.eng.LoadFile(path, string(data))
}

// writeFile keeps the mode of an existing file.
func writeFile(path, content string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}

// Headless applies the key script to the files without a terminal. The
// active buffer is printed to out, or with Write every changed buffer is
// saved.
func (a *App) Headless(out io.Writer) error {
	a.setup(&clipboard.Memory{}, func() (int, int) { return 80, 24 })
	for _, k := range keys.Parse(a.opts.Keys) {
		a.execute(a.eng.HandleKey(k))
		if a.done {
			break
		}
	}
	msg, isErr := a.eng.Message()
	if a.opts.Write {
		for _, b := range a.eng.Buffers() {
			if !b.Dirty || b.Path == "" {
				continue
			}
			text, _ := a.eng.BufferText(b.ID)
			if text != "" {
				text += "\n"
			}
			if err := writeFile(b.Path, text); err != nil {
				return fmt.Errorf("write %s: %w", b.Path, err)
			}
			a.eng.MarkSaved(b.ID)
		}
	} else if text, ok := a.eng.BufferText(a.eng.ActiveBuffer()); ok {
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	if isErr {
		return fmt.Errorf("%w: %s", ErrKeys, msg)
	}
	return nil
}
