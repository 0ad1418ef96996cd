// Package pane binds a Terminal, a Parser, and a PTY transport into the
// single unit spec.md §5/§6 passes around as a pane: the smallest piece
// of the layout tree that can hold a running process.
package pane

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/umiterm/umiterm/internal/applog"
	"github.com/umiterm/umiterm/internal/parser"
	"github.com/umiterm/umiterm/internal/ptyio"
	"github.com/umiterm/umiterm/internal/vt"
)

// ID is a stable, process-unique identifier handed out by a monotonic
// counter (spec.md's invariant names a counter, not a random value —
// see DESIGN.md for why this is not github.com/google/uuid).
type ID uint64

var nextID atomic.Uint64

func allocID() ID {
	return ID(nextID.Add(1))
}

// Pane owns one PTY-backed process and the Terminal/Parser pair that
// decodes its output.
type Pane struct {
	ID     ID
	Term   *vt.Terminal
	Parser *parser.Parser
	PTY    *ptyio.PTY
	Log    *zap.Logger

	LastOutput time.Time
	Dirty      bool

	// Inert is set once the PTY has terminated (spec.md §7: "PTY I/O
	// error → log; terminate that pane's threads; pane becomes inert").
	// Poll is a no-op on an inert pane.
	Inert bool
}

// Spawn allocates a new pane ID, constructs a Terminal sized cols x
// rows, and starts argv inside a freshly allocated PTY of the same
// size. log may be nil (tests that don't care about §7 logging).
func Spawn(argv []string, dir string, env []string, cols, rows int, log *zap.Logger) (*Pane, error) {
	p, err := ptyio.Spawn(ptyio.Options{
		Argv: argv,
		Dir:  dir,
		Env:  env,
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return nil, err
	}
	term := vt.New(cols, rows)
	term.SetLogger(log)
	return &Pane{
		ID:     allocID(),
		Term:   term,
		Parser: parser.New(),
		PTY:    p,
		Log:    log,
	}, nil
}

// Poll drains whatever the PTY has produced since the last call,
// decodes it through the parser into the terminal, and reports whether
// any bytes were processed. Callers use the return value to decide
// whether a redraw is warranted. Once the PTY reports it is closed and
// drained, the pane is marked Inert and the termination is logged —
// spec.md §7's PTY-error handling — so it stops being polled forever.
func (p *Pane) Poll() bool {
	if p.Inert {
		return false
	}
	data, ok := p.PTY.Read()
	if !ok {
		p.Inert = true
		if p.Log != nil {
			applog.PTYError(p.Log, uint64(p.ID), ptyio.ErrClosed)
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	p.Parser.FeedBytes(data, p.Term)
	p.LastOutput = time.Now()
	p.Dirty = true
	return true
}

// Write sends keyboard/paste input to the pane's PTY.
func (p *Pane) Write(b []byte) error {
	return p.PTY.Write(b)
}

// Resize propagates a new size to both the terminal grid and the PTY
// window size.
func (p *Pane) Resize(cols, rows int) error {
	p.Term.Resize(cols, rows)
	return p.PTY.Resize(cols, rows)
}

// FlushResponses drains any pending terminal-to-host responses (DSR
// replies, etc.) and writes them back to the PTY.
func (p *Pane) FlushResponses() error {
	if resp := p.Term.TakeResponse(); resp != nil {
		return p.Write(resp)
	}
	return nil
}

// ClearDirty marks the pane as rendered.
func (p *Pane) ClearDirty() { p.Dirty = false }

// Close terminates the pane's process and releases its PTY.
func (p *Pane) Close() error {
	return p.PTY.Close()
}
