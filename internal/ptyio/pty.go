// Package ptyio wraps a cross-platform pseudoterminal in a duplex,
// bounded-queue transport (spec.md §4.4), generalizing the teacher's
// Session.Start/readLoop (which wrote straight into a Screen with no
// queue at all) into two independent goroutines connected to the rest
// of the program only by channels.
package ptyio

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	gopty "github.com/aymanbagabas/go-pty"
)

const (
	readChunk  = 8192
	queueDepth = 256
)

// ErrClosed is returned by Write after the PTY has been closed.
var ErrClosed = errors.New("ptyio: pty closed")

// PTY is a duplex, bounded-queue transport over a cross-platform
// pseudoterminal (Unix PTY or Windows ConPTY via go-pty).
type PTY struct {
	mu         sync.Mutex
	pty        gopty.Pty
	cmd        *gopty.Cmd
	cols, rows int

	out chan []byte // reader goroutine -> Read callers, capacity queueDepth, drop-on-full
	in  chan []byte // Write callers -> writer goroutine, capacity queueDepth, blocking

	done     chan struct{}
	closeErr error
}

// Options configures Spawn.
type Options struct {
	Argv []string // argv[0] + args; empty means the user's login shell
	Dir  string   // working directory; empty means the process's own cwd
	Env  []string // extra environment variables, appended after the base set
	Cols int
	Rows int
}

// Spawn starts argv inside a freshly allocated pseudoterminal sized
// Cols x Rows, wiring TERM/COLORTERM per spec.md §6 so full-color
// curses/TUI programs identify the terminal correctly.
func Spawn(opts Options) (*PTY, error) {
	argv := opts.Argv
	isLoginShell := len(argv) == 0
	if isLoginShell {
		argv = loginShell()
	}

	p, err := gopty.New()
	if err != nil {
		return nil, err
	}
	if err := p.Resize(opts.Cols, opts.Rows); err != nil {
		p.Close()
		return nil, err
	}

	fullEnv := append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
	if opts.Dir != "" {
		// spec.md §6: the pane's working directory is also its shell's
		// HOME, so tilde-expansion and cd-with-no-args land there.
		fullEnv = append(fullEnv, "HOME="+opts.Dir)
	}
	fullEnv = append(fullEnv, opts.Env...)

	cmd := p.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = fullEnv

	if isLoginShell && runtime.GOOS != "windows" {
		// Prefixing argv[0] with '-' is the Unix convention a shell uses
		// to recognize itself as a login shell (it then sources
		// /etc/profile, ~/.profile, etc. instead of the non-login
		// rcfiles).
		cmd.Args[0] = "-" + filepath.Base(argv[0])
	}

	if err := cmd.Start(); err != nil {
		p.Close()
		return nil, err
	}

	pt := &PTY{
		pty:  p,
		cmd:  cmd,
		cols: opts.Cols,
		rows: opts.Rows,
		out:  make(chan []byte, queueDepth),
		in:   make(chan []byte, queueDepth),
		done: make(chan struct{}),
	}
	go pt.readLoop()
	go pt.writeLoop()
	go pt.waitLoop()
	return pt, nil
}

// readLoop reads from the PTY master in readChunk-sized bursts and
// pushes each burst onto out. A full out channel means the consumer
// (the pane's Poll loop) has fallen behind; the chunk is dropped rather
// than blocking the PTY master, per spec.md §4.4.
func (pt *PTY) readLoop() {
	buf := make([]byte, readChunk)
	for {
		n, err := pt.pty.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case pt.out <- chunk:
			default:
			}
		}
		if err != nil {
			close(pt.out)
			return
		}
	}
}

// writeLoop blocks on in and writes each chunk to the PTY master in
// order, terminating on the first write error or when the child exits.
func (pt *PTY) writeLoop() {
	for {
		select {
		case chunk := <-pt.in:
			if _, err := pt.pty.Write(chunk); err != nil {
				return
			}
		case <-pt.done:
			return
		}
	}
}

func (pt *PTY) waitLoop() {
	_ = pt.cmd.Wait()
	close(pt.done)
}

// Write enqueues a copy of p for the writer goroutine. The send blocks
// only as long as the writer queue is transiently full; the writer
// drains continuously so this is not a stall on the PTY itself.
func (pt *PTY) Write(p []byte) error {
	select {
	case <-pt.done:
		return ErrClosed
	default:
	}
	chunk := append([]byte(nil), p...)
	select {
	case pt.in <- chunk:
		return nil
	case <-pt.done:
		return ErrClosed
	}
}

// Read drains every chunk currently queued on out, without blocking,
// and concatenates them. ok is false once the PTY has been closed and
// drained dry.
func (pt *PTY) Read() (data []byte, ok bool) {
	for {
		select {
		case chunk, open := <-pt.out:
			if !open {
				if len(data) == 0 {
					return nil, false
				}
				return data, true
			}
			data = append(data, chunk...)
		default:
			return data, true
		}
	}
}

// Resize changes the PTY's window size.
func (pt *PTY) Resize(cols, rows int) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if err := pt.pty.Resize(cols, rows); err != nil {
		return err
	}
	pt.cols, pt.rows = cols, rows
	return nil
}

// Size reports the PTY's last-set window size.
func (pt *PTY) Size() (cols, rows int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.cols, pt.rows
}

// Close kills the child process and releases the PTY, waiting for the
// process to actually exit.
func (pt *PTY) Close() error {
	pt.mu.Lock()
	cmd := pt.cmd
	p := pt.pty
	pt.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	var err error
	if p != nil {
		err = p.Close()
	}
	<-pt.done
	return err
}

// Done returns a channel closed when the child process exits.
func (pt *PTY) Done() <-chan struct{} { return pt.done }

func loginShell() []string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return []string{comspec}
		}
		return []string{"cmd.exe"}
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return []string{shell}
	}
	return []string{"/bin/sh"}
}
