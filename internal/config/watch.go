package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher pushes a fresh Config to Changes every time the config file
// is written, generalizing the event-driven fsnotify loop of the
// pack's vibetunnel StdinWatcher (there: forward PTY writes on a Write
// event; here: re-Load the config file on one).
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	Changes chan Config

	stop    chan struct{}
	stopped chan struct{}
}

// WatchFile starts watching path's directory (editors commonly replace
// a file via rename-into-place, which fsnotify only sees on the
// containing directory) for writes to path, re-loading and publishing
// the config on each one.
func WatchFile(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{
		path:    path,
		watcher: w,
		Changes: make(chan Config, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

func (cw *Watcher) loop() {
	defer close(cw.stopped)
	for {
		select {
		case <-cw.stop:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != cw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg := LoadFrom(cw.path)
			select {
			case cw.Changes <- cfg:
			default:
				// drop the stale pending config, the next write will catch up
				select {
				case <-cw.Changes:
				default:
				}
				cw.Changes <- cfg
			}
		case _, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Stop ends the watch loop and releases the underlying fsnotify watcher.
func (cw *Watcher) Stop() {
	close(cw.stop)
	<-cw.stopped
	cw.watcher.Close()
}
