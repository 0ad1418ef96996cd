// Package applog builds the process-wide structured logger, mapping
// spec.md §7's error taxonomy (Debug for ignored-but-harmless input,
// Warn for recoverable I/O/GPU errors, Error for conditions that
// terminate the process) onto zap's leveled logging — promoted from an
// indirect dependency of the pack's vibetunnel repos into a direct one,
// since the teacher itself only calls bare log.Println and spec.md §7's
// taxonomy needs levels and structured fields, not formatted strings.
package applog

import "go.uber.org/zap"

// New builds a development-formatted logger when debug is true
// (human-readable, stack traces on Warn+) and a production JSON logger
// otherwise.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// UnknownSequence logs a parser sequence the terminal chose to ignore
// (spec.md §4.3/§7: unrecognized CSI/mode values are dropped, not
// fatal).
func UnknownSequence(log *zap.Logger, kind string, final byte, params []int) {
	log.Debug("parser: unrecognized sequence",
		zap.String("kind", kind),
		zap.Int("final", int(final)),
		zap.Ints("params", params),
	)
}

// PTYError logs a PTY I/O failure that ended a pane's process — the
// pane is lost, the rest of the program keeps running.
func PTYError(log *zap.Logger, paneID uint64, err error) {
	log.Warn("ptyio: pane terminated",
		zap.Uint64("pane_id", paneID),
		zap.Error(err),
	)
}

// GPUOutOfMemory logs the one GPU error spec.md §7 marks fatal, just
// before the caller requests process exit.
func GPUOutOfMemory(log *zap.Logger, err error) {
	log.Error("render: GPU out of memory, exiting", zap.Error(err))
}

// GPUFrameSkipped logs a non-fatal GPU error that caused a single frame
// to be skipped rather than drawn.
func GPUFrameSkipped(log *zap.Logger, err error) {
	log.Warn("render: frame skipped", zap.Error(err))
}
