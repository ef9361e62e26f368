// Package source reads list content from files, once or continuously.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nxadm/tail"
)

// ErrNotRegular is returned for paths that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// maxBatch caps how many followed lines go in one event.
const maxBatch = 512

// debounce is how long Watch waits for writes to settle before reloading.
const debounce = 50 * time.Millisecond

type Kind uint8

const (
	// Append carries lines added at the end of the file.
	Append Kind = iota
	// Reload carries the whole content of a rewritten file.
	Reload
)

func (k Kind) String() string {
	switch k {
	case Append:
		return "append"
	case Reload:
		return "reload"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is a change in a file.
type Event struct {
	Kind  Kind
	Lines []string
	Err   error
}

// Load reads the lines of the file at path.
func Load(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return splitLines(string(data)), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// FollowOptions configure Follow.
type FollowOptions struct {
	// Poll checks the file for changes periodically instead of relying on
	// filesystem notifications.
	Poll bool
}

// Follow reads the file at path from the start and keeps reading lines as
// they are appended, like tail -f. Lines that arrive together are batched
// in one event. The channel is closed when ctx is done.
func Follow(ctx context.Context, path string, opts FollowOptions) (<-chan Event, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow %s: %w", path, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer t.Cleanup()
		defer func() {
			if err := t.Stop(); err != nil {
				slog.Debug("Tail stopped", "path", path, "error", err)
			}
		}()

		send := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line.Err != nil {
					if !send(Event{Kind: Append, Err: line.Err}) {
						return
					}
					continue
				}
				batch, open := drain(t.Lines, []string{line.Text})
				if !send(Event{Kind: Append, Lines: batch}) || !open {
					return
				}
			}
		}
	}()
	return out, nil
}

// drain appends lines that are already waiting, without blocking.
func drain(lines <-chan *tail.Line, batch []string) ([]string, bool) {
	for len(batch) < maxBatch {
		select {
		case line, ok := <-lines:
			if !ok {
				return batch, false
			}
			if line.Err != nil {
				slog.Warn("Failed to read followed line", "error", line.Err)
				continue
			}
			batch = append(batch, line.Text)
		default:
			return batch, true
		}
	}
	return batch, true
}

// Watch reloads the file at path every time it is rewritten and sends its
// whole content. The channel is closed when ctx is done.
func Watch(ctx context.Context, path string) (<-chan Event, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors often replace files by renaming a temporary one over them;
	// watching the directory survives that.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	out := make(chan Event, 4)
	go func() {
		defer close(out)
		defer w.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("File watcher error", "path", abs, "error", err)
			case <-timer.C:
				lines, err := Load(abs)
				ev := Event{Kind: Reload, Lines: lines, Err: err}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
