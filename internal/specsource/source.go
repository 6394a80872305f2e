// Package specsource owns the desired-state side of the operator: it loads
// a room spec from a YAML file, gates every version through validation, and
// triggers reconcile cycles on acceptance, on file changes, and on a
// periodic interval.
package specsource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"roomop/internal/events"
	"roomop/internal/spec"
	"roomop/pkg/logging"
)

// DefaultInterval is the periodic reconcile trigger interval.
const DefaultInterval = 30 * time.Second

// debounceDelay absorbs the write/rename event bursts editors produce when
// saving a file.
const debounceDelay = 100 * time.Millisecond

// TriggerFunc receives the accepted spec whenever a reconcile cycle should
// run.
type TriggerFunc func(accepted *spec.RoomSpec)

// Source watches one spec file and holds the currently accepted version.
type Source struct {
	path        string
	interval    time.Duration
	broadcaster *events.Broadcaster
	trigger     TriggerFunc

	mu      sync.RWMutex
	current *spec.RoomSpec
}

// New creates a source for the spec file at path. trigger is invoked for
// every accepted spec version and on every periodic tick; interval <= 0
// selects DefaultInterval.
func New(path string, interval time.Duration, broadcaster *events.Broadcaster, trigger TriggerFunc) *Source {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Source{
		path:        path,
		interval:    interval,
		broadcaster: broadcaster,
		trigger:     trigger,
	}
}

// Current returns the currently accepted spec, or nil before the first
// successful load.
func (s *Source) Current() *spec.RoomSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Run loads the spec file, then blocks serving file-change and periodic
// triggers until the context is cancelled. An invalid initial spec is an
// error; later rejected versions only log, keeping the last accepted spec
// as desired state.
func (s *Source) Run(ctx context.Context) error {
	if err := s.Reload(); err != nil {
		return fmt.Errorf("initial spec load: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating spec watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files by rename,
	// which would silently detach a file-level watch.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching spec directory: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.concernsSpecFile(event) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			if err := s.Reload(); err != nil {
				logging.Warn("SpecSource", "spec change rejected: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("SpecSource", "spec watcher error: %v", err)

		case <-ticker.C:
			if current := s.Current(); current != nil && s.trigger != nil {
				s.trigger(current)
			}
		}
	}
}

func (s *Source) concernsSpecFile(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(s.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Reload reads the spec file and accepts it as desired state when it passes
// validation. Acceptance triggers a reconcile cycle; rejection reports the
// reasons and leaves the previously accepted spec in place.
func (s *Source) Reload() error {
	next, err := spec.Load(s.path)
	if err != nil {
		s.reject(0, []string{err.Error()})
		return err
	}

	validation := spec.Validate(next)
	if !validation.IsValid() {
		s.reject(next.Metadata.Version, validation.Errors)
		return fmt.Errorf("spec version %d failed validation: %s",
			next.Metadata.Version, strings.Join(validation.Errors, "; "))
	}
	warnings := validation.Warnings

	if current := s.Current(); current != nil {
		upgrade := spec.ValidateUpgrade(current, next)
		if !upgrade.IsValid() {
			s.reject(next.Metadata.Version, upgrade.Errors)
			return fmt.Errorf("spec upgrade %d -> %d rejected: %s",
				current.Metadata.Version, next.Metadata.Version, strings.Join(upgrade.Errors, "; "))
		}
		warnings = append(warnings, upgrade.Warnings...)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	for _, w := range warnings {
		logging.Warn("SpecSource", "spec version %d: %s", next.Metadata.Version, w)
	}
	logging.Info("SpecSource", "accepted spec version %d for room %s",
		next.Metadata.Version, next.Spec.RoomID)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.NewEnvelope(events.TypeSpecAccepted, map[string]interface{}{
			"roomId":   next.Spec.RoomID,
			"version":  next.Metadata.Version,
			"name":     next.Metadata.Name,
			"warnings": warnings,
		}))
	}
	if s.trigger != nil {
		s.trigger(next)
	}
	return nil
}

func (s *Source) reject(version int, reasons []string) {
	logging.Warn("SpecSource", "rejected spec version %d: %s", version, strings.Join(reasons, "; "))
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.NewEnvelope(events.TypeSpecRejected, map[string]interface{}{
			"version": version,
			"errors":  reasons,
		}))
	}
}
