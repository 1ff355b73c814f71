package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file when it changes on disk and hands the
// result to a callback. The frame loop never blocks on reloads; the
// callback runs on the watcher goroutine and should only swap pointers.
type Watcher struct {
	watcher  *fsnotify.Watcher
	log      zerolog.Logger
	onReload func(*Config)

	mu   sync.Mutex
	done chan struct{}
}

// NewWatcher watches the config directory for writes to config.yaml.
func NewWatcher(log zerolog.Logger, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir, err := GetConfigDir()
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		log:      log.With().Str("component", "config-watcher").Logger(),
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) || filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			cfg, err := Load()
			if err != nil {
				w.log.Warn().Err(err).Msg("config reload failed, keeping previous")
				continue
			}
			w.log.Info().Msg("config reloaded")
			if w.onReload != nil {
				w.onReload(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.watcher.Close()
}
