package prefabs

import (
	"log"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay batches the burst of events editors produce for one save.
const settleDelay = 100 * time.Millisecond

// Change is an edit to a config or script file on disk.
type Change struct {
	// Name is the base name of the file.
	Name   string
	Script bool
}

// Watcher reports edits to config and script files. Events is closed when the
// watcher stops.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Events  chan Change
	closeCh chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fsw:     fsw,
		Events:  make(chan Change, 16),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)

	pending := make(map[string]Change)
	var flush <-chan time.Time
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			c, ok := classify(event)
			if !ok {
				continue
			}
			pending[c.Name] = c
			if flush == nil {
				flush = time.After(settleDelay)
			}
		case <-flush:
			flush = nil
			for _, name := range slices.Sorted(maps.Keys(pending)) {
				select {
				case w.Events <- pending[name]:
				case <-w.closeCh:
					return
				}
			}
			clear(pending)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("prefabs: watch: %v", err)
		case <-w.closeCh:
			return
		}
	}
}

func classify(event fsnotify.Event) (Change, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return Change{}, false
	}
	name := filepath.Base(event.Name)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return Change{Name: name}, true
	case ".tengo":
		return Change{Name: name, Script: true}, true
	}
	return Change{}, false
}
