package sprout

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// DictionaryWatcher reloads a dictionary YAML file whenever it changes on
// disk. Parsed dictionaries arrive on Updates; read and parse failures on
// Errors. Both channels are closed after Close.
type DictionaryWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	Updates chan *Dictionary
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// WatchDictionary starts watching path. The directory is watched rather than
// the file so editors that save by rename are picked up.
func WatchDictionary(path string) (*DictionaryWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	dw := &DictionaryWatcher{
		watcher: w,
		path:    abs,
		Updates: make(chan *Dictionary, 4),
		Errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
	}
	go dw.run()
	return dw, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *DictionaryWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *DictionaryWatcher) run() {
	defer close(w.Updates)
	defer close(w.Errors)

	var last time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			now := time.Now()
			if now.Sub(last) < reloadDebounce {
				continue
			}
			last = now

			d, err := LoadDictionaryFile(w.path)
			if err != nil {
				w.sendErr(err)
				continue
			}
			select {
			case w.Updates <- d:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *DictionaryWatcher) sendErr(err error) {
	select {
	case w.Errors <- err:
	case <-w.closeCh:
	}
}
