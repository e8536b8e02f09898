package catalog

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"battler-server/pkg/logger"
)

// Watcher следит за директорией внешнего каталога и перезагружает его
// при изменении yaml-файлов. Инструмент для тюнинга баланса: встроенные
// данные остаются рабочим дефолтом.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher

	// Reloads доставляет свежезагруженный каталог после каждого
	// успешного изменения на диске.
	Reloads chan *Catalog

	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher создает вотчер поверх dir и запускает цикл наблюдения.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:     dir,
		watcher: fw,
		Reloads: make(chan *Catalog, 1),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close останавливает наблюдение. Повторные вызовы безопасны.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	// Reloads закрывает только эта горутина: иначе Close мог бы закрыть
	// канал между приемом события и отправкой снимка.
	defer close(w.Reloads)

	// Редакторы часто пишут файл несколькими событиями подряд,
	// поэтому дребезг гасим по времени последнего события.
	last := make(map[string]time.Time)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now

			c, err := LoadDir(w.dir)
			if err != nil {
				logger.Log.WithError(err).Warn("Catalog reload failed, keeping previous data")
				continue
			}
			select {
			case w.Reloads <- c:
			default:
				// Потребитель не успел — заменяем устаревший снимок.
				select {
				case <-w.Reloads:
				default:
				}
				select {
				case w.Reloads <- c:
				case <-w.closeCh:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Log.WithError(err).Warn("Catalog watcher error")

		case <-w.closeCh:
			return
		}
	}
}

func isCatalogFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
