package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ThqRel/logger"

	"github.com/fsnotify/fsnotify"
)

// SpoolWatcher 监听落盘目录，自动把新文件上传到 MinIO
// 架构：落盘文件 → fsnotify 监听 → WorkerPool 并行上传 → MinIO
// Files land as <spool>/<releaseId>/<name> and upload under assets/<releaseId>/<name>.
type SpoolWatcher struct {
	store       *AssetStore
	dir         string
	workerCount int
}

// NewSpoolWatcher creates a watcher over dir. workers <= 0 falls back to 4.
func NewSpoolWatcher(store *AssetStore, dir string, workers int) *SpoolWatcher {
	if workers <= 0 {
		workers = 4
	}
	return &SpoolWatcher{store: store, dir: dir, workerCount: workers}
}

// Run watches until ctx is cancelled. It uploads files already present at
// start, then every file fsnotify reports as created or written.
func (w *SpoolWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create spool dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch spool dir: %w", err)
	}

	tasks := make(chan string)
	// 已处理文件追踪，避免 CREATE+WRITE 重复上传
	processed := &sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				w.uploadOne(ctx, path)
			}
		}()
	}

	enqueue := func(path string) {
		if _, loaded := processed.LoadOrStore(path, true); loaded {
			return
		}
		select {
		case tasks <- path:
		case <-ctx.Done():
		}
	}

	// 处理启动前已存在的文件
	entries, err := os.ReadDir(w.dir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				sub := filepath.Join(w.dir, e.Name())
				_ = watcher.Add(sub)
				w.enqueueExisting(sub, enqueue)
				continue
			}
			enqueue(filepath.Join(w.dir, e.Name()))
		}
	}

	logger.Info("spool watcher started",
		logger.String("dir", w.dir),
		logger.Int("workers", w.workerCount))

	for {
		select {
		case <-ctx.Done():
			close(tasks)
			wg.Wait()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				close(tasks)
				wg.Wait()
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// 新的 releaseId 子目录也要监听
				_ = watcher.Add(event.Name)
				continue
			}
			enqueue(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				close(tasks)
				wg.Wait()
				return nil
			}
			logger.Warn("spool watcher error", logger.ErrorField(err))
		}
	}
}

func (w *SpoolWatcher) enqueueExisting(dir string, enqueue func(string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			enqueue(filepath.Join(dir, e.Name()))
		}
	}
}

// uploadOne uploads one spooled file and removes it on success. Hidden and
// partial files (dotfiles, .part suffix) are skipped.
func (w *SpoolWatcher) uploadOne(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".part") {
		return
	}

	// 等待写入方完成，简单的大小稳定检查
	if !waitStable(path, 3, 200*time.Millisecond) {
		logger.Warn("spool file never stabilized, skipping", logger.String("path", path))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("failed to open spool file", logger.String("path", path), logger.ErrorField(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Warn("failed to stat spool file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		rel = name
	}
	objectName := "assets/" + filepath.ToSlash(rel)

	url, err := w.store.Put(ctx, objectName, f, info.Size(), "")
	if err != nil {
		logger.Error("spool upload failed", logger.String("path", path), logger.ErrorField(err))
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("failed to remove spooled file after upload",
			logger.String("path", path), logger.ErrorField(err))
	}
	logger.Info("spooled asset uploaded",
		logger.String("object", objectName),
		logger.String("url", url))
}

// waitStable returns true once two consecutive stats report the same size.
func waitStable(path string, attempts int, interval time.Duration) bool {
	var last int64 = -1
	for i := 0; i < attempts; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == last {
			return true
		}
		last = info.Size()
		time.Sleep(interval)
	}
	return true
}
