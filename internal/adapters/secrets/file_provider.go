package secrets

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider serves webhook secrets read from a file, one secret per line.
// The first non-comment line is the active secret; later lines remain valid
// so the vendor and this service can rotate independently.
type FileProvider struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	current [][]byte
}

// NewFileProvider performs the initial load and fails when the file holds no secret.
func NewFileProvider(path string, logger *slog.Logger) (*FileProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &FileProvider{path: filepath.Clean(path), logger: logger}
	if _, err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FileProvider) Secrets() [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Reload re-reads the file. On error the previous secrets stay in effect.
func (p *FileProvider) Reload() (int, error) {
	loaded, err := readSecrets(p.path)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.current = loaded
	p.mu.Unlock()
	return len(loaded), nil
}

// Watch reloads the secrets whenever the file is written or replaced.
// The parent directory is watched so atomic renames are observed too.
func (p *FileProvider) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("secret watcher: %w", err)
	}
	dir := filepath.Dir(p.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("secret watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != p.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				n, err := p.Reload()
				if err != nil {
					p.logger.Warn("webhook secret reload failed; keeping previous secrets",
						"module", "secrets",
						"layer", "adapter",
						"operation", "reload_secret",
						"outcome", "failure",
						"error", err,
					)
					continue
				}
				p.logger.Info("webhook secrets reloaded",
					"module", "secrets",
					"layer", "adapter",
					"operation", "reload_secret",
					"outcome", "success",
					"secret_count", n,
				)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.logger.Warn("webhook secret watcher error",
					"module", "secrets",
					"layer", "adapter",
					"operation", "watch_secret",
					"outcome", "failure",
					"error", err,
				)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

func readSecrets(path string) ([][]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file %s: %w", path, err)
	}
	out := make([][]byte, 0, 2)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan secret file %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("secret file %s holds no secret", path)
	}
	return out, nil
}
