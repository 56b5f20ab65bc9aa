package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/fsnotify/fsnotify"
)

// flowExtensions lists the file types read as flow documents.
var flowExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// FlowSource reads one flow per file from a directory.
// It implements ports.FlowSource and ports.Watchable.
type FlowSource struct {
	Dir    string
	logger *slog.Logger
}

// FlowSourceOption configures a FlowSource.
type FlowSourceOption func(*FlowSource)

// WithSourceLogger sets the logger used by the watcher.
func WithSourceLogger(logger *slog.Logger) FlowSourceOption {
	return func(s *FlowSource) {
		s.logger = logger
	}
}

// NewFlowSource creates a source over dir.
func NewFlowSource(dir string, opts ...FlowSourceOption) *FlowSource {
	s := &FlowSource{Dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Files lists the flow documents in the directory, sorted.
func (s *FlowSource) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if flowExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(s.Dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load decodes every flow document in the directory.
// Decoding errors of all files are reported together.
func (s *FlowSource) Load(ctx context.Context) ([]*domain.FlowDefinition, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}

	var flows []*domain.FlowDefinition
	var errs []error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		flow, err := schema.Decode(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		flows = append(flows, flow)
	}
	if len(errs) > 0 {
		return nil, &schema.AggregateError{Errors: errs}
	}
	return flows, nil
}

// Watch reports changes to flow documents in the directory.
// The channel is closed when ctx is done or the watcher fails.
func (s *FlowSource) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Dir, err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !flowExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case ch <- ev.Name:
				default:
					// A reload is already pending.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Flow watcher error", "dir", s.Dir, "err", err)
			}
		}
	}()
	return ch, nil
}
