// Package filesystem provides a connector that walks a local directory tree
// for Markdown files.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ConnectorType is the type identifier for this connector.
const ConnectorType = "filesystem"

// DefaultExtensions are the file extensions loaded when none are configured.
var DefaultExtensions = []string{".md", ".mdx"}

// DefaultExcludeDirs are the directory names skipped when none are configured.
var DefaultExcludeDirs = []string{".git", ".obsidian", ".trash", "node_modules", ".DS_Store", "__pycache__"}

// ErrConnectorClosed is returned when using a closed connector.
var ErrConnectorClosed = errors.New("connector closed")

// Connector reads matching files below a root directory.
type Connector struct {
	rootPath    string
	extensions  map[string]struct{}
	excludeDirs map[string]struct{}

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// Option configures the connector.
type Option func(*Connector)

// WithExtensions sets the recognised file extensions.
// Matching is case-insensitive and a leading dot is optional.
func WithExtensions(exts ...string) Option {
	return func(c *Connector) {
		if len(exts) == 0 {
			return
		}
		c.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.extensions[ext] = struct{}{}
		}
	}
}

// WithExcludeDirs sets the directory names that exclude any file below them.
func WithExcludeDirs(dirs ...string) Option {
	return func(c *Connector) {
		c.excludeDirs = make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			if dir = strings.TrimSpace(dir); dir != "" {
				c.excludeDirs[dir] = struct{}{}
			}
		}
	}
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{rootPath: rootPath}
	WithExtensions(DefaultExtensions...)(c)
	WithExcludeDirs(DefaultExcludeDirs...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// Root returns the root directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrSourceNotFound, c.rootPath)
		}
		return fmt.Errorf("%w: %v", domain.ErrSourceNotFound, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrSourceNotFound, c.rootPath)
	}
	return nil
}

// FullSync walks the root in lexical order and emits every matching file.
// A missing root is sent as a single fatal error. Unreadable or non-UTF-8
// files are sent as *domain.ItemError and the walk continues.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		send := func(err error) bool {
			select {
			case errs <- err:
				return true
			case <-ctx.Done():
				return false
			}
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if !send(&domain.ItemError{URI: path, Reason: domain.ReasonRead, Err: err}) {
					return ctx.Err()
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != c.rootPath && c.isExcludedDir(d.Name()) {
					logger.Debug("Skipping excluded directory %s", path)
					return filepath.SkipDir
				}
				return nil
			}
			if !c.Matches(path) {
				return nil
			}

			raw, itemErr := c.readFile(path)
			if itemErr != nil {
				logger.Warn("Skipping %s: %v", path, itemErr.Err)
				if !send(itemErr) {
					return ctx.Err()
				}
				return nil
			}

			select {
			case docs <- raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			send(fmt.Errorf("walk %s: %w", c.rootPath, walkErr))
		}
	}()

	return docs, errs
}

// Matches reports whether path has a recognised extension and no excluded
// directory segment relative to the root.
func (c *Connector) Matches(path string) bool {
	if _, ok := c.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}

	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = path
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segments[:len(segments)-1] {
		if c.isExcludedDir(seg) {
			return false
		}
	}
	return true
}

func (c *Connector) isExcludedDir(name string) bool {
	_, ok := c.excludeDirs[name]
	return ok
}

func (c *Connector) readFile(path string) (domain.RawDocument, *domain.ItemError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, &domain.ItemError{URI: path, Reason: domain.ReasonRead, Err: err}
	}
	if !utf8.Valid(content) {
		return domain.RawDocument{}, &domain.ItemError{URI: path, Reason: domain.ReasonDecode, Err: domain.ErrNotUTF8}
	}
	return domain.RawDocument{
		URI:      path,
		MIMEType: mimeTypeFor(path),
		Content:  content,
	}, nil
}

// mimeTypeFor maps an extension to the MIME type the normalisers expect.
// Any other configured extension is treated as Markdown.
func mimeTypeFor(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".mdx" {
		return "text/mdx"
	}
	return "text/markdown"
}

// Watch emits a change for every create, write, remove or rename of a
// matching file below the root. New directories are watched as they appear.
// The channel is closed when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClosed
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watchers = append(c.watchers, watcher)

	changes := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.RawDocumentChange) {
	defer close(changes)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change, ok := c.toChange(watcher, event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

func (c *Connector) toChange(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.RawDocumentChange, bool) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !c.isExcludedDir(filepath.Base(event.Name)) {
				if err := c.addTree(watcher, event.Name); err != nil {
					logger.Warn("Failed to watch %s: %v", event.Name, err)
				}
			}
			return domain.RawDocumentChange{}, false
		}
	}

	if !c.Matches(event.Name) {
		return domain.RawDocumentChange{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		return domain.RawDocumentChange{Type: domain.ChangeCreated, URI: event.Name}, true
	case event.Has(fsnotify.Write):
		return domain.RawDocumentChange{Type: domain.ChangeUpdated, URI: event.Name}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.RawDocumentChange{Type: domain.ChangeDeleted, URI: event.Name}, true
	default:
		return domain.RawDocumentChange{}, false
	}
}

// addTree watches dir and every non-excluded directory below it.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && c.isExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops any active watchers. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}
