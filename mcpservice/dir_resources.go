package mcpservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
	"github.com/elnormous/contenttype"
	"github.com/fsnotify/fsnotify"
)

// Canonical media types served for the common text formats in a data
// directory. Everything else falls back to extension lookup.
var (
	mediaTypeJSON  = contenttype.NewMediaType("application/json")
	mediaTypeText  = contenttype.NewMediaType("text/plain")
	mediaTypeOctet = contenttype.NewMediaType("application/octet-stream")
)

// mimeTypeForExt resolves a file extension to a normalized media type string.
func mimeTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".json":
		return mediaTypeJSON.String()
	case ".txt", ".md", ".log":
		return mediaTypeText.String()
	}
	if raw := mime.TypeByExtension(strings.ToLower(ext)); raw != "" {
		if mt := contenttype.NewMediaType(raw); mt.Type != "" {
			return mt.String()
		}
	}
	return mediaTypeOctet.String()
}

// DirResources provides a ResourcesCapability over a single restricted
// directory of files. Each regular file in the directory (non-recursive) is
// advertised as a resource under baseURI, and the directory as a whole is
// advertised as a URI template.
//
// Security: reads resolve symlinks and refuse any path that escapes the
// configured root. Escaping paths are reported as not-found rather than as a
// distinct error so probes learn nothing about the filesystem layout.
type DirResources struct {
	root    string // absolute, symlink-evaluated directory on disk
	baseURI string // URI prefix for entries, e.g. "file:///data"

	templateName        string
	templateDescription string

	log *slog.Logger

	mu      sync.RWMutex
	listing []mcp.Resource // refreshed by the watcher; nil until first scan
}

// DirOption configures DirResources.
type DirOption func(*DirResources)

// WithDirBaseURI sets the URI prefix used in Resource.URI. Defaults to
// "file://" plus the resolved root path.
func WithDirBaseURI(base string) DirOption {
	return func(d *DirResources) { d.baseURI = strings.TrimRight(base, "/") }
}

// WithDirTemplate sets the name and description advertised for the directory's
// URI template.
func WithDirTemplate(name, description string) DirOption {
	return func(d *DirResources) {
		d.templateName = name
		d.templateDescription = description
	}
}

// WithDirLogger sets the logger used by the directory watcher.
func WithDirLogger(log *slog.Logger) DirOption {
	return func(d *DirResources) { d.log = log }
}

// NewDirResources constructs a directory-backed resources capability rooted
// at root, which must exist.
func NewDirResources(root string, opts ...DirOption) (*DirResources, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	fi, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("stat data dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", real)
	}

	d := &DirResources{
		root:         real,
		baseURI:      "file://" + filepath.ToSlash(real),
		templateName: "Directory Files",
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Watch keeps the cached listing current using fsnotify until ctx is
// canceled. It is optional: without a watcher, listings fall back to an
// on-demand directory scan.
func (d *DirResources) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := w.Add(d.root); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", d.root, err)
	}

	d.refresh()
	d.log.InfoContext(ctx, "resources.dir.watch", slog.String("root", d.root))

	go func() {
		defer func() {
			// Best-effort watcher close; no actionable error path.
			_ = w.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
					d.refresh()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.log.DebugContext(ctx, "resources.dir.watch_error", slog.String("err", err.Error()))
			}
		}
	}()
	return nil
}

// refresh rescans the directory and swaps the cached listing.
func (d *DirResources) refresh() {
	listing, err := d.scan()
	if err != nil {
		d.log.Debug("resources.dir.scan_failed", slog.String("err", err.Error()))
		return
	}
	d.mu.Lock()
	d.listing = listing
	d.mu.Unlock()
}

// scan lists the regular files directly under the root.
func (d *DirResources) scan() ([]mcp.Resource, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	out := make([]mcp.Resource, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		out = append(out, mcp.Resource{
			URI:      d.baseURI + "/" + url.PathEscape(name),
			Name:     name,
			MimeType: mimeTypeForExt(filepath.Ext(name)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out, nil
}

// ListResources implements ResourcesCapability.
func (d *DirResources) ListResources(ctx context.Context, _ sessions.Session) ([]mcp.Resource, error) {
	d.mu.RLock()
	cached := d.listing
	d.mu.RUnlock()
	if cached != nil {
		out := make([]mcp.Resource, len(cached))
		copy(out, cached)
		return out, nil
	}
	return d.scan()
}

// ListResourceTemplates implements ResourcesCapability.
func (d *DirResources) ListResourceTemplates(ctx context.Context, _ sessions.Session) ([]mcp.ResourceTemplate, error) {
	return []mcp.ResourceTemplate{{
		URITemplate: d.baseURI + "/{filename}",
		Name:        d.templateName,
		Description: d.templateDescription,
	}}, nil
}

// ReadResource implements ResourcesCapability.
func (d *DirResources) ReadResource(ctx context.Context, _ sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	rel, ok := d.uriToRel(uri)
	if !ok {
		return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}

	abs := filepath.Join(d.root, filepath.FromSlash(rel))
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}
	if !within(real, d.root) {
		return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}
	data, err := os.ReadFile(real)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}

	mimeType := mimeTypeForExt(filepath.Ext(real))
	if utf8.Valid(data) {
		return []mcp.ResourceContents{{URI: uri, MimeType: mimeType, Text: string(data)}}, nil
	}
	return []mcp.ResourceContents{{URI: uri, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(data)}}, nil
}

// uriToRel maps a resource URI back to a root-relative path. Any hint of
// parent traversal rejects the URI.
func (d *DirResources) uriToRel(uri string) (string, bool) {
	base := d.baseURI + "/"
	if !strings.HasPrefix(uri, base) {
		return "", false
	}
	raw := strings.TrimPrefix(uri, base)
	segs := strings.Split(raw, "/")
	for i, s := range segs {
		dec, err := url.PathUnescape(s)
		if err != nil {
			return "", false
		}
		segs[i] = dec
	}
	rel := strings.Join(segs, "/")
	if rel == "" || !filepath.IsLocal(rel) {
		return "", false
	}
	return rel, true
}

// within reports whether target is root or inside root.
func within(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
