package engine

import (
	"log/slog"
	"os"

	"github.com/fennwick/glowwall/canvas"
	"github.com/fennwick/glowwall/compositor"
	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/gpucontext"
	"github.com/fennwick/glowwall/imgsource"
	"github.com/fennwick/glowwall/wallpaper"
)

// layer is a wallpaper bound to one output: the compositor handles it owns
// (not owned, merely referenced) and whichever of the static CPU buffer or
// GPU shader state the binding's source kind requires.
type layer struct {
	output     compositor.Output
	outputName string

	surface      compositor.Surface
	layerSurface compositor.LayerSurface
	viewport     compositor.Viewport
	fracScale    compositor.FractionalScale

	scale120 int32
	mode     compositor.OutputMode
	haveMode bool

	logicalWidth, logicalHeight uint32

	buffer         compositor.Buffer
	bufferW, bufferH int32

	gpuSurface *gpucontext.Surface
	canvas     *canvas.Canvas
}

// binding pairs one configured background entry with the layers currently
// rendering it, one per bound output, plus the directory-rotation state a
// path source needs when it names a directory rather than a single file.
type binding struct {
	entry  config.BackgroundEntry
	layers map[string]*layer

	watcher    *imgsource.Watcher
	imageQueue []string
}

func newBinding(entry config.BackgroundEntry, logger *slog.Logger) *binding {
	b := &binding{entry: entry, layers: map[string]*layer{}}

	if entry.Source.Kind == config.SourcePath && entry.Source.Path != "" {
		if info, err := os.Stat(entry.Source.Path); err == nil && info.IsDir() {
			b.watcher = imgsource.NewWatcher(entry.Source.Path, logger)
			b.imageQueue = wallpaper.ListImages(entry.Source.Path)
		}
	}

	return b
}

func (b *binding) close() {
	if b.watcher != nil {
		b.watcher.Close()
	}
}

// nextImage drains any pending directory-watcher events into the rotation
// queue, then pops its front. It reports false when this binding's source
// is not a directory (or the directory is empty).
func (b *binding) nextImage() (string, bool) {
	if b.watcher == nil {
		return "", false
	}

	b.drainWatcherEvents()

	if len(b.imageQueue) == 0 {
		b.imageQueue = wallpaper.ListImages(b.entry.Source.Path)
	}
	if len(b.imageQueue) == 0 {
		return "", false
	}

	front := b.imageQueue[0]
	b.imageQueue = b.imageQueue[1:]
	return front, true
}

func (b *binding) drainWatcherEvents() {
	for {
		select {
		case ev, ok := <-b.watcher.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case imgsource.Created, imgsource.RenamedInto:
				b.imageQueue = append([]string{ev.Path}, b.imageQueue...)
			case imgsource.RemovedRenamedAway:
				b.imageQueue = removePath(b.imageQueue, ev.Path)
			}
		default:
			return
		}
	}
}

func removePath(queue []string, path string) []string {
	out := queue[:0]
	for _, p := range queue {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// resolvedSource returns the source to actually render for this binding:
// the declared source, except a directory path source is replaced by the
// front of the rotation queue.
func (b *binding) resolvedSource() config.Source {
	if b.entry.Source.Kind == config.SourcePath {
		if path, ok := b.nextImage(); ok {
			return config.Source{Kind: config.SourcePath, Path: path}
		}
	}
	return b.entry.Source
}

func findBinding(bindings []*binding, selector string) *binding {
	for _, b := range bindings {
		if b.entry.OutputSelector == selector {
			return b
		}
	}
	return nil
}

func sameSourceKind(a, b config.Source) bool {
	return a.Kind == b.Kind
}
