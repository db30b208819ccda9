package referencedata

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

//go:embed bundled/*.csv
var bundled embed.FS

// Kind names one of the two reference datasets
type Kind string

const (
	KindExhibitors Kind = "exhibitors"
	KindEvents     Kind = "events"
)

var bundledFiles = map[Kind]string{
	KindExhibitors: "bundled/espositori.csv",
	KindEvents:     "bundled/eventi.csv",
}

// Data holds both datasets as raw, unparsed text
type Data struct {
	Exhibitors string `json:"exhibitors"`
	Events     string `json:"events"`
}

// Empty reports whether neither dataset has any content
func (d Data) Empty() bool {
	return strings.TrimSpace(d.Exhibitors) == "" && strings.TrimSpace(d.Events) == ""
}

// Diagnostic records a source that could not be read as configured
type Diagnostic struct {
	Kind     Kind   `json:"kind"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
	Fallback bool   `json:"fallback"`
}

// Loader reads the exhibitor directory and the event schedule once and
// serves later calls from the cached copy.
type Loader struct {
	exhibitorsPath string
	eventsPath     string
	useBundled     bool

	mu          sync.Mutex
	cached      *Data
	diagnostics []Diagnostic
}

type Option func(*Loader)

// WithBundledFallback controls whether a missing source is replaced by the
// sample dataset compiled into the binary.
func WithBundledFallback(enabled bool) Option {
	return func(l *Loader) {
		l.useBundled = enabled
	}
}

func NewLoader(exhibitorsPath, eventsPath string, opts ...Option) *Loader {
	l := &Loader{
		exhibitorsPath: exhibitorsPath,
		eventsPath:     eventsPath,
		useBundled:     true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns both datasets. It never fails: an unreadable or empty source
// yields an empty string for that slot and a diagnostic.
func (l *Loader) Load() Data {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return *l.cached
	}
	return l.loadLocked()
}

// Reload drops the cached copy and reads both sources again
func (l *Loader) Reload() Data {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loadLocked()
}

// Diagnostics returns the problems recorded by the last load
func (l *Loader) Diagnostics() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Diagnostic, len(l.diagnostics))
	copy(out, l.diagnostics)
	return out
}

func (l *Loader) loadLocked() Data {
	l.diagnostics = nil

	data := Data{
		Exhibitors: l.read(KindExhibitors, l.exhibitorsPath),
		Events:     l.read(KindEvents, l.eventsPath),
	}

	logger.Info(logger.DATA, "Reference data loaded: exhibitors=%d bytes, events=%d bytes, diagnostics=%d",
		len(data.Exhibitors), len(data.Events), len(l.diagnostics))

	l.cached = &data
	return data
}

func (l *Loader) read(kind Kind, filePath string) string {
	if filePath == "" && l.useBundled {
		if fallback, err := bundled.ReadFile(bundledFiles[kind]); err == nil {
			logger.Debug(logger.DATA, "No %s source configured - using bundled %s", kind, path.Base(bundledFiles[kind]))
			return string(fallback)
		}
	}

	text, err := readFile(filePath)
	if err == nil {
		return text
	}

	diag := Diagnostic{Kind: kind, Path: filePath, Reason: err.Error()}
	defer func() {
		l.diagnostics = append(l.diagnostics, diag)
	}()

	if !l.useBundled {
		logger.Warn(logger.DATA, "Reference data %s unavailable at %q: %v - continuing without it", kind, filePath, err)
		return ""
	}

	fallback, bundledErr := bundled.ReadFile(bundledFiles[kind])
	if bundledErr != nil {
		logger.Error(logger.DATA, "Bundled %s dataset unreadable: %v", kind, bundledErr)
		return ""
	}

	diag.Fallback = true
	logger.Warn(logger.DATA, "Reference data %s unavailable at %q: %v - using bundled %s", kind, filePath, err, path.Base(bundledFiles[kind]))
	return string(fallback)
}

var errEmptySource = errors.New("source is empty")

func readFile(filePath string) (string, error) {
	if filePath == "" {
		return "", errors.New("no path configured")
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read reference data: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", errEmptySource
	}

	return string(raw), nil
}
