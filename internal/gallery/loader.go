// Package gallery fetches the list of finished wallpapers and renders it.
// Failures stay inside this package: callers always get a View.
package gallery

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"wallclient/internal/domain"
	"wallclient/internal/infra"
)

// Source lists completed wallpapers.
type Source interface {
	Gallery(ctx context.Context) ([]domain.Wallpaper, error)
}

// Result is the outcome of the latest fetch.
type Result struct {
	Wallpapers []domain.Wallpaper
	Err        error
	Loaded     bool
}

// View renders the result in the given language.
func (r Result) View(tag language.Tag) View {
	if r.Err != nil {
		return Unavailable(tag)
	}
	return Build(tag, r.Wallpapers)
}

// Loader fetches the gallery and keeps the latest result.
type Loader struct {
	source Source
	logger *infra.Logger

	mu        sync.RWMutex
	latest    Result
	listeners []func(Result)
}

// NewLoader constructs a loader over source.
func NewLoader(source Source, logger *infra.Logger) *Loader {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Loader{source: source, logger: logger}
}

// Load fetches the gallery once. The error wraps domain.ErrGalleryUnavailable.
func (l *Loader) Load(ctx context.Context) Result {
	wallpapers, err := l.source.Gallery(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("gallery: load failed")
		return Result{Err: fmt.Errorf("%w: %w", domain.ErrGalleryUnavailable, err), Loaded: true}
	}
	l.logger.Debug().Int("count", len(wallpapers)).Msg("gallery: loaded")
	return Result{Wallpapers: wallpapers, Loaded: true}
}

// Refresh reloads the gallery, stores the result and notifies listeners.
func (l *Loader) Refresh(ctx context.Context) {
	res := l.Load(ctx)
	l.mu.Lock()
	l.latest = res
	listeners := append([]func(Result){}, l.listeners...)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(res)
	}
}

// Latest returns the stored result; Loaded is false before the first Refresh.
func (l *Loader) Latest() Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest
}

// OnRefresh registers fn to be called after every Refresh.
func (l *Loader) OnRefresh(fn func(Result)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}
