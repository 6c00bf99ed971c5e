package inject

import (
	"context"
	"image"
	"sync"

	"github.com/Taeyoung96/VINS-RGBD-FAST/frontend"
)

// Publisher is an injected frontend.Publisher. Without injected functions it records what it
// is given.
type Publisher struct {
	PublishFeaturesFunc func(ctx context.Context, set *frontend.FeatureSet) error
	PublishRestartFunc  func(ctx context.Context, signal frontend.RestartSignal) error
	PublishOverlayFunc  func(ctx context.Context, stamp float64, img image.Image) error

	mu       sync.Mutex
	Sets     []*frontend.FeatureSet
	Restarts []frontend.RestartSignal
	Overlays []image.Image
}

// PublishFeatures calls the injected PublishFeatures or records set.
func (p *Publisher) PublishFeatures(ctx context.Context, set *frontend.FeatureSet) error {
	if p.PublishFeaturesFunc != nil {
		return p.PublishFeaturesFunc(ctx, set)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sets = append(p.Sets, set)
	return nil
}

// PublishRestart calls the injected PublishRestart or records signal.
func (p *Publisher) PublishRestart(ctx context.Context, signal frontend.RestartSignal) error {
	if p.PublishRestartFunc != nil {
		return p.PublishRestartFunc(ctx, signal)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Restarts = append(p.Restarts, signal)
	return nil
}

// PublishOverlay calls the injected PublishOverlay or records img.
func (p *Publisher) PublishOverlay(ctx context.Context, stamp float64, img image.Image) error {
	if p.PublishOverlayFunc != nil {
		return p.PublishOverlayFunc(ctx, stamp, img)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Overlays = append(p.Overlays, img)
	return nil
}

// Counts returns how many feature sets, restarts and overlays were recorded.
func (p *Publisher) Counts() (sets, restarts, overlays int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Sets), len(p.Restarts), len(p.Overlays)
}
