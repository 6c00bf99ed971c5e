package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// RestartSignal tells downstream consumers that the stream was discontinuous and everything
// they derived from earlier frames is stale.
type RestartSignal struct {
	Restart bool      `json:"restart"`
	Stamp   float64   `json:"stamp"`
	Epoch   uuid.UUID `json:"epoch"`
}

// A Publisher delivers the front-end's outputs.
type Publisher interface {
	PublishFeatures(ctx context.Context, set *FeatureSet) error
	PublishRestart(ctx context.Context, signal RestartSignal) error
	PublishOverlay(ctx context.Context, stamp float64, img image.Image) error
}

type jsonLine struct {
	Type     string         `json:"type"`
	Features *FeatureSet    `json:"features,omitempty"`
	Restart  *RestartSignal `json:"restart,omitempty"`
}

// JSONPublisher writes feature sets and restart signals as JSON lines and overlays as PNG
// files.
type JSONPublisher struct {
	mu         sync.Mutex
	enc        *json.Encoder
	overlayDir string
	overlays   int
}

// NewJSONPublisher returns a publisher writing lines to w. Overlays are written to
// overlayDir, or dropped when it is empty.
func NewJSONPublisher(w io.Writer, overlayDir string) *JSONPublisher {
	return &JSONPublisher{enc: json.NewEncoder(w), overlayDir: overlayDir}
}

// PublishFeatures writes a "features" line.
func (p *JSONPublisher) PublishFeatures(ctx context.Context, set *FeatureSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrap(p.enc.Encode(jsonLine{Type: "features", Features: set}), "writing feature set")
}

// PublishRestart writes a "restart" line.
func (p *JSONPublisher) PublishRestart(ctx context.Context, signal RestartSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrap(p.enc.Encode(jsonLine{Type: "restart", Restart: &signal}), "writing restart")
}

// PublishOverlay writes img to a numbered PNG file.
func (p *JSONPublisher) PublishOverlay(ctx context.Context, stamp float64, img image.Image) (err error) {
	if p.overlayDir == "" {
		return nil
	}
	p.mu.Lock()
	name := filepath.Join(p.overlayDir, fmt.Sprintf("overlay_%06d_%.6f.png", p.overlays, stamp))
	p.overlays++
	p.mu.Unlock()

	//nolint:gosec
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "creating overlay file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(png.Encode(f, img), "encoding overlay %q", name)
}
