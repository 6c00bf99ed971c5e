// Package patch implements a small per-camera tracker: Shi-Tomasi corners are detected on a
// minimum-distance grid and followed from frame to frame by an exhaustive sum-of-squared
// differences search around the rotation-predicted location.
package patch

import (
	"image"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/Taeyoung96/VINS-RGBD-FAST/logging"
	"github.com/Taeyoung96/VINS-RGBD-FAST/rimage/transform"
	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
	"github.com/Taeyoung96/VINS-RGBD-FAST/tracker"
	"github.com/Taeyoung96/VINS-RGBD-FAST/utils"
)

// Config holds the tracker's tuning parameters.
type Config struct {
	MaxFeatures     int     `json:"max_cnt"`
	MinDistance     int     `json:"min_dist"`
	PatchRadius     int     `json:"patch_radius"`
	SearchRadius    int     `json:"search_radius"`
	MaxMeanSSD      float64 `json:"max_mean_ssd"`
	CornerThreshold float64 `json:"corner_threshold"`
}

// DefaultConfig returns the parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxFeatures:     150,
		MinDistance:     30,
		PatchRadius:     3,
		SearchRadius:    12,
		MaxMeanSSD:      400,
		CornerThreshold: 100,
	}
}

// Tracker is a tracker.Tracker for one pinhole camera.
type Tracker struct {
	cfg    Config
	model  *transform.PinholeCameraModel
	ids    *tracker.IDAllocator
	mask   *image.Gray
	logger logging.Logger

	prevImg  *image.Gray
	prevTime float64
	features []tracker.Feature
}

// New returns a tracker for the given camera. mask may be nil; otherwise features are only
// kept where it is non-zero.
func New(cfg Config, model *transform.PinholeCameraModel, ids *tracker.IDAllocator, mask *image.Gray,
	logger logging.Logger,
) (*Tracker, error) {
	if err := model.CheckValid(); err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, errors.New("an id allocator is required")
	}
	if mask != nil && (mask.Bounds().Dx() != model.Width || mask.Bounds().Dy() != model.Height) {
		return nil, errors.Errorf("mask size %v does not match camera %dx%d", mask.Bounds().Size(), model.Width, model.Height)
	}
	return &Tracker{cfg: cfg, model: model, ids: ids, mask: mask, logger: logger}, nil
}

// Features returns the features of the last frame.
func (tr *Tracker) Features() []tracker.Feature {
	return tr.features
}

// UpdateID assigns an id to feature i if it does not have one yet.
func (tr *Tracker) UpdateID(i int) bool {
	if i < 0 || i >= len(tr.features) {
		return false
	}
	if tr.features[i].ID == tracker.UnassignedID {
		tr.features[i].ID = tr.ids.Next()
	}
	return true
}

// ReadImage tracks the previous features into img and tops the set up with new corners.
func (tr *Tracker) ReadImage(img *image.Gray, t float64, predicted spatialmath.RotationMatrix) error {
	if img.Bounds().Dx() != tr.model.Width || img.Bounds().Dy() != tr.model.Height {
		return errors.Errorf("image size %v does not match camera %dx%d", img.Bounds().Size(), tr.model.Width, tr.model.Height)
	}

	var tracked []tracker.Feature
	if tr.prevImg != nil {
		tracked = tr.track(img, t-tr.prevTime, predicted)
	}
	tracked = tr.thin(tracked)
	tr.features = append(tracked, tr.detect(img, tracked)...)
	tr.logger.Debugw("tracked frame", "time", t, "kept", len(tracked), "total", len(tr.features))

	tr.prevImg = img
	tr.prevTime = t
	return nil
}

func (tr *Tracker) track(img *image.Gray, dt float64, predicted spatialmath.RotationMatrix) []tracker.Feature {
	out := make([]tracker.Feature, 0, len(tr.features))
	for _, f := range tr.features {
		guess := f.Pixel
		if px, ok := tr.model.ProjectRay(predicted.Mul(r3.Vector{X: f.Ray.X, Y: f.Ray.Y, Z: 1})); ok && tr.model.InBounds(px) {
			guess = px
		}
		found, ok := tr.search(img, f.Pixel, guess)
		if !ok || !tr.allowed(found) {
			continue
		}
		ray := tr.model.LiftToRay(found)
		var velocity r2.Point
		if dt > 0 {
			velocity = ray.Sub(f.Ray).Mul(1 / dt)
		}
		out = append(out, tracker.Feature{
			ID:            f.ID,
			Pixel:         found,
			Ray:           ray,
			Velocity:      velocity,
			TrackCount:    f.TrackCount + 1,
			Predicted:     guess,
			HasPrediction: true,
		})
	}
	return out
}

// search finds the offset around guess whose patch in img best matches the patch around
// from in the previous image.
func (tr *Tracker) search(img *image.Gray, from, guess r2.Point) (r2.Point, bool) {
	r := tr.cfg.PatchRadius
	fx, fy := int(math.Round(from.X)), int(math.Round(from.Y))
	if !patchInside(tr.prevImg, fx, fy, r) {
		return r2.Point{}, false
	}
	gx, gy := int(math.Round(guess.X)), int(math.Round(guess.Y))

	best := math.Inf(1)
	var bestX, bestY int
	for dy := -tr.cfg.SearchRadius; dy <= tr.cfg.SearchRadius; dy++ {
		for dx := -tr.cfg.SearchRadius; dx <= tr.cfg.SearchRadius; dx++ {
			cx, cy := gx+dx, gy+dy
			if !patchInside(img, cx, cy, r) {
				continue
			}
			ssd := patchSSD(tr.prevImg, img, fx, fy, cx, cy, r, best)
			if ssd < best {
				best, bestX, bestY = ssd, cx, cy
			}
		}
	}
	side := float64(2*r + 1)
	if math.IsInf(best, 1) || best/(side*side) > tr.cfg.MaxMeanSSD {
		return r2.Point{}, false
	}
	return r2.Point{X: float64(bestX), Y: float64(bestY)}, true
}

// thin keeps the longest tracked features first and drops any closer than MinDistance to an
// already kept one.
func (tr *Tracker) thin(features []tracker.Feature) []tracker.Feature {
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].TrackCount > features[j].TrackCount
	})
	kept := make([]tracker.Feature, 0, len(features))
	for _, f := range features {
		if len(kept) >= tr.cfg.MaxFeatures {
			break
		}
		if tr.near(f.Pixel, kept) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (tr *Tracker) detect(img *image.Gray, existing []tracker.Feature) []tracker.Feature {
	need := tr.cfg.MaxFeatures - len(existing)
	if need <= 0 {
		return nil
	}
	corners := shiTomasi(img, tr.cfg.PatchRadius+1, tr.cfg.CornerThreshold)
	fresh := make([]tracker.Feature, 0, need)
	taken := append([]tracker.Feature{}, existing...)
	for _, c := range corners {
		if len(fresh) >= need {
			break
		}
		p := r2.Point{X: float64(c.X), Y: float64(c.Y)}
		if !tr.allowed(p) || tr.near(p, taken) {
			continue
		}
		f := tracker.Feature{
			ID:         tracker.UnassignedID,
			Pixel:      p,
			Ray:        tr.model.LiftToRay(p),
			TrackCount: 1,
		}
		fresh = append(fresh, f)
		taken = append(taken, f)
	}
	return fresh
}

func (tr *Tracker) near(p r2.Point, others []tracker.Feature) bool {
	minDist := float64(tr.cfg.MinDistance)
	for _, o := range others {
		if p.Sub(o.Pixel).Norm() < minDist {
			return true
		}
	}
	return false
}

func (tr *Tracker) allowed(p r2.Point) bool {
	if !tr.model.InBounds(p) {
		return false
	}
	if tr.mask == nil {
		return true
	}
	return tr.mask.GrayAt(int(math.Round(p.X)), int(math.Round(p.Y))).Y > 0
}

func patchInside(img *image.Gray, x, y, r int) bool {
	b := img.Bounds()
	return x-r >= b.Min.X && y-r >= b.Min.Y && x+r < b.Max.X && y+r < b.Max.Y
}

// patchSSD returns the sum of squared differences of two patches, stopping early once it
// exceeds bound.
func patchSSD(a, b *image.Gray, ax, ay, bx, by, r int, bound float64) float64 {
	sum := 0.0
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := float64(a.GrayAt(ax+dx, ay+dy).Y) - float64(b.GrayAt(bx+dx, by+dy).Y)
			sum += d * d
		}
		if sum >= bound {
			return sum
		}
	}
	return sum
}

type corner struct {
	X, Y  int
	Score float64
}

// shiTomasi scores every pixel at least border pixels from the edge by the smaller eigenvalue
// of its 3x3 structure tensor and returns those above threshold, best first.
func shiTomasi(img *image.Gray, border int, threshold float64) []corner {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ix := make([]float64, w*h)
	iy := make([]float64, w*h)
	at := func(x, y int) float64 { return float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			ix[y*w+x] = (at(x+1, y) - at(x-1, y)) / 2
			iy[y*w+x] = (at(x, y+1) - at(x, y-1)) / 2
		}
	}

	if border < 2 {
		border = 2
	}
	rows := h - 2*border
	if rows <= 0 || w-2*border <= 0 {
		return nil
	}
	var groups [][]corner
	utils.GroupWorkParallel(rows, func(numGroups int) {
		groups = make([][]corner, numGroups)
	}, func(groupNum, from, to int) {
		for y := border + from; y < border+to; y++ {
			for x := border; x < w-border; x++ {
				var sxx, syy, sxy float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						gx, gy := ix[(y+dy)*w+x+dx], iy[(y+dy)*w+x+dx]
						sxx += gx * gx
						syy += gy * gy
						sxy += gx * gy
					}
				}
				half := (sxx + syy) / 2
				score := half - math.Sqrt((sxx-syy)*(sxx-syy)/4+sxy*sxy)
				if score > threshold {
					groups[groupNum] = append(groups[groupNum], corner{X: b.Min.X + x, Y: b.Min.Y + y, Score: score})
				}
			}
		}
	})

	var corners []corner
	for _, group := range groups {
		corners = append(corners, group...)
	}
	sort.SliceStable(corners, func(i, j int) bool { return corners[i].Score > corners[j].Score })
	return corners
}
