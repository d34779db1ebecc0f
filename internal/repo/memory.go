package repo

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/harvestlink/recipient-service/internal/domain"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialRecipient wraps a Recipient for R-Tree indexing on (lat, lon).
type spatialRecipient struct {
	recipient domain.Recipient
	rect      *rtreego.Rect
}

func (s *spatialRecipient) Bounds() *rtreego.Rect {
	return s.rect
}

// MemoryDirectory is a RecipientDirectory over an in-memory snapshot.
// An R-Tree narrows candidates to a degree bounding box; DirectoryQuery.Screen
// then applies the exact predicates. Safe for concurrent use.
type MemoryDirectory struct {
	mu    sync.RWMutex
	tree  *rtreego.Rtree
	count int
}

// NewMemoryDirectory creates a directory holding the given recipients.
func NewMemoryDirectory(recipients ...domain.Recipient) *MemoryDirectory {
	d := &MemoryDirectory{}
	d.Load(recipients)
	return d
}

// Load replaces the snapshot with recipients. Recipients with coordinates
// outside WGS-84 ranges are skipped since they can never be within range.
func (d *MemoryDirectory) Load(recipients []domain.Recipient) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	count := 0
	for _, r := range recipients {
		if r.Location.Validate() != nil {
			continue
		}
		p := rtreego.Point{r.Location.Latitude, r.Location.Longitude}
		tree.Insert(&spatialRecipient{recipient: r, rect: p.ToRect(tolerance)})
		count++
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tree = tree
	d.count = count
}

// Len returns the number of indexed recipients.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.count
}

// Query returns the recipients admitted by q.Screen, ordered by ID.
func (d *MemoryDirectory) Query(ctx context.Context, q DirectoryQuery) ([]domain.Recipient, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repo.MemoryDirectory.Query: %w: %w", domain.ErrStoreUnavailable, err)
	}

	bounds, err := searchBounds(q.Center, q.RadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("repo.MemoryDirectory.Query: %w", err)
	}

	d.mu.RLock()
	hits := d.tree.SearchIntersect(bounds)
	d.mu.RUnlock()

	recipients := []domain.Recipient{}
	for _, hit := range hits {
		item, ok := hit.(*spatialRecipient)
		if !ok {
			continue
		}
		if q.Screen(item.recipient).Included {
			recipients = append(recipients, item.recipient)
		}
	}
	slices.SortFunc(recipients, func(a, b domain.Recipient) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return recipients, nil
}

// searchBounds returns a (lat, lon) rectangle enclosing every point within
// radiusMeters of center. Near the poles or across the antimeridian the
// longitude span widens to the full range; Screen does the exact cut.
func searchBounds(center domain.GeoPoint, radiusMeters float64) (*rtreego.Rect, error) {
	deg := radiusMeters / domain.EarthRadiusMeters * 180 / math.Pi

	latMin := math.Max(-90, center.Latitude-deg)
	latMax := math.Min(90, center.Latitude+deg)
	lonMin, lonMax := -180.0, 180.0

	if latMin > -90 && latMax < 90 {
		maxAbsLat := math.Max(math.Abs(latMin), math.Abs(latMax))
		lonDeg := deg / math.Cos(maxAbsLat*math.Pi/180)
		if center.Longitude-lonDeg >= -180 && center.Longitude+lonDeg <= 180 {
			lonMin, lonMax = center.Longitude-lonDeg, center.Longitude+lonDeg
		}
	}

	return rtreego.NewRect(
		rtreego.Point{latMin, lonMin},
		[]float64{math.Max(latMax-latMin, tolerance), math.Max(lonMax-lonMin, tolerance)},
	)
}
