package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Register the still-image formats the camera collaborators produce.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// ExtractionResult reports the representative color pulled from an encoded
// frame. Decode and bounds problems are carried as a validity flag plus
// error, not a fault: frames arrive speculatively and the caller degrades to
// heuristic detection.
type ExtractionResult struct {
	RGB         session.RGB
	Valid       bool
	Err         error
	SampleCount int
	// NeutralRegionRatio is the fraction of sampled tiles whose channel
	// spread stays under the neutral threshold; high values indicate the
	// frame is dominated by one light source's cast rather than scene
	// content.
	NeutralRegionRatio float64
}

// Pixel stride while averaging a tile. Camera frames are large and tile
// means converge quickly, so visiting every fourth pixel is enough.
const sampleStride = 4

// ExtractAverageRGB decodes the buffer and averages tile means over
// sampleRegions equal-area tiles: a square grid when sampleRegions is a
// perfect square, otherwise a 1xN strip. neutralThreshold is the maximum
// normalized channel spread for a tile to count as neutral.
func ExtractAverageRGB(data []byte, sampleRegions int, neutralThreshold float64) ExtractionResult {
	if sampleRegions < 1 {
		sampleRegions = 1
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ExtractionResult{Err: fmt.Errorf("failed to decode image: %w", err)}
	}

	bounds := img.Bounds()
	cols, rows := gridShape(sampleRegions)
	tileW := bounds.Dx() / cols
	tileH := bounds.Dy() / rows
	if tileW < 1 || tileH < 1 {
		return ExtractionResult{Err: fmt.Errorf("image %dx%d too small for %d regions",
			bounds.Dx(), bounds.Dy(), sampleRegions)}
	}

	var sum session.RGB
	neutral := 0
	tiles := 0
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			tile := image.Rect(
				bounds.Min.X+col*tileW,
				bounds.Min.Y+row*tileH,
				bounds.Min.X+(col+1)*tileW,
				bounds.Min.Y+(row+1)*tileH,
			)
			mean, ok := meanRGB(img, tile)
			if !ok {
				continue
			}
			sum.R += mean.R
			sum.G += mean.G
			sum.B += mean.B
			if channelSpread(mean) < neutralThreshold {
				neutral++
			}
			tiles++
		}
	}

	if tiles == 0 {
		return ExtractionResult{Err: fmt.Errorf("no samplable pixels in %dx%d image", bounds.Dx(), bounds.Dy())}
	}

	n := float64(tiles)
	return ExtractionResult{
		RGB:                session.RGB{R: sum.R / n, G: sum.G / n, B: sum.B / n},
		Valid:              true,
		SampleCount:        tiles,
		NeutralRegionRatio: float64(neutral) / n,
	}
}

// ExtractRGBFromRegion decodes the buffer and averages one caller-specified
// rectangle. The rectangle must be fully contained in the decoded image; a
// partial read is never clamped silently because confidence in it would be
// unjustified.
func ExtractRGBFromRegion(data []byte, x, y, width, height int) ExtractionResult {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ExtractionResult{Err: fmt.Errorf("failed to decode image: %w", err)}
	}

	if width <= 0 || height <= 0 {
		return ExtractionResult{Err: fmt.Errorf("invalid region size %dx%d", width, height)}
	}

	bounds := img.Bounds()
	region := image.Rect(bounds.Min.X+x, bounds.Min.Y+y, bounds.Min.X+x+width, bounds.Min.Y+y+height)
	if !region.In(bounds) {
		return ExtractionResult{Err: fmt.Errorf("region (%d,%d %dx%d) outside image bounds %dx%d",
			x, y, width, height, bounds.Dx(), bounds.Dy())}
	}

	mean, ok := meanRGB(img, region)
	if !ok {
		return ExtractionResult{Err: fmt.Errorf("region (%d,%d %dx%d) contains no samplable pixels", x, y, width, height)}
	}

	return ExtractionResult{
		RGB:         mean,
		Valid:       true,
		SampleCount: 1,
	}
}

// gridShape picks the tile layout for a region count.
func gridShape(regions int) (cols, rows int) {
	root := int(math.Sqrt(float64(regions)))
	if root*root == regions {
		return root, root
	}
	return regions, 1
}

// meanRGB averages the pixels of one rectangle, visiting every
// sampleStride-th pixel in each direction.
func meanRGB(img image.Image, rect image.Rectangle) (session.RGB, bool) {
	var r, g, b float64
	count := 0
	for py := rect.Min.Y; py < rect.Max.Y; py += sampleStride {
		for px := rect.Min.X; px < rect.Max.X; px += sampleStride {
			pr, pg, pb, _ := img.At(px, py).RGBA()
			r += float64(pr) / 65535.0
			g += float64(pg) / 65535.0
			b += float64(pb) / 65535.0
			count++
		}
	}
	if count == 0 {
		return session.RGB{}, false
	}
	n := float64(count)
	return session.RGB{R: r / n, G: g / n, B: b / n}, true
}

// channelSpread is the max-min channel difference of a color, the
// neutrality proxy used for the tile ratio.
func channelSpread(c session.RGB) float64 {
	max := math.Max(c.R, math.Max(c.G, c.B))
	min := math.Min(c.R, math.Min(c.G, c.B))
	return max - min
}
