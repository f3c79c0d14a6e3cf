package detect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumenlab/circadia-platform/internal/colorimetry"
	"github.com/lumenlab/circadia-platform/internal/imaging"
	"github.com/lumenlab/circadia-platform/internal/lighttype"
	"github.com/lumenlab/circadia-platform/internal/session"
)

// Detection method tags.
const (
	MethodHeuristic = "heuristic"
	MethodCameraXY  = "cie_xy"
)

// CameraEvidence carries the colorimetric fields that only exist for a
// camera-based detection, keeping invalid field combinations unrepresentable
// on the heuristic path.
type CameraEvidence struct {
	Chromaticity session.Chromaticity
	Duv          float64
	Kelvin       float64
}

// Result is a single lighting-environment detection. Camera is nil for
// heuristic detections.
type Result struct {
	LightType  string
	Confidence float64
	Method     string
	Camera     *CameraEvidence
}

// ToMap flattens the result for logging and serialization.
func (r *Result) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"lightType":  r.LightType,
		"confidence": r.Confidence,
		"method":     r.Method,
	}
	if r.Camera != nil {
		m["kelvin"] = r.Camera.Kelvin
		m["duv"] = r.Camera.Duv
		m["chromaticityX"] = r.Camera.Chromaticity.X
		m["chromaticityY"] = r.Camera.Chromaticity.Y
	}
	return m
}

// Detector resolves the lighting environment from ambient samples or camera
// frames. It holds no state between calls; the camera handle is owned by the
// caller and only borrowed for the duration of a detection.
type Detector struct {
	sampleRegions    int
	neutralThreshold float64
	logger           *slog.Logger
}

// NewDetector creates a detector with the given frame-sampling settings.
func NewDetector(sampleRegions int, neutralThreshold float64, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRegions < 1 {
		sampleRegions = 4
	}
	return &Detector{
		sampleRegions:    sampleRegions,
		neutralThreshold: neutralThreshold,
		logger:           logger,
	}
}

// DetectWithCamera captures a frame from the borrowed handle and classifies
// the dominant light source from its average chromaticity. The caller must
// have checked availability and fall back to heuristics when the camera is
// not ready or the frame cannot be used.
func (d *Detector) DetectWithCamera(ctx context.Context, camera *CameraHandle) (*Result, error) {
	if !camera.Available() {
		return nil, fmt.Errorf("camera not available")
	}

	frame, err := camera.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}

	return d.DetectFromFrame(frame)
}

// DetectFromFrame classifies the dominant light source of one encoded still
// frame, however it was captured.
func (d *Detector) DetectFromFrame(frame []byte) (*Result, error) {
	extraction := imaging.ExtractAverageRGB(frame, d.sampleRegions, d.neutralThreshold)
	if !extraction.Valid {
		return nil, fmt.Errorf("frame extraction failed: %w", extraction.Err)
	}

	chroma := colorimetry.RGBToChromaticity(extraction.RGB)
	if !chroma.Valid() {
		return nil, fmt.Errorf("frame too dark for chromaticity estimate")
	}

	cct := colorimetry.ChromaticityToCCT(chroma)
	if !cct.Valid {
		return nil, fmt.Errorf("chromaticity outside Planckian locus range")
	}

	result := &Result{
		LightType:  lighttype.CCTToLightType(cct.Kelvin),
		Confidence: lighttype.Confidence(cct.Duv, cct.Kelvin),
		Method:     MethodCameraXY,
		Camera: &CameraEvidence{
			Chromaticity: chroma,
			Duv:          cct.Duv,
			Kelvin:       cct.Kelvin,
		},
	}

	d.logger.Debug("Camera detection complete",
		"light_type", result.LightType,
		"kelvin", cct.Kelvin,
		"duv", cct.Duv,
		"confidence", result.Confidence,
		"neutral_ratio", extraction.NeutralRegionRatio)

	return result, nil
}
