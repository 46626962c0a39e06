package application

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/domain"
)

// Optimization thresholds: assets at or below these are left untouched.
const (
	optimizeSizeThreshold = 500 * 1024
	optimizeMaxDimension  = 1200
	optimizeJPEGQuality   = 80
)

// Optimizer recompresses and downscales oversized assets in place. Every
// failure path returns nil instead of an error: optimization is strictly
// best-effort and the pipeline reports success either way.
type Optimizer struct{}

func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize rewrites the file at absPath with a recompressed (and, when the
// image exceeds the dimension threshold, downscaled) version. Returns
// metadata about the savings, or nil when the asset was left as-is.
func (o *Optimizer) Optimize(absPath string) *domain.OptimizationInfo {
	if !canReencode(absPath) {
		return nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		log.Warn().Err(err).Str("path", absPath).Msg("optimize: stat failed")
		return nil
	}
	originalSize := info.Size()

	img, err := imaging.Open(absPath)
	if err != nil {
		log.Warn().Err(err).Str("path", absPath).Msg("optimize: decode failed")
		return nil
	}

	bounds := img.Bounds()
	oversizedBytes := originalSize > optimizeSizeThreshold
	oversizedPixels := bounds.Dx() > optimizeMaxDimension || bounds.Dy() > optimizeMaxDimension
	if !oversizedBytes && !oversizedPixels {
		return nil
	}

	if oversizedPixels {
		img = imaging.Fit(img, optimizeMaxDimension, optimizeMaxDimension, imaging.Lanczos)
	}

	// Re-encode next to the original so a failure never damages the asset.
	// The temp name keeps the extension so the encoder is picked correctly.
	ext := filepath.Ext(absPath)
	tmp := strings.TrimSuffix(absPath, ext) + ".opt" + ext
	if err := imaging.Save(img, tmp, imaging.JPEGQuality(optimizeJPEGQuality)); err != nil {
		log.Warn().Err(err).Str("path", absPath).Msg("optimize: re-encode failed")
		os.Remove(tmp)
		return nil
	}

	tmpInfo, err := os.Stat(tmp)
	if err != nil || tmpInfo.Size() >= originalSize {
		// No savings; keep the original.
		os.Remove(tmp)
		return nil
	}

	if err := os.Rename(tmp, absPath); err != nil {
		log.Warn().Err(err).Str("path", absPath).Msg("optimize: replace failed")
		os.Remove(tmp)
		return nil
	}

	optimizedSize := tmpInfo.Size()
	return &domain.OptimizationInfo{
		OriginalSize:  originalSize,
		OptimizedSize: optimizedSize,
		Ratio:         float64(optimizedSize) / float64(originalSize),
	}
}

// canReencode reports whether imaging has an encoder for the file's
// extension. WebP, for instance, decodes but cannot be re-encoded, so
// oversized WebP assets are served unoptimized.
func canReencode(absPath string) bool {
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
