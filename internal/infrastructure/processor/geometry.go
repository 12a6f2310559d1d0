package processor

import "math"

// SampleSize returns the power-of-two decode factor for a source of
// srcWidth x srcHeight aimed at a targetWidth x targetHeight box. The factor
// is the largest one that keeps the reduced image at least as large as the
// target on both axes, so the exact scale that follows never upsamples.
//
// A source that already fits, or a degenerate target box, yields 1.
func SampleSize(srcWidth, srcHeight, targetWidth, targetHeight int) int {
	factor := 1
	if targetWidth <= 0 || targetHeight <= 0 || srcWidth <= 0 || srcHeight <= 0 {
		return factor
	}

	if srcHeight > targetHeight || srcWidth > targetWidth {
		halfHeight := srcHeight / 2
		halfWidth := srcWidth / 2

		for halfHeight/factor >= targetHeight && halfWidth/factor >= targetWidth {
			factor *= 2
		}
	}

	return factor
}

// FitSize returns the largest size with the source aspect ratio that fits in
// the target box. When the target box is relatively wider than the source the
// height is bound to the box; otherwise, including exactly equal ratios, the
// width is. Both results are at least 1. Zero is returned for a source or
// target without height.
func FitSize(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	if srcHeight <= 0 || targetHeight <= 0 || srcWidth <= 0 || targetWidth <= 0 {
		return 0, 0
	}

	targetRatio := float64(targetWidth) / float64(targetHeight)
	srcRatio := float64(srcWidth) / float64(srcHeight)

	var width, height int
	if targetRatio > srcRatio {
		height = targetHeight
		width = int(math.Round(float64(height) * srcRatio))
	} else {
		width = targetWidth
		height = int(math.Round(float64(width) / srcRatio))
	}

	return max(width, 1), max(height, 1)
}
