package frame

// Detector decides whether a freshly captured frame shows different
// content than the last accepted one. The hashing method and threshold
// sit behind this interface so they can be tuned or swapped without
// touching the capture loop.
type Detector interface {
	// Fingerprint computes the perceptual fingerprint of a frame.
	Fingerprint(f *Frame) Fingerprint

	// Changed reports whether cur differs from prev by more than the
	// detector's similarity threshold. A nil prev means there is no
	// accepted page yet, which always counts as changed.
	Changed(prev *Fingerprint, cur Fingerprint) bool
}

// DHashDetector is the default Detector: dHash fingerprints compared
// by Hamming distance.
type DHashDetector struct {
	// Threshold is the maximum Hamming distance still considered "the
	// same page". Rendering jitter typically flips a handful of bits;
	// a real page turn flips dozens.
	Threshold int
}

// NewDetector returns a DHashDetector with the given similarity
// threshold. Negative thresholds are clamped to zero (exact hash
// equality).
func NewDetector(threshold int) *DHashDetector {
	if threshold < 0 {
		threshold = 0
	}
	return &DHashDetector{Threshold: threshold}
}

func (d *DHashDetector) Fingerprint(f *Frame) Fingerprint {
	return ComputeFingerprint(f.Image)
}

func (d *DHashDetector) Changed(prev *Fingerprint, cur Fingerprint) bool {
	if prev == nil {
		return true
	}
	return Distance(*prev, cur) > d.Threshold
}
