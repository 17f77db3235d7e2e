package logging

// ProgressSampler throttles progress logs to one line per percent bucket
// within a phase. A new phase always logs once.
type ProgressSampler struct {
	bucketSize float64
	phase      string
	bucket     int
}

// NewProgressSampler returns a sampler with the given bucket width in percent.
// Widths <= 0 fall back to 10.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, bucket: -1}
}

// ShouldLog reports whether a progress line for percent in phase is due.
// A negative percent is unknown and only a phase change logs it.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	due := false
	if phase != s.phase {
		s.phase = phase
		s.bucket = -1
		due = true
	}
	if percent < 0 {
		return due
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket > s.bucket {
		s.bucket = bucket
		due = true
	}
	return due
}
