package engine

import "strings"

// HealthMonitor classifies the engine's log stream during an attempt.
// Symptom flags are reset between attempts; the fragment and warning
// counters accumulate for the lifetime of a run so the final summary
// can report them.
type HealthMonitor struct {
	signatureFailed bool
	imagesOnly      bool
	forbidden       bool

	skipped  int
	warnings int
	errors   int
}

// NewHealthMonitor returns a monitor with all flags and counters clear.
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{}
}

// Reset clears the per-attempt symptom flags. Counters are untouched.
func (m *HealthMonitor) Reset() {
	m.signatureFailed = false
	m.imagesOnly = false
	m.forbidden = false
}

// Debug observes a verbose-level engine line.
func (m *HealthMonitor) Debug(line string) {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "fragment") && strings.Contains(lower, "skipping") {
		m.skipped++
	}
}

// Warning observes a warning-level engine line.
func (m *HealthMonitor) Warning(line string) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "signature solving failed"),
		strings.Contains(lower, "challenge solving failed"):
		m.signatureFailed = true
	case strings.Contains(lower, "only images are available"):
		m.imagesOnly = true
	case strings.Contains(lower, "fragment") && strings.Contains(lower, "skipping"):
		m.skipped++
	default:
		m.warnings++
	}
}

// Error observes an error-level engine line. A 403 latches the fatal
// forbidden flag so the adapter can abort the attempt early.
func (m *HealthMonitor) Error(line string) {
	lower := strings.ToLower(line)
	if strings.Contains(line, "403") || strings.Contains(lower, "forbidden") {
		m.forbidden = true
	}
	if strings.Contains(lower, "fragment") && strings.Contains(lower, "not found") {
		m.skipped++
	}
	m.errors++
}

// Degraded reports whether the attempt showed symptoms of a throttled
// or handicapped player response.
func (m *HealthMonitor) Degraded() bool {
	return m.signatureFailed || m.imagesOnly
}

// SignatureFailed reports whether player signature solving failed.
func (m *HealthMonitor) SignatureFailed() bool { return m.signatureFailed }

// ImagesOnly reports whether only storyboard images were offered.
func (m *HealthMonitor) ImagesOnly() bool { return m.imagesOnly }

// FatalForbidden reports whether a 403 was seen this attempt.
func (m *HealthMonitor) FatalForbidden() bool { return m.forbidden }

// Skipped returns the accumulated count of skipped fragments.
func (m *HealthMonitor) Skipped() int { return m.skipped }

// Warnings returns the accumulated count of unclassified warnings.
func (m *HealthMonitor) Warnings() int { return m.warnings }

// Errors returns the accumulated count of error lines.
func (m *HealthMonitor) Errors() int { return m.errors }
