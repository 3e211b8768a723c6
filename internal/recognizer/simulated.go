package recognizer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/example/checkflow/internal/models"
)

// FailureReasonUnreadable is reported when the identifying code on the scan
// cannot be read at all.
const FailureReasonUnreadable = "QR code not found or damaged"

// Simulated stands in for a real vision backend. Roughly one scan in five
// fails extraction, one in three lands in a low-confidence band that triggers
// review, and the rest read cleanly. A fixed seed makes the sequence
// reproducible.
type Simulated struct {
	mu    sync.Mutex
	rng   *rand.Rand
	delay time.Duration
}

// NewSimulated builds a simulated recognizer. A zero seed picks one from the
// clock; delay models scan processing time and may be zero.
func NewSimulated(seed int64, delay time.Duration) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{rng: rand.New(rand.NewSource(seed)), delay: delay}
}

// Recognize rolls an outcome for every item of the pinned version.
func (s *Simulated) Recognize(ctx context.Context, version *models.TemplateVersion, scan *models.Scan) (*Outcome, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roll := s.rng.Float64()
	if roll > 0.8 {
		return &Outcome{FailureReason: FailureReasonUnreadable}, nil
	}

	lowBand := roll > 0.5
	items := version.Items()
	out := make([]models.RecognizedItem, 0, len(items))
	for _, item := range items {
		confidence := 80 + s.rng.Intn(20)
		if lowBand {
			confidence = 40 + s.rng.Intn(40)
		}
		out = append(out, models.RecognizedItem{
			ItemID:     item.ID,
			IsChecked:  s.rng.Float64() > 0.2,
			Confidence: confidence,
		})
	}
	return &Outcome{Items: out}, nil
}
