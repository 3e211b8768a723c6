package recognizer

import (
	"context"

	"github.com/example/checkflow/internal/models"
)

// ReviewThreshold is the confidence below which a recognized item forces
// manual review of the whole checklist.
const ReviewThreshold = 70

// Outcome is what a recognition pass produced for one scan. When extraction
// fails entirely, Items is empty and FailureReason names the cause.
type Outcome struct {
	Items         []models.RecognizedItem
	FailureReason string
}

// Recognizer extracts per-item checked state from a scanned checklist. The
// version supplies the full item list of the form the job was printed from.
// Implementations report routine extraction failures through
// Outcome.FailureReason, not through the error return; errors are reserved
// for transport or programming faults.
type Recognizer interface {
	Recognize(ctx context.Context, version *models.TemplateVersion, scan *models.Scan) (*Outcome, error)
}

// ClampConfidence forces a confidence value into [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// ClassifyVerdict derives the coarse verdict from an outcome: extraction
// failure means ERROR, any item below ReviewThreshold means NEED_REVIEW,
// everything else is AUTO_OK.
func ClassifyVerdict(items []models.RecognizedItem, failureReason string) models.RecognitionVerdict {
	if failureReason != "" {
		return models.VerdictError
	}
	for _, it := range items {
		if it.Confidence < ReviewThreshold {
			return models.VerdictNeedReview
		}
	}
	return models.VerdictAutoOK
}
