package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/models"
)

// Remote calls an external recognition service over HTTP. The service gets
// the scan file reference plus the expected item list and answers with
// per-item results, or with a failure reason when extraction was impossible.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote constructs a client targeting the provided base URL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type remoteItem struct {
	ItemID     uuid.UUID `json:"itemId"`
	IsChecked  bool      `json:"isChecked"`
	Confidence int       `json:"confidence"`
}

// Recognize posts the scan to the recognition service and decodes its answer.
func (r *Remote) Recognize(ctx context.Context, version *models.TemplateVersion, scan *models.Scan) (*Outcome, error) {
	expected := version.Items()
	itemIDs := make([]uuid.UUID, 0, len(expected))
	for _, it := range expected {
		itemIDs = append(itemIDs, it.ID)
	}

	payload := map[string]any{
		"scanId":  scan.ID,
		"fileUrl": scan.FileURL,
		"itemIds": itemIDs,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/recognize", r.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recognition service failed: %s", resp.Status)
	}

	var result struct {
		Items         []remoteItem `json:"items"`
		FailureReason string       `json:"failureReason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	out := &Outcome{FailureReason: result.FailureReason}
	for _, it := range result.Items {
		out.Items = append(out.Items, models.RecognizedItem{
			ItemID:     it.ItemID,
			IsChecked:  it.IsChecked,
			Confidence: ClampConfidence(it.Confidence),
		})
	}
	return out, nil
}
