package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"adoption-review/internal/common/metrics"
	"adoption-review/internal/models"
)

// DefaultIndex is the compliance index holding exported timeline entries.
const DefaultIndex = "adoption-audit"

// Document is the indexed form of one timeline entry.
type Document struct {
	EntryID         int64         `json:"entryId"`
	ApplicationID   int64         `json:"applicationId"`
	ApplicationCode string        `json:"applicationCode"`
	PetID           int64         `json:"petId"`
	ApplicantID     int64         `json:"applicantId"`
	ShelterID       int64         `json:"shelterId"`
	FromStatus      models.Status `json:"fromStatus"`
	ToStatus        models.Status `json:"toStatus"`
	ChangedBy       int64         `json:"changedBy"`
	Role            models.Role   `json:"role"`
	Reason          string        `json:"reason,omitempty"`
	AutoGenerated   bool          `json:"autoGenerated"`
	OccurredAt      time.Time     `json:"occurredAt"`
}

// NewDocument joins an entry with the identifiers of its application.
func NewDocument(app *models.Application, e models.TimelineEntry) Document {
	return Document{
		EntryID:         e.ID,
		ApplicationID:   app.ID,
		ApplicationCode: app.ApplicationID,
		PetID:           app.PetID,
		ApplicantID:     app.ApplicantID,
		ShelterID:       app.ShelterID,
		FromStatus:      e.FromStatus,
		ToStatus:        e.ToStatus,
		ChangedBy:       e.ChangedBy,
		Role:            e.Role,
		Reason:          e.Reason,
		AutoGenerated:   e.AutoGenerated,
		OccurredAt:      e.OccurredAt,
	}
}

// Indexer exports committed timeline entries to Elasticsearch. Entries are
// indexed by their id, so exporting the same entry twice overwrites it.
type Indexer struct {
	client  *elasticsearch.Client
	index   string
	metrics *metrics.Metrics
}

// NewIndexer returns an Indexer writing to index, or DefaultIndex when empty.
func NewIndexer(client *elasticsearch.Client, index string, m *metrics.Metrics) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index, metrics: m}
}

// IndexTimeline exports entries of app. It tries every entry and returns the
// joined failures.
func (ix *Indexer) IndexTimeline(ctx context.Context, app *models.Application, entries ...models.TimelineEntry) error {
	var errs []error
	for _, e := range entries {
		if err := ix.indexOne(ctx, NewDocument(app, e)); err != nil {
			if ix.metrics != nil {
				ix.metrics.AuditIndexFailed.Inc()
			}
			errs = append(errs, fmt.Errorf("entry %d: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (ix *Indexer) indexOne(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: strconv.FormatInt(doc.EntryID, 10),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index failed: %s", res.String())
	}
	return nil
}
