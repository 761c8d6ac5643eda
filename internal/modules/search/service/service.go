package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const scholarshipIndex = "scholarships"

// ScholarshipIndex keeps the public scholarship directory searchable.
type ScholarshipIndex interface {
	EnsureSettings() error
	IndexScholarship(scholarship *entity.Scholarship) error
	DeleteScholarship(id uuid.UUID) error
	// Search returns matching ids in relevance order plus the estimated total.
	Search(query string, offset, limit int) ([]uuid.UUID, int64, error)
}

type meiliScholarshipIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

func NewMeiliScholarshipIndex(client meilisearch.ServiceManager, logger *zap.Logger) ScholarshipIndex {
	return &meiliScholarshipIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

type scholarshipDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	University  string `json:"university"`
	Degree      string `json:"degree"`
	Country     string `json:"country"`
	Description string `json:"description"`
	Deadline    int64  `json:"deadline,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *meiliScholarshipIndex) EnsureSettings() error {
	filterable := []any{"country", "degree"}
	if _, err := s.client.Index(scholarshipIndex).UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}

	sortable := []string{"deadline", "created_at"}
	if _, err := s.client.Index(scholarshipIndex).UpdateSortableAttributes(&sortable); err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}

	s.logger.Info("meilisearch index ready", zap.String("index", scholarshipIndex))
	return nil
}

// cleanText flattens rich descriptions to plain words for indexing.
func (s *meiliScholarshipIndex) cleanText(content string) string {
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>", "</li>"} {
		content = strings.ReplaceAll(content, tag, " ")
	}
	clean := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(clean), " ")
}

func (s *meiliScholarshipIndex) IndexScholarship(scholarship *entity.Scholarship) error {
	doc := scholarshipDoc{
		ID:          scholarship.ID.String(),
		Name:        scholarship.Name,
		University:  scholarship.University,
		Degree:      scholarship.Degree,
		Country:     scholarship.Country,
		Description: s.cleanText(scholarship.Description),
		CreatedAt:   scholarship.CreatedAt.Unix(),
	}
	if scholarship.Deadline != nil {
		doc.Deadline = scholarship.Deadline.Unix()
	}

	task, err := s.client.Index(scholarshipIndex).AddDocuments([]scholarshipDoc{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index scholarship %s: %w", scholarship.ID, err)
	}
	s.logger.Debug("scholarship indexed",
		zap.String("scholarship_id", doc.ID),
		zap.Int64("task_uid", task.TaskUID),
	)
	return nil
}

func (s *meiliScholarshipIndex) DeleteScholarship(id uuid.UUID) error {
	if _, err := s.client.Index(scholarshipIndex).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("delete scholarship %s from index: %w", id, err)
	}
	return nil
}

func (s *meiliScholarshipIndex) Search(query string, offset, limit int) ([]uuid.UUID, int64, error) {
	raw, err := s.client.Index(scholarshipIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Offset:               int64(offset),
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search scholarships: %w", err)
	}

	if raw == nil || !gjson.ValidBytes(*raw) {
		return nil, 0, fmt.Errorf("decode search response: invalid json")
	}
	res := gjson.ParseBytes(*raw)

	hits := res.Get("hits.#.id").Array()
	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.String())
		if err != nil {
			s.logger.Warn("skipping malformed search hit", zap.String("id", hit.Raw))
			continue
		}
		ids = append(ids, id)
	}
	return ids, res.Get("estimatedTotalHits").Int(), nil
}

func strPtr(s string) *string {
	return &s
}
