package jobs

import (
	"context"
	"fmt"

	scholarshipRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/repository"
	searchService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/search/service"
)

const reindexBatchSize = 100

// ScholarshipReindexJob pushes every catalog row to the search index, repairing
// drift left by index writes that failed while the catalog write succeeded.
type ScholarshipReindexJob struct {
	repo     scholarshipRepo.ScholarshipRepository
	index    searchService.ScholarshipIndex
	schedule string
}

func NewScholarshipReindexJob(repo scholarshipRepo.ScholarshipRepository, index searchService.ScholarshipIndex, schedule string) *ScholarshipReindexJob {
	return &ScholarshipReindexJob{repo: repo, index: index, schedule: schedule}
}

func (j *ScholarshipReindexJob) Name() string     { return "scholarship-reindex" }
func (j *ScholarshipReindexJob) Schedule() string { return j.schedule }

func (j *ScholarshipReindexJob) Execute(ctx context.Context) error {
	for offset := 0; ; offset += reindexBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, total, err := j.repo.FindAll(ctx, "", offset, reindexBatchSize)
		if err != nil {
			return fmt.Errorf("load scholarships: %w", err)
		}
		for i := range batch {
			if err := j.index.IndexScholarship(&batch[i]); err != nil {
				return fmt.Errorf("index scholarship %s: %w", batch[i].ID, err)
			}
		}

		if len(batch) < reindexBatchSize || int64(offset+len(batch)) >= total {
			return nil
		}
	}
}
