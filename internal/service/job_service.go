package service

import (
	"fmt"
	"time"

	"vetclinic/internal/repository"
	"vetclinic/internal/utils"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// PurgeStaleGuestMirrors deletes guest cart mirrors not touched within maxAge.
// User-owned mirrors stay: they back the synced-mode fallback cache.
func (s *JobService) PurgeStaleGuestMirrors(maxAge time.Duration) (int64, error) {
	utils.Sugar().Infof("Cron Job: Checking for guest cart mirrors older than %s...", maxAge)

	cutoff := time.Now().Add(-maxAge)
	sessionIDs, err := s.Repo.GetStaleGuestMirrorIDs(cutoff)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to get stale guest mirrors: %w", err)
	}

	if len(sessionIDs) == 0 {
		utils.Sugar().Info("Cron Job: No stale guest cart mirrors found.")
		return 0, nil
	}

	utils.Sugar().Infof("Cron Job: Found %d stale guest cart mirrors to delete.", len(sessionIDs))

	deleted, err := s.Repo.DeleteMirrors(sessionIDs)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to delete stale guest mirrors: %w", err)
	}

	utils.Sugar().Infof("Cron Job: Successfully deleted %d stale guest cart mirrors.", deleted)
	return deleted, nil
}
