package service

import (
	"time"

	"vetclinic/internal/db"
	"vetclinic/internal/repository"
)

type AdminService struct {
	adminRepo *repository.AdminRepository
	jobs      *JobService
}

func NewAdminService(adminRepo *repository.AdminRepository, jobs *JobService) *AdminService {
	return &AdminService{adminRepo: adminRepo, jobs: jobs}
}

func (s *AdminService) ListMirrors(userID, updatedSince string, guestsOnly bool) ([]db.CartMirror, error) {
	return s.adminRepo.ListMirrors(userID, updatedSince, guestsOnly)
}

// PurgeStaleGuestMirrors is the manual counterpart of the nightly cron job.
func (s *AdminService) PurgeStaleGuestMirrors(maxAge time.Duration) (int64, error) {
	return s.jobs.PurgeStaleGuestMirrors(maxAge)
}
