package cron

import (
	"context"
	"log"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/robfig/cron/v3"
)

const (
	jobTimeout = 2 * time.Minute

	// Read notifications older than this are purged by the weekly cleanup.
	notificationRetention = 30 * 24 * time.Hour

	// Users idle for longer than this are marked away.
	awayAfter = 15 * time.Minute
)

// Scheduler handles scheduled housekeeping tasks
type Scheduler struct {
	cron             *cron.Cron
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	retention        time.Duration
	awayAfter        time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(userRepo repository.UserRepository, notificationRepo repository.NotificationRepository) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		retention:        notificationRetention,
		awayAfter:        awayAfter,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	// Clean up old notifications - Run every Sunday at midnight
	if _, err := s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	}); err != nil {
		return err
	}

	// Update user status to away - Run every 30 minutes
	if _, err := s.cron.AddFunc("*/30 * * * *", func() {
		log.Println("[Cron] Running user status update...")
		s.updateInactiveUserStatus()
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

// cleanupOldNotifications removes old read notifications
func (s *Scheduler) cleanupOldNotifications() int {
	if s.notificationRepo == nil {
		log.Println("[Cron] Notification repository not available for cleanup")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, time.Now().Add(-s.retention), true)
	if err != nil {
		log.Printf("[Cron] Error cleaning up notifications: %v", err)
		return 0
	}
	log.Printf("[Cron] Deleted %d old notifications", deleted)
	return deleted
}

// updateInactiveUserStatus marks users as away if inactive
func (s *Scheduler) updateInactiveUserStatus() int {
	if s.userRepo == nil {
		log.Println("[Cron] User repository not available for status update")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	updated, err := s.userRepo.UpdateStatusForInactive(ctx, s.awayAfter)
	if err != nil {
		log.Printf("[Cron] Error updating inactive users: %v", err)
		return 0
	}
	if updated > 0 {
		log.Printf("[Cron] Marked %d users as away", updated)
	}
	return updated
}

// ManualTrigger allows manual triggering of a job
func (s *Scheduler) ManualTrigger(job string) {
	switch job {
	case "cleanup":
		s.cleanupOldNotifications()
	case "user_status":
		s.updateInactiveUserStatus()
	case "all":
		s.cleanupOldNotifications()
		s.updateInactiveUserStatus()
	default:
		log.Printf("[Cron] Unknown job: %s", job)
	}
}
