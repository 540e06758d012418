// Package deadline runs the background scan that pushes alerts for
// infractions approaching their response deadline.
package deadline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/config"
	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/notification"
)

// Service periodically scans for unanswered infractions whose response
// deadline falls within the configured lead window and dispatches them to
// the notification worker pool. Each infraction is alerted at most once
// per day.
type Service struct {
	cfg  *config.Config
	db   *gorm.DB
	pool *notification.WorkerPool
	now  func() time.Time
}

// NewService creates and initializes a deadline scanner.
func NewService(cfg *config.Config, db *gorm.DB) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	return &Service{
		cfg:  cfg,
		db:   db,
		pool: notification.NewWorkerPool(cfg.WorkerPool.Size, db, &webpushOptions),
		now:  time.Now,
	}
}

// Run starts the scan loop. It returns when ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Deadline.Enabled {
		log.Println("Deadline scanner is disabled. Not starting.")
		return
	}
	if s.cfg.Push.PublicKey == "" || s.cfg.Push.PrivateKey == "" {
		log.Println("VAPID keys are not configured. Deadline scanner not starting.")
		return
	}
	log.Println("Starting deadline scanner...")

	s.pool.Start(ctx)
	s.ScanOnce(ctx)

	timer := time.NewTimer(s.cfg.Deadline.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Deadline scanner shutting down.")
			return
		case <-timer.C:
			s.ScanOnce(ctx)
			timer.Reset(s.cfg.Deadline.Interval)
		}
	}
}

// ScanOnce performs a single scan cycle, dispatching an alert for every
// expiring infraction not yet alerted today.
func (s *Service) ScanOnce(ctx context.Context) {
	now := s.now()
	until := now.AddDate(0, 0, s.cfg.Deadline.LeadDays)
	today := now.Format("2006-01-02")

	var infractions []model.Infraction
	err := s.db.WithContext(ctx).
		Where("response_deadline IS NOT NULL").
		Where("response_deadline >= ? AND response_deadline < ?", now, until).
		Where("response_status <> ?", model.ResponseAnswered).
		Find(&infractions).Error
	if err != nil {
		log.Printf("Deadline scan failed: %v", err)
		return
	}

	for _, infraction := range infractions {
		alert := model.DeadlineAlert{InfractionID: infraction.ID, SentOn: today}
		if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue // already alerted today
			}
			log.Printf("Failed to record deadline alert for infraction %d: %v", infraction.ID, err)
			continue
		}
		s.pool.Dispatch(infraction.ID)
	}
}
