package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type reminderStore interface {
	ListDueReminders(ctx context.Context, from time.Time, until time.Time, limit int) ([]models.Session, error)
	MarkReminded(ctx context.Context, sessionID int64) (bool, error)
}

const reminderBatchSize = 200

// ReminderService notifies both parties shortly before a scheduled session.
// Each session is claimed with MarkReminded before sending, so overlapping
// runs or instances remind at most once.
type ReminderService struct {
	sessions reminderStore
	identity *IdentityService
	notifier Notifier
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time
	cron     *cron.Cron
}

func NewReminderService(
	sessions reminderStore,
	identity *IdentityService,
	notifier Notifier,
	lead time.Duration,
	loc *time.Location,
) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		sessions: sessions,
		identity: identity,
		notifier: notifier,
		lead:     lead,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *ReminderService) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		sent, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("[REMINDER] run failed: %v", err)
			return
		}
		if sent > 0 {
			log.Printf("[REMINDER] sent %d session reminders", sent)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	log.Printf("[REMINDER] started schedule=%q lead=%s", schedule, s.lead)
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *ReminderService) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce sends reminders for sessions starting within the lead time and
// returns how many sessions it reminded.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.sessions.ListDueReminders(ctx, now, now.Add(s.lead), reminderBatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		session := &due[i]
		claimed, err := s.sessions.MarkReminded(ctx, session.ID)
		if err != nil {
			log.Printf("[REMINDER] claim session %d: %v", session.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		s.remind(ctx, session)
		sent++
	}
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, session *models.Session) {
	effects := dispatcher{notifier: s.notifier}
	when := session.ScheduledAt.In(s.loc).Format("15:04")
	actionURL := stringPtr(fmt.Sprintf("/sessions/%d", session.ID))

	coach, err := s.identity.coach(ctx, session.CoachID)
	if err != nil {
		coach = nil
	}
	member, err := s.identity.memberByProfile(ctx, session.MemberID)
	if err != nil {
		log.Printf("[REMINDER] session %d: load member %d: %v", session.ID, session.MemberID, err)
		member = nil
	}

	effects.notify(ctx, models.NotificationInput{
		UserID:      session.CoachID,
		Title:       "Upcoming session",
		Message:     fmt.Sprintf("Your session with %s starts at %s.", memberName(member), when),
		Category:    models.NotificationReminder,
		Priority:    models.PriorityHigh,
		ActionURL:   actionURL,
		ActionLabel: stringPtr("View session"),
	})
	if member != nil {
		effects.notify(ctx, models.NotificationInput{
			UserID:      member.UserID,
			Title:       "Upcoming session",
			Message:     fmt.Sprintf("Your session with %s starts at %s.", coachName(coach), when),
			Category:    models.NotificationReminder,
			Priority:    models.PriorityHigh,
			ActionURL:   actionURL,
			ActionLabel: stringPtr("View session"),
		})
	}
}
