package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/schedule"
	"github.com/rfinnegan/chorewheel/internal/store"
)

// overdueLookbackDays bounds how far back the sweep looks for unfinished
// occurrences.
const overdueLookbackDays = 30

// Scheduler runs a cron-driven sweep that reminds members about chores due
// today and chores that slipped past their date.
type Scheduler struct {
	service    *Service
	push       *store.PushStore
	chores     *store.ChoreStore
	households *store.HouseholdStore
	spec       string
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewScheduler(
	svc *Service,
	pushStore *store.PushStore,
	choreStore *store.ChoreStore,
	householdStore *store.HouseholdStore,
	spec string,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		service:    svc,
		push:       pushStore,
		chores:     choreStore,
		households: householdStore,
		spec:       spec,
		logger:     logger.With("component", "push_scheduler"),
	}
}

// Start schedules the daily sweep. The cron entry runs until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder sweep scheduled", "spec", s.spec)
	return nil
}

// Stop halts the cron runner and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep expands today's schedule for every household that has at least one
// push subscription and notifies assignees about due and overdue chores.
// Each (chore, date, type) reminder is sent at most once across restarts.
func (s *Scheduler) Sweep(ctx context.Context) {
	householdIDs, err := s.push.ListHouseholdIDs()
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	today := schedule.Day(time.Now())
	for _, hid := range householdIDs {
		if err := s.sweepHousehold(ctx, hid, today); err != nil {
			s.logger.Error("sweep household", "household_id", hid, "error", err)
		}
	}
}

func (s *Scheduler) sweepHousehold(ctx context.Context, householdID int64, today time.Time) error {
	chores, err := s.chores.ListByHousehold(householdID, false)
	if err != nil {
		return fmt.Errorf("list chores: %w", err)
	}

	subs, err := s.push.ListByHousehold(householdID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	from := today.AddDate(0, 0, -overdueLookbackDays)
	for _, chore := range chores {
		overrides, err := s.chores.ListOverridesByChore(chore.ID)
		if err != nil {
			return fmt.Errorf("list overrides: %w", err)
		}
		completions, err := s.chores.ListCompletionsInRange(
			chore.ID,
			from.AddDate(0, 0, -chore.FrequencyDays),
			today.AddDate(0, 0, chore.FrequencyDays),
		)
		if err != nil {
			return fmt.Errorf("list completions: %w", err)
		}

		occs, err := schedule.Expand(chore, overrides, completions, from, today, today)
		if err != nil {
			// Misconfigured chores surface in the schedule API; skip here.
			continue
		}

		for _, occ := range occs {
			var notifType string
			var payload Payload
			switch {
			case occ.Status == schedule.StatusPending && occ.Date.Equal(today):
				notifType = model.NotifTypeChoreDue
				payload = Payload{
					Title: "Chore due today",
					Body:  chore.Title,
					URL:   "/schedule",
					Tag:   fmt.Sprintf("chore-due-%d", chore.ID),
				}
			case occ.Status == schedule.StatusOverdue:
				notifType = model.NotifTypeChoreOverdue
				payload = Payload{
					Title: "Chore overdue",
					Body:  fmt.Sprintf("%s was due %s", chore.Title, occ.Date.Format("Jan 2")),
					URL:   "/schedule",
					Tag:   fmt.Sprintf("chore-overdue-%d", chore.ID),
				}
			default:
				continue
			}

			refID := fmt.Sprintf("%d-%s", chore.ID, occ.Date.Format("2006-01-02"))
			fresh, err := s.push.MarkSent(householdID, notifType, refID)
			if err != nil {
				s.logger.Error("mark sent", "error", err)
				continue
			}
			if !fresh {
				continue
			}

			s.notify(ctx, subs, occ.AssigneeID, payload)
		}
	}
	return nil
}

// notify sends to the assignee's devices, or to everyone when the
// occurrence is unassigned.
func (s *Scheduler) notify(ctx context.Context, subs []model.PushSubscription, assigneeMemberID *int64, payload Payload) {
	var assigneeUserID int64
	if assigneeMemberID != nil {
		member, err := s.households.GetMemberByID(*assigneeMemberID)
		if err != nil || member == nil {
			return
		}
		assigneeUserID = member.UserID
	}

	for i := range subs {
		sub := &subs[i]
		if assigneeUserID != 0 && sub.UserID != assigneeUserID {
			continue
		}
		if err := s.service.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Warn("drop expired subscription", "error", err)
				}
				continue
			}
			s.logger.Warn("send reminder", "error", err)
		}
	}
}
