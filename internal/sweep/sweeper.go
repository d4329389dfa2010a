// Package sweep runs the periodic inactivity sweep: accounts past the
// inactivity threshold are deactivated, accounts inside the warning window
// get a reminder email. All account mutations of one run commit in a single
// transaction before any mail goes out.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
)

// Config controls the sweep schedule and thresholds.
type Config struct {
	// InactivityThreshold is how long an account may stay idle before it is
	// deactivated.
	InactivityThreshold time.Duration

	// WarnLeadTime is how long before deactivation the reminder goes out.
	// Zero disables reminders.
	WarnLeadTime time.Duration

	// Interval between runs when the sweeper drives itself via Start.
	Interval time.Duration

	// Timeout bounds a single run.
	Timeout time.Duration
}

// Result summarizes one sweep run.
type Result struct {
	Examined    int
	Deactivated int
	Warned      int
	Skipped     bool
}

type Sweeper struct {
	users repository.UserRepository
	mail  mailer.Mailer
	lease Lease
	cfg   Config
	now   func() time.Time
}

// NewSweeper wires a sweeper. lease may be nil, in which case runs are not
// serialized across replicas.
func NewSweeper(users repository.UserRepository, mail mailer.Mailer, lease Lease, cfg Config) *Sweeper {
	return &Sweeper{
		users: users,
		mail:  mail,
		lease: lease,
		cfg:   cfg,
		now:   time.Now,
	}
}

// pendingNotice is a notification queued while computing changes. It is only
// sent after the batch commits.
type pendingNotice struct {
	user      domain.User
	action    repository.SweepAction
	remaining time.Duration
}

// Run executes one sweep. Notification failures are logged and never roll
// back the committed state changes.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	if s.lease != nil {
		acquired, err := s.lease.Acquire(ctx)
		if err != nil {
			slog.WarnContext(ctx, "sweep lease acquisition failed, skipping run", "error", err)
			observability.RecordSweepRun(ctx, "skipped")
			return Result{Skipped: true}, nil
		}
		if !acquired {
			slog.InfoContext(ctx, "sweep lease held elsewhere, skipping run")
			observability.RecordSweepRun(ctx, "skipped")
			return Result{Skipped: true}, nil
		}
		defer s.lease.Release(ctx)
	}

	started := s.now()
	res, err := s.sweep(ctx)
	observability.RecordSweepDuration(ctx, s.now().Sub(started))
	if err != nil {
		observability.RecordSweepRun(ctx, "failed")
		return res, err
	}
	observability.RecordSweepRun(ctx, "completed")
	return res, nil
}

func (s *Sweeper) sweep(ctx context.Context) (Result, error) {
	now := s.now().UTC()
	inactivityThreshold := now.Add(-s.cfg.InactivityThreshold)
	reminderThreshold := now.Add(-(s.cfg.InactivityThreshold - s.cfg.WarnLeadTime))

	users, err := s.users.ListActive()
	if err != nil {
		return Result{}, fmt.Errorf("list active accounts: %w", err)
	}

	var changes []repository.SweepChange
	var notices []pendingNotice
	res := Result{Examined: len(users)}

	for _, u := range users {
		last := u.LastActivity
		if last.IsZero() {
			// Accounts created before activity tracking fall back to their
			// creation time instead of being swept immediately.
			last = u.CreatedAt
		}

		switch {
		case last.Before(inactivityThreshold):
			changes = append(changes, repository.SweepChange{UserID: u.ID, Action: repository.SweepDeactivate, At: now})
			notices = append(notices, pendingNotice{user: u, action: repository.SweepDeactivate})
			res.Deactivated++

		case s.cfg.WarnLeadTime > 0 && last.Before(reminderThreshold):
			if u.LastReminderSent != nil && !u.LastReminderSent.Before(reminderThreshold) {
				// Already reminded for this idle period.
				continue
			}
			remaining := s.cfg.InactivityThreshold - now.Sub(last)
			changes = append(changes, repository.SweepChange{UserID: u.ID, Action: repository.SweepRemind, At: now})
			notices = append(notices, pendingNotice{user: u, action: repository.SweepRemind, remaining: remaining})
			res.Warned++
		}
	}

	if len(changes) > 0 {
		if err := s.users.ApplySweep(ctx, changes); err != nil {
			return Result{Examined: res.Examined}, fmt.Errorf("apply sweep batch: %w", err)
		}
	}

	observability.RecordSweepExamined(ctx, res.Examined)
	observability.RecordSweepDeactivations(ctx, int64(res.Deactivated))
	observability.RecordSweepWarnings(ctx, int64(res.Warned))

	for _, n := range notices {
		s.notify(ctx, n)
	}

	slog.InfoContext(ctx, "sweep completed",
		"examined", res.Examined,
		"deactivated", res.Deactivated,
		"warned", res.Warned,
	)
	return res, nil
}

func (s *Sweeper) notify(ctx context.Context, n pendingNotice) {
	var kind string
	var err error
	switch n.action {
	case repository.SweepDeactivate:
		kind = "deactivation_notice"
		err = s.mail.SendDeactivationNotice(ctx, n.user.Email, n.user.Name)
	case repository.SweepRemind:
		kind = "inactivity_warning"
		err = s.mail.SendInactivityWarning(ctx, n.user.Email, n.user.Name, n.remaining)
	default:
		return
	}
	if err != nil {
		observability.RecordNotification(ctx, kind, "failed")
		slog.WarnContext(ctx, "sweep notification failed",
			"kind", kind, "user_id", n.user.ID, "error", err)
		return
	}
	observability.RecordNotification(ctx, kind, "sent")
}

// Start runs sweeps on the configured interval until ctx is cancelled. The
// first run happens after one full interval so a restart storm does not sweep
// repeatedly.
func (s *Sweeper) Start(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "sweeper stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			runCtx := ctx
			var cancel context.CancelFunc
			if s.cfg.Timeout > 0 {
				runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
			}
			if _, err := s.Run(runCtx); err != nil {
				slog.ErrorContext(runCtx, "sweep run failed", "error", err)
			}
			if cancel != nil {
				cancel()
			}
		}
	}
}
