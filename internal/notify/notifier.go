// Package notify implements the due-soon reminder dispatcher: a periodic,
// stateless batch job that emails owners and shared members of tasks due
// the next calendar day.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare-api/internal/domain"
	"github.com/phrazzld/taskshare-api/internal/platform/logger"
	"github.com/phrazzld/taskshare-api/internal/platform/mail"
	"github.com/phrazzld/taskshare-api/internal/store"
)

// descriptionPlaceholder is rendered when a task has no description.
const descriptionPlaceholder = "No description"

// SendFailure records one reminder that could not be delivered. Failures are
// captured per task so a broken send never aborts the rest of the run; they
// are logged and surfaced to the caller for observability only.
type SendFailure struct {
	TaskID     uuid.UUID
	Recipients []string
	Err        error
}

// DueSoonNotifier scans the task store for incomplete tasks due tomorrow and
// emails every interested party. It keeps no state between runs: re-running
// it the same day re-derives the same recipient set and re-sends the same
// reminders. There is deliberately no record of what was already sent.
type DueSoonNotifier struct {
	tasks  store.TaskStore
	users  store.UserStore
	mailer mail.Mailer
	now    func() time.Time // Injectable for testing
	logger *slog.Logger
}

// Option configures a DueSoonNotifier.
type Option func(*DueSoonNotifier)

// WithClock overrides the notifier's time source. "Tomorrow" is computed
// from this clock's local calendar date.
func WithClock(now func() time.Time) Option {
	return func(n *DueSoonNotifier) {
		n.now = now
	}
}

// NewDueSoonNotifier creates a new DueSoonNotifier.
func NewDueSoonNotifier(
	tasks store.TaskStore,
	users store.UserStore,
	mailer mail.Mailer,
	logger *slog.Logger,
	opts ...Option,
) *DueSoonNotifier {
	if tasks == nil {
		panic("tasks store cannot be nil")
	}
	if users == nil {
		panic("users store cannot be nil")
	}
	if mailer == nil {
		panic("mailer cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	n := &DueSoonNotifier{
		tasks:  tasks,
		users:  users,
		mailer: mailer,
		now:    time.Now,
		logger: logger.With(slog.String("component", "due_soon_notifier")),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Run executes one dispatch: it finds every incomplete task due tomorrow,
// builds a deduplicated recipient list per task, and sends one reminder per
// task. A failed send is captured and the run continues with the next task;
// the returned error is non-nil only when the store query itself fails.
func (n *DueSoonNotifier) Run(ctx context.Context) ([]SendFailure, error) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	targetDate := domain.NormalizeDueDate(n.now().AddDate(0, 0, 1))

	tasks, err := n.tasks.FindDueIncomplete(ctx, targetDate)
	if err != nil {
		log.Error("due-soon query failed",
			slog.String("error", err.Error()),
			slog.Time("target_date", targetDate))
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}

	log.Info("due-soon dispatch started",
		slog.Time("target_date", targetDate),
		slog.Int("task_count", len(tasks)))

	var failures []SendFailure
	sent := 0

	for _, task := range tasks {
		recipients := n.recipientsFor(ctx, task)
		if len(recipients) == 0 {
			log.Debug("no reachable recipients, skipping task",
				slog.String("task_id", task.ID.String()))
			continue
		}

		subject, body := composeReminder(task)

		if err := n.mailer.Send(ctx, subject, body, recipients); err != nil {
			// Fail-silent per task: reminders must not depend on mail
			// infrastructure uptime.
			log.Warn("reminder delivery failed",
				slog.String("task_id", task.ID.String()),
				slog.Int("recipient_count", len(recipients)),
				slog.String("error", err.Error()))
			failures = append(failures, SendFailure{
				TaskID:     task.ID,
				Recipients: recipients,
				Err:        err,
			})
			continue
		}

		sent++
	}

	log.Info("due-soon dispatch finished",
		slog.Time("target_date", targetDate),
		slog.Int("sent", sent),
		slog.Int("failed", len(failures)))

	return failures, nil
}

// recipientsFor builds the reminder recipient list for one task: the owner's
// email followed by each shared user's email, trimmed, empty addresses
// dropped, exact duplicates removed while preserving first-seen order.
// Users that cannot be resolved are treated as having no email.
func (n *DueSoonNotifier) recipientsFor(ctx context.Context, task *domain.Task) []string {
	log := logger.FromContextOrDefault(ctx, n.logger)

	userIDs := make([]uuid.UUID, 0, len(task.SharedWith)+1)
	userIDs = append(userIDs, task.OwnerID)
	userIDs = append(userIDs, task.SharedWith...)

	recipients := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))

	for _, id := range userIDs {
		user, err := n.users.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, store.ErrUserNotFound) {
				log.Warn("failed to resolve reminder recipient",
					slog.String("task_id", task.ID.String()),
					slog.String("user_id", id.String()),
					slog.String("error", err.Error()))
			}
			continue
		}

		email := strings.TrimSpace(user.Email)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		recipients = append(recipients, email)
	}

	return recipients
}

// composeReminder renders the reminder subject and plain-text body for a task.
func composeReminder(task *domain.Task) (subject, body string) {
	subject = fmt.Sprintf("Task due tomorrow: %s", task.Title)

	description := task.Description
	if description == "" {
		description = descriptionPlaceholder
	}

	lines := []string{
		"Hello,",
		fmt.Sprintf("Reminder: the task %q is due on %s.", task.Title, task.DueDate.Format("2006-01-02")),
		"Description:",
		description,
		// Derived from the completion flag so the label stays correct even
		// if the dispatch query ever changes.
		fmt.Sprintf("Status: %s", task.StatusLabel()),
		"",
		"— Task Manager",
	}

	return subject, strings.Join(lines, "\n")
}
