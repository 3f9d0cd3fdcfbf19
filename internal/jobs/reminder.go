// Package jobs runs scheduled background work inside the serve process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
	"github.com/iliyamo/clinic-api/internal/service"
)

// ReminderLead is how far ahead of a visit the reminder is sent.
const ReminderLead = 24 * time.Hour

// AppointmentLister is implemented by repository.AppointmentRepo.
type AppointmentLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// Reminder publishes an appointment.reminder event for every appointment
// starting in [now+Lead, now+Lead+Window).  Window should equal the
// schedule interval so each appointment falls into exactly one run.
type Reminder struct {
	Appointments AppointmentLister
	Publisher    service.Publisher
	Lead         time.Duration
	Window       time.Duration
	Log          zerolog.Logger
	now          func() time.Time
}

func NewReminder(appts AppointmentLister, pub service.Publisher, window time.Duration, log zerolog.Logger) *Reminder {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Reminder{
		Appointments: appts,
		Publisher:    pub,
		Lead:         ReminderLead,
		Window:       window,
		Log:          log.With().Str("component", "reminder").Logger(),
		now:          time.Now,
	}
}

// Run performs one pass and returns the number of reminders published.
// A failed publish is logged and the pass continues.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	now := r.now().UTC()
	from := now.Add(r.Lead)
	to := from.Add(r.Window)
	appts, err := r.Appointments.ListBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list appointments: %w", err)
	}
	sent := 0
	for _, a := range appts {
		if err := r.Publisher.Publish(ctx, queue.AppointmentReminder(a, now)); err != nil {
			r.Log.Warn().Err(err).Str("appointment_id", a.ID).Msg("publish reminder failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Interval returns the gap between two consecutive activations of spec.
// Descriptors such as @hourly are accepted.
func Interval(spec string, from time.Time) (time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, err
	}
	first := sched.Next(from)
	return sched.Next(first).Sub(first), nil
}

// StartReminders schedules r on spec and starts the cron runner.  The
// caller stops it with Stop on shutdown.
func StartReminders(spec string, r *Reminder) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := r.Run(ctx)
		if err != nil {
			r.Log.Error().Err(err).Msg("reminder run failed")
			return
		}
		r.Log.Info().Int("sent", n).Msg("reminder run finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
