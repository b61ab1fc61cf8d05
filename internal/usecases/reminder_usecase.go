package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/interfaces"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"golang.org/x/time/rate"
)

// ChannelOutcome is the result of one send attempt.
type ChannelOutcome struct {
	Sent       bool   `json:"sent"`
	To         string `json:"to"`
	ProviderID string `json:"provider_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ReminderResult reports both channels of a reminder. A nil channel was not
// attempted.
type ReminderResult struct {
	Email  *ChannelOutcome `json:"email"`
	SMS    *ChannelOutcome `json:"sms"`
	Errors []string        `json:"errors"`
}

func (r *ReminderResult) anySent() bool {
	return (r.Email != nil && r.Email.Sent) || (r.SMS != nil && r.SMS.Sent)
}

// PassResult summarizes one automatic reminder pass.
type PassResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Skipped    bool      `json:"skipped"`
	Processed  int       `json:"processed"`
	SentEmail  int       `json:"sent_email"`
	SentSMS    int       `json:"sent_sms"`
	Errors     []string  `json:"errors"`
}

type ManualReminderInput struct {
	TransactionID int64 `json:"transaction_id"`
	SendEmail     *bool `json:"send_email"`
	SendSMS       *bool `json:"send_sms"`
}

type ReminderSettingsInput struct {
	Remind30Days  *bool `json:"remind_30_days"`
	Remind7Days   *bool `json:"remind_7_days"`
	Remind3Days   *bool `json:"remind_3_days"`
	RemindDueDate *bool `json:"remind_due_date"`
}

type ReminderUsecase struct {
	reminders    *repository.ReminderRepository
	transactions *repository.TransactionRepository
	activity     *ActivityUsecase

	email   interfaces.NotificationSender
	sms     interfaces.NotificationSender
	alerter interfaces.Alerter
	locker  interfaces.PassLocker

	guard    *infrastructure.RunGuard
	quota    *infrastructure.UserLimiter
	throttle *rate.Limiter

	appURL string
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

func NewReminderUsecase(reminders *repository.ReminderRepository, transactions *repository.TransactionRepository, activity *ActivityUsecase, log zerolog.Logger) *ReminderUsecase {
	return &ReminderUsecase{
		reminders:    reminders,
		transactions: transactions,
		activity:     activity,
		guard:        &infrastructure.RunGuard{},
		throttle:     rate.NewLimiter(rate.Inf, 1),
		loc:          time.Local,
		now:          time.Now,
		log:          log.With().Str("component", "reminders").Logger(),
	}
}

// WithSenders sets the email and SMS channels. A nil sender leaves that
// channel unconfigured.
func (uc *ReminderUsecase) WithSenders(email, sms interfaces.NotificationSender) *ReminderUsecase {
	uc.email = email
	uc.sms = sms
	return uc
}

func (uc *ReminderUsecase) WithAlerter(a interfaces.Alerter) *ReminderUsecase {
	uc.alerter = a
	return uc
}

func (uc *ReminderUsecase) WithPassLocker(l interfaces.PassLocker) *ReminderUsecase {
	uc.locker = l
	return uc
}

// WithThrottle caps outbound sends across all channels. perSecond <= 0
// removes the cap.
func (uc *ReminderUsecase) WithThrottle(perSecond float64) *ReminderUsecase {
	if perSecond <= 0 {
		uc.throttle = rate.NewLimiter(rate.Inf, 1)
	} else {
		uc.throttle = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return uc
}

func (uc *ReminderUsecase) WithQuota(q *infrastructure.UserLimiter) *ReminderUsecase {
	uc.quota = q
	return uc
}

func (uc *ReminderUsecase) WithClock(now func() time.Time, loc *time.Location) *ReminderUsecase {
	if now != nil {
		uc.now = now
	}
	if loc != nil {
		uc.loc = loc
	}
	return uc
}

func (uc *ReminderUsecase) WithAppURL(url string) *ReminderUsecase {
	uc.appURL = url
	return uc
}

// Status reports whether a pass is running and when the last one ran.
func (uc *ReminderUsecase) Status() infrastructure.RunStatus {
	return uc.guard.Status()
}

// QuotaStats describes the manual reminder quota, nil when unlimited.
func (uc *ReminderUsecase) QuotaStats() map[string]interface{} {
	if uc.quota == nil {
		return nil
	}
	return uc.quota.GetStats()
}

func (uc *ReminderUsecase) today() time.Time {
	return entities.CalendarDay(uc.now(), uc.loc)
}

// RunPass sends the milestone reminders due today. A pass triggered while
// another one runs is skipped. Send failures never abort the pass; every
// handled milestone gets its marker so it is not attempted again.
func (uc *ReminderUsecase) RunPass(ctx context.Context) *PassResult {
	result := &PassResult{StartedAt: uc.now(), Errors: []string{}}

	if !uc.guard.TryStart() {
		uc.log.Info().Msg("reminder pass already running, skipping")
		result.Skipped = true
		result.FinishedAt = uc.now()
		return result
	}
	defer uc.guard.Finish()

	if uc.locker != nil {
		release, acquired, err := uc.locker.TryLock(ctx)
		if err != nil {
			uc.log.Error().Err(err).Msg("failed to acquire reminder pass lock")
			result.Errors = append(result.Errors, "lock: "+err.Error())
			result.FinishedAt = uc.now()
			uc.alert(ctx, result)
			return result
		}
		if !acquired {
			uc.log.Info().Msg("reminder pass running in another process, skipping")
			result.Skipped = true
			result.FinishedAt = uc.now()
			return result
		}
		defer release()
	}

	today := uc.today()
	for _, m := range entities.Milestones {
		due := today.AddDate(0, 0, m.Days)
		txs, err := uc.reminders.FindDue(ctx, m, due)
		if err != nil {
			uc.log.Error().Err(err).Str("reminder_type", m.Type).Msg("failed to query due transactions")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: query: %v", m.Type, err))
			continue
		}

		for i := range txs {
			uc.remindMilestone(ctx, &txs[i], m, result)
		}
	}

	result.FinishedAt = uc.now()
	uc.log.Info().
		Int("processed", result.Processed).
		Int("sent_email", result.SentEmail).
		Int("sent_sms", result.SentSMS).
		Int("errors", len(result.Errors)).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("reminder pass finished")

	uc.alert(ctx, result)
	return result
}

// remindMilestone delivers one milestone and writes its marker. A panic while
// sending is reported like a failed send and the marker is still written.
func (uc *ReminderUsecase) remindMilestone(ctx context.Context, t *entities.DebtTransaction, m entities.Milestone, result *PassResult) {
	result.Processed++
	marker := &entities.Reminder{
		TransactionID: t.ID,
		ReminderType:  m.Type,
		SentAt:        uc.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().
				Interface("panic", r).
				Int64("transaction_id", t.ID).
				Str("reminder_type", m.Type).
				Msg("reminder delivery panicked")
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %d %s: panic: %v", t.ID, m.Type, r))
		}
		if err := uc.reminders.Record(ctx, marker); err != nil {
			uc.log.Error().Err(err).Int64("transaction_id", t.ID).Str("reminder_type", m.Type).Msg("failed to record reminder")
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %d %s: record: %v", t.ID, m.Type, err))
		}
	}()

	res := uc.deliver(ctx, t, m.Type, true, true)
	marker.EmailSent = res.Email != nil && res.Email.Sent
	marker.SMSSent = res.SMS != nil && res.SMS.Sent
	if marker.EmailSent {
		result.SentEmail++
	}
	if marker.SMSSent {
		result.SentSMS++
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, fmt.Sprintf("transaction %d %s: %s", t.ID, m.Type, e))
	}
}

func (uc *ReminderUsecase) alert(ctx context.Context, result *PassResult) {
	if uc.alerter == nil || len(result.Errors) == 0 {
		return
	}
	if err := uc.alerter.Alert(ctx, passAlert(result)); err != nil {
		uc.log.Warn().Err(err).Msg("failed to send ops alert")
	}
}

// deliver attempts each wanted channel the contact can receive. Channels are
// independent; a failure on one does not stop the other.
func (uc *ReminderUsecase) deliver(ctx context.Context, t *entities.DebtTransaction, reminderType string, wantEmail, wantSMS bool) *ReminderResult {
	today := uc.today()
	res := &ReminderResult{Errors: []string{}}

	if wantEmail && t.Contact.HasEmail() {
		res.Email = uc.send(ctx, uc.email, reminderEmail(t, reminderType, today, uc.appURL))
		if !res.Email.Sent {
			res.Errors = append(res.Errors, "email: "+res.Email.Error)
		}
	}
	if wantSMS && t.Contact.HasPhone() {
		res.SMS = uc.send(ctx, uc.sms, reminderSMS(t, reminderType, today))
		if !res.SMS.Sent {
			res.Errors = append(res.Errors, "sms: "+res.SMS.Error)
		}
	}

	for _, e := range res.Errors {
		uc.log.Warn().Int64("transaction_id", t.ID).Str("reminder_type", reminderType).Msg("reminder send failed: " + e)
	}
	return res
}

func (uc *ReminderUsecase) send(ctx context.Context, sender interfaces.NotificationSender, n entities.Notification) *ChannelOutcome {
	out := &ChannelOutcome{To: n.To}
	if sender == nil {
		out.Error = fmt.Sprintf("%s channel is not configured", n.Channel)
		return out
	}
	if err := uc.throttle.Wait(ctx); err != nil {
		out.Error = err.Error()
		return out
	}

	receipt, err := sender.Send(ctx, n)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Sent = true
	out.ProviderID = receipt.ProviderID
	return out
}

// SendManual sends a reminder for one transaction right away. Omitted channel
// flags default to true. It fails when every attempted channel failed.
func (uc *ReminderUsecase) SendManual(ctx context.Context, userID int64, in ManualReminderInput) (*ReminderResult, error) {
	wantEmail := in.SendEmail == nil || *in.SendEmail
	wantSMS := in.SendSMS == nil || *in.SendSMS
	if !wantEmail && !wantSMS {
		return nil, ErrValidation("select at least one channel")
	}

	t, err := uc.transactions.GetByID(ctx, userID, in.TransactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction")
	}
	if t.Type != entities.TransactionReceivable {
		return nil, ErrBadRequest("not_receivable", "reminders can only be sent for receivables")
	}
	if t.Status != entities.StatusActive {
		return nil, ErrBadRequest("transaction_closed", "transaction is already closed")
	}
	if !t.RemainingAmount.IsPositive() {
		return nil, ErrBadRequest("nothing_due", "transaction has no remaining amount")
	}

	wantEmail = wantEmail && t.Contact.HasEmail()
	wantSMS = wantSMS && t.Contact.HasPhone()
	if !wantEmail && !wantSMS {
		return nil, ErrBadRequest("no_channel", "contact has no email or phone for the requested channels")
	}

	if uc.quota != nil && !uc.quota.Allow(userID) {
		wait := uc.quota.WaitTime(userID).Round(time.Second)
		return nil, ErrTooManyRequests(fmt.Sprintf("manual reminder limit reached, try again in %s", wait))
	}

	res := uc.deliver(ctx, t, reminderManual, wantEmail, wantSMS)
	if !res.anySent() {
		return res, ErrUpstream("reminder could not be sent", errors.New(strings.Join(res.Errors, "; ")))
	}

	channels := []string{}
	if res.Email != nil && res.Email.Sent {
		channels = append(channels, "email")
	}
	if res.SMS != nil && res.SMS.Sent {
		channels = append(channels, "sms")
	}
	uc.activity.Record(ctx, userID, entities.ActionRemind, entities.EntityTransaction, t.ID,
		fmt.Sprintf("Reminder for %s sent via %s", formatAmount(t), strings.Join(channels, " and ")))
	return res, nil
}

// GetSettings returns the user's milestone switches, all enabled by default.
func (uc *ReminderUsecase) GetSettings(ctx context.Context, userID int64) (*entities.ReminderSettings, error) {
	s, err := uc.reminders.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		d := entities.DefaultReminderSettings(userID)
		return &d, nil
	}
	return s, nil
}

// UpdateSettings changes the given switches; omitted ones keep their value.
func (uc *ReminderUsecase) UpdateSettings(ctx context.Context, userID int64, in ReminderSettingsInput) (*entities.ReminderSettings, error) {
	s, err := uc.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Remind30Days != nil {
		s.Remind30Days = *in.Remind30Days
	}
	if in.Remind7Days != nil {
		s.Remind7Days = *in.Remind7Days
	}
	if in.Remind3Days != nil {
		s.Remind3Days = *in.Remind3Days
	}
	if in.RemindDueDate != nil {
		s.RemindDueDate = *in.RemindDueDate
	}

	if err := uc.reminders.UpsertSettings(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// History lists the milestone markers written for a transaction.
func (uc *ReminderUsecase) History(ctx context.Context, userID, transactionID int64) ([]entities.Reminder, error) {
	t, err := uc.transactions.GetByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction")
	}
	return uc.reminders.ListByTransaction(ctx, transactionID)
}
