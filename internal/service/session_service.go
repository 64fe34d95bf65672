package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"carepilot/internal/careplan"
	"carepilot/internal/chat"
	"carepilot/internal/domain"
	"carepilot/internal/planexport"
	"carepilot/internal/session"
)

// SessionInfo describes a session without its conversation.
type SessionInfo struct {
	ID          uuid.UUID      `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	HasCarePlan bool           `json:"has_care_plan"`
	PatientName string         `json:"patient_name,omitempty"`
	DocType     domain.DocType `json:"doc_type,omitempty"`
	Turns       int            `json:"turns"`
	CheckIns    int            `json:"check_ins"`
}

// CheckInInput records one slot of one day.
type CheckInInput struct {
	Day   int    `json:"day" binding:"required,min=1"`
	Slot  string `json:"slot" binding:"required"`
	Taken bool   `json:"taken"`
}

// AdherenceSummary aggregates the session's check-ins next to the plan's
// risk factors, the material for a summary to bring to the doctor.
type AdherenceSummary struct {
	CheckIns    []domain.AdherenceCheckIn `json:"check_ins"`
	Taken       int                       `json:"taken"`
	Missed      int                       `json:"missed"`
	Rate        float64                   `json:"rate"`
	MissedDoses []MissedDose              `json:"missed_doses"`
	RedFlags    []string                  `json:"red_flags"`
}

// MissedDose is one slot reported as not taken, with the medications due then.
type MissedDose struct {
	Day         int         `json:"day"`
	Slot        domain.Slot `json:"slot"`
	Medications []string    `json:"medications"`
}

// ExportFile is an encoded schedule ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SessionService ties intake, chat and adherence to a server-side session.
type SessionService interface {
	Create(ctx context.Context) (*SessionInfo, error)
	Get(ctx context.Context, id uuid.UUID) (*SessionInfo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Intake(ctx context.Context, id uuid.UUID, input IntakeInput) (*IntakeResult, error)
	Send(ctx context.Context, id uuid.UUID, content string) (*ChatReply, error)
	Messages(ctx context.Context, id uuid.UUID) ([]domain.ConversationTurn, error)
	CarePlan(ctx context.Context, id uuid.UUID) (*domain.CarePlan, error)
	Slots(ctx context.Context, id uuid.UUID) (domain.SlotView, error)
	Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error)
	Notify(ctx context.Context, id uuid.UUID, message string) error
	CheckIn(ctx context.Context, id uuid.UUID, input CheckInInput) (*domain.AdherenceCheckIn, error)
	Adherence(ctx context.Context, id uuid.UUID) (*AdherenceSummary, error)
}

type sessionService struct {
	store     *session.Store
	intakeSvc IntakeService
	chatSvc   ChatService
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSessionService creates a new SessionService implementation.
func NewSessionService(store *session.Store, intakeSvc IntakeService, chatSvc ChatService, logger zerolog.Logger) SessionService {
	return &sessionService{
		store:     store,
		intakeSvc: intakeSvc,
		chatSvc:   chatSvc,
		now:       time.Now,
		logger:    logger.With().Str("component", "service.SessionService").Logger(),
	}
}

func (s *sessionService) Create(_ context.Context) (*SessionInfo, error) {
	sess, err := s.store.Create()
	if err != nil {
		s.logger.Warn().Err(err).Int("sessions", s.store.Len()).Msg("session refused")
		return nil, err
	}
	s.logger.Info().Str("session_id", sess.ID.String()).Msg("session created")
	return describe(sess), nil
}

func (s *sessionService) Get(_ context.Context, id uuid.UUID) (*SessionInfo, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return describe(sess), nil
}

func (s *sessionService) Delete(_ context.Context, id uuid.UUID) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", id.String()).Msg("session deleted")
	return nil
}

func (s *sessionService) Intake(ctx context.Context, id uuid.UUID, input IntakeInput) (*IntakeResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	release, err := sess.Acquire(session.PermitIntake)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := bindSession(ctx, sess)
	defer cancel()

	result, err := s.intakeSvc.Process(ctx, input)
	if err != nil {
		return nil, err
	}
	sess.SetPlan(result.CarePlan, chat.Greeting)
	return result, nil
}

func (s *sessionService) Send(ctx context.Context, id uuid.UUID, content string) (*ChatReply, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidConversation)
	}
	plan := sess.Plan()
	if plan == nil {
		return nil, domain.ErrNoCarePlan
	}

	release, err := sess.Acquire(session.PermitChat)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := bindSession(ctx, sess)
	defer cancel()

	// Snapshot before appending so a concurrently injected notification
	// cannot end up after the user turn in the forwarded history.
	userTurn := domain.ConversationTurn{Role: domain.RoleUser, Content: content}
	history := append(sess.History(), userTurn)
	sess.Append(userTurn)

	reply, err := s.chatSvc.Reply(ctx, history, plan)
	if err != nil {
		return nil, err
	}
	sess.Append(reply.Turn())
	return reply, nil
}

func (s *sessionService) Messages(_ context.Context, id uuid.UUID) ([]domain.ConversationTurn, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

func (s *sessionService) CarePlan(_ context.Context, id uuid.UUID) (*domain.CarePlan, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	plan := sess.Plan()
	if plan == nil {
		return nil, domain.ErrNoCarePlan
	}
	return plan, nil
}

func (s *sessionService) Slots(ctx context.Context, id uuid.UUID) (domain.SlotView, error) {
	plan, err := s.CarePlan(ctx, id)
	if err != nil {
		return domain.SlotView{}, err
	}
	return careplan.BySlot(plan), nil
}

func (s *sessionService) Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*ExportFile, error) {
	plan, err := s.CarePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	file := &ExportFile{Filename: planexport.BuildFilename(plan.PatientName, format, s.now())}
	switch format {
	case domain.ExportCSV:
		file.ContentType = "text/csv; charset=utf-8"
		err = planexport.WriteCSV(&buf, plan)
	case domain.ExportXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = planexport.WriteXLSX(&buf, plan)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExportType, format)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting care plan: %w", err)
	}
	file.Data = buf.Bytes()
	return file, nil
}

func (s *sessionService) Notify(_ context.Context, id uuid.UUID, message string) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: notification is empty", domain.ErrInvalidConversation)
	}
	return sess.Notify(message)
}

func (s *sessionService) CheckIn(_ context.Context, id uuid.UUID, input CheckInInput) (*domain.AdherenceCheckIn, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	plan := sess.Plan()
	if plan == nil {
		return nil, domain.ErrNoCarePlan
	}
	if input.Day < 1 {
		return nil, fmt.Errorf("%w: day must be at least 1", domain.ErrInvalidCheckIn)
	}
	slot, ok := domain.ParseSlot(input.Slot)
	if !ok {
		return nil, fmt.Errorf("%w: unknown slot %q", domain.ErrInvalidCheckIn, input.Slot)
	}

	checkIn := domain.AdherenceCheckIn{Day: input.Day, Slot: slot, Taken: input.Taken, RecordedAt: s.now().UTC()}
	sess.RecordCheckIn(checkIn)

	if !checkIn.Taken {
		alert := MissedDoseAlert(checkIn, careplan.BySlot(plan).Get(slot))
		if err := sess.Notify(alert); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("adherence alert dropped")
		}
	}
	return &checkIn, nil
}

func (s *sessionService) Adherence(_ context.Context, id uuid.UUID) (*AdherenceSummary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	summary := &AdherenceSummary{
		CheckIns:    sess.CheckIns(),
		MissedDoses: []MissedDose{},
		RedFlags:    []string{},
	}
	var view domain.SlotView
	if plan := sess.Plan(); plan != nil {
		summary.RedFlags = append(summary.RedFlags, plan.RedFlags...)
		view = careplan.BySlot(plan)
	}
	for _, c := range summary.CheckIns {
		if c.Taken {
			summary.Taken++
			continue
		}
		summary.Missed++
		names := []string{}
		for _, m := range view.Get(c.Slot) {
			names = append(names, m.Name)
		}
		summary.MissedDoses = append(summary.MissedDoses, MissedDose{Day: c.Day, Slot: c.Slot, Medications: names})
	}
	if n := len(summary.CheckIns); n > 0 {
		summary.Rate = float64(summary.Taken) / float64(n)
	}
	return summary, nil
}

// MissedDoseAlert is the assistant message posted after a missed slot.
func MissedDoseAlert(c domain.AdherenceCheckIn, meds []domain.MedicationEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Adherence alert: it looks like the %s dose on day %d was missed", c.Slot, c.Day)
	if len(meds) > 0 {
		names := make([]string, len(meds))
		for i := range meds {
			names[i] = meds[i].Name
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
	}
	b.WriteString(". Skipping doses can affect your treatment; ask me if you are unsure what to do next.")
	return b.String()
}

// bindSession derives a context that also ends when the session does.
func bindSession(ctx context.Context, sess *session.Session) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sess.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func describe(sess *session.Session) *SessionInfo {
	info := &SessionInfo{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Turns:     len(sess.History()),
		CheckIns:  len(sess.CheckIns()),
	}
	if plan := sess.Plan(); plan != nil {
		info.HasCarePlan = true
		info.PatientName = plan.PatientName
		info.DocType = plan.DocType
	}
	return info
}
