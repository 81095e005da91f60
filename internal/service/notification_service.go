package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/delivery"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const dueDateFormat = "2006-01-02"

// DispatchOptions tune a single dispatch call.
type DispatchOptions struct {
	// Resend skips the at-most-once dedup check for operator-triggered resends.
	Resend bool
}

// NotificationService resolves templates, renders message bodies and hands
// payloads to the delivery sender. Dispatch is at-most-once per
// (grievance, event) unless explicitly resent.
type NotificationService struct {
	templates  repository.TemplateRepository
	log        repository.NotificationLogRepository
	users      repository.UserRepository
	regions    repository.RegionRepository
	grievances repository.GrievanceRepository
	sender     delivery.Sender
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	TemplateRepo  repository.TemplateRepository
	LogRepo       repository.NotificationLogRepository
	UserRepo      repository.UserRepository
	RegionRepo    repository.RegionRepository
	GrievanceRepo repository.GrievanceRepository
	Sender        delivery.Sender
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		templates:  deps.TemplateRepo,
		log:        deps.LogRepo,
		users:      deps.UserRepo,
		regions:    deps.RegionRepo,
		grievances: deps.GrievanceRepo,
		sender:     deps.Sender,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// ResolveTemplate returns the active template for the event: a project-scoped
// template wins over the shared default; no active template at all is a
// configuration problem surfaced to the caller.
func (s *NotificationService) ResolveTemplate(ctx context.Context, projectID string, event domain.NotificationEventType) (*domain.NotificationTemplate, error) {
	template, err := s.templates.GetActive(ctx, &projectID, event)
	if err == nil {
		return template, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	template, err = s.templates.GetActive(ctx, nil, event)
	if err == nil {
		return template, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNoTemplateConfigured(string(event))
	}
	return nil, apperrors.MapError(err)
}

// RenderTemplate substitutes {placeholder} tokens in body. Tokens without a
// value stay verbatim so broken templates are visible in the output rather
// than silently blanked.
func RenderTemplate(body string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// Dispatch resolves, renders and hands off the notification for one grievance
// event. Already-notified (grievance, event) pairs are skipped unless
// opts.Resend is set.
func (s *NotificationService) Dispatch(ctx context.Context, grievance *domain.Grievance, event domain.NotificationEventType, opts DispatchOptions) error {
	if !event.Valid() {
		return apperrors.NewValidationError("unknown notification event", map[string]any{"event_type": event})
	}
	if !opts.Resend {
		sent, err := s.log.Exists(ctx, grievance.ID, event)
		if err != nil {
			return apperrors.MapError(err)
		}
		if sent {
			s.logger.Debug("notification already sent, skipping",
				zap.String("grievance_id", grievance.ID),
				zap.String("event_type", string(event)))
			return nil
		}
	}

	template, err := s.ResolveTemplate(ctx, grievance.ProjectID, event)
	if err != nil {
		return err
	}

	vars, recipientEmail, recipientPhone, err := s.buildContext(ctx, grievance)
	if err != nil {
		return err
	}

	dispatched := 0
	if template.SMSEnabled && recipientPhone != "" && template.SMSBody != "" {
		payload := delivery.Payload{
			GrievanceID:  grievance.ID,
			TrackingCode: grievance.TrackingCode,
			EventType:    event,
			Channel:      domain.ChannelSMS,
			Recipient:    recipientPhone,
			Body:         RenderTemplate(template.SMSBody, vars),
		}
		if err := s.sendAndLog(ctx, payload); err != nil {
			return err
		}
		dispatched++
	}
	if template.EmailTemplateRef != "" && recipientEmail != "" {
		payload := delivery.Payload{
			GrievanceID:  grievance.ID,
			TrackingCode: grievance.TrackingCode,
			EventType:    event,
			Channel:      domain.ChannelEmail,
			Recipient:    recipientEmail,
			Subject:      RenderTemplate("Grievance {tracking_code}: {subject}", vars),
			Body:         "",
			EmailRef:     template.EmailTemplateRef,
		}
		if err := s.sendAndLog(ctx, payload); err != nil {
			return err
		}
		dispatched++
	}

	if dispatched == 0 {
		s.logger.Warn("template resolved but no deliverable channel",
			zap.String("grievance_id", grievance.ID),
			zap.String("event_type", string(event)))
		return nil
	}
	s.metrics.RecordNotification(string(event))
	return nil
}

// ResendNotification re-dispatches a past event, bypassing dedup.
func (s *NotificationService) ResendNotification(ctx context.Context, grievanceID string, event domain.NotificationEventType) error {
	grievance, err := s.grievances.GetByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("grievance", map[string]any{"grievance_id": grievanceID})
		}
		return apperrors.MapError(err)
	}
	return s.Dispatch(ctx, grievance, event, DispatchOptions{Resend: true})
}

// History lists accepted dispatches for a grievance.
func (s *NotificationService) History(ctx context.Context, grievanceID string) ([]domain.NotificationRecord, error) {
	records, err := s.log.ListByGrievance(ctx, grievanceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// RegisterHandlers subscribes the service to lifecycle events so every state
// change fans out into citizen notifications.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventGrievanceSubmitted, s.handleFixedEvent(domain.EventReceipt))
	dispatcher.Subscribe(events.EventGrievanceAcknowledged, s.handleFixedEvent(domain.EventAcknowledgment))
	dispatcher.Subscribe(events.EventGrievanceEscalated, s.handleFixedEvent(domain.EventEscalated))
	dispatcher.Subscribe(events.EventSLAReminderDue, s.handleFixedEvent(domain.EventSLAReminder))
	dispatcher.Subscribe(events.EventGrievanceStatusChanged, s.handleStatusChanged)
}

func (s *NotificationService) handleFixedEvent(event domain.NotificationEventType) events.EventHandler {
	return func(ctx context.Context, evt events.Event) error {
		grievance, err := s.grievances.GetByID(ctx, evt.GrievanceID)
		if err != nil {
			return err
		}
		return s.Dispatch(ctx, grievance, event, DispatchOptions{})
	}
}

func (s *NotificationService) handleStatusChanged(ctx context.Context, evt events.Event) error {
	payload, ok := evt.Payload.(events.GrievanceStatusChangedPayload)
	if !ok {
		return nil
	}
	event, ok := notificationEventForStatus(payload.NewStatus)
	if !ok {
		return nil
	}
	grievance, err := s.grievances.GetByID(ctx, evt.GrievanceID)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, grievance, event, DispatchOptions{})
}

func notificationEventForStatus(status domain.GrievanceStatus) (domain.NotificationEventType, bool) {
	switch status {
	case domain.GrievanceStatusInProgress:
		return domain.EventInProgress, true
	case domain.GrievanceStatusResolved:
		return domain.EventResolved, true
	case domain.GrievanceStatusClosed:
		return domain.EventClosed, true
	default:
		return "", false
	}
}

func (s *NotificationService) sendAndLog(ctx context.Context, payload delivery.Payload) error {
	if err := s.sender.Send(ctx, payload); err != nil {
		return apperrors.MapError(err)
	}
	record := &domain.NotificationRecord{
		GrievanceID: payload.GrievanceID,
		EventType:   payload.EventType,
		Channel:     payload.Channel,
		Recipient:   payload.Recipient,
	}
	if err := s.log.Create(ctx, record); err != nil {
		// the send already happened; a missing log row risks a duplicate later
		s.logger.Error("notification log write failed",
			zap.String("grievance_id", payload.GrievanceID),
			zap.String("event_type", string(payload.EventType)),
			zap.Error(err))
	}
	return nil
}

func (s *NotificationService) buildContext(ctx context.Context, grievance *domain.Grievance) (map[string]string, string, string, error) {
	vars := map[string]string{
		"tracking_code":         grievance.TrackingCode,
		"subject":               grievance.Subject,
		"status":                string(grievance.Status),
		"complainant_name":      grievance.ComplainantName,
		"sla_days_remaining":    strconv.Itoa(grievance.SLA.DaysRemaining),
		"administrative_region": "",
	}
	if grievance.SLA.AckDueAt != nil {
		vars["acknowledgment_due"] = grievance.SLA.AckDueAt.Format(dueDateFormat)
	}
	if grievance.SLA.ResolutionDueAt != nil {
		vars["resolution_due"] = grievance.SLA.ResolutionDueAt.Format(dueDateFormat)
	}

	region, err := s.regions.GetByID(ctx, grievance.RegionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", "", apperrors.MapError(err)
	}
	if region != nil {
		vars["administrative_region"] = region.Name
	}

	user, err := s.users.GetByID(ctx, grievance.ComplainantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", "", apperrors.NewNotFound("complainant", map[string]any{"user_id": grievance.ComplainantID})
		}
		return nil, "", "", apperrors.MapError(err)
	}
	return vars, user.Email, user.Phone, nil
}
