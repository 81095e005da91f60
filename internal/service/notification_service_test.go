package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type notificationFixture struct {
	service    *NotificationService
	templates  *fakeTemplateRepo
	log        *fakeNotificationLogRepo
	users      *fakeUserRepo
	regions    *fakeRegionRepo
	grievances *fakeGrievanceRepo
	sender     *fakeSender
	grievance  *domain.Grievance
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	ctx := context.Background()

	users := newFakeUserRepo()
	require.NoError(t, users.Create(ctx, &domain.User{
		ID:    "u1",
		Name:  "Amina Yusuf",
		Email: "amina@example.org",
		Phone: "+251911000000",
	}))

	regions := newFakeRegionRepo()
	region := &domain.AdministrativeRegion{ProjectID: "p1", Name: "District A", LevelID: "l1"}
	require.NoError(t, regions.Create(ctx, region))

	ackDue := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	resolutionDue := time.Date(2025, 3, 24, 9, 0, 0, 0, time.UTC)
	grievances := newFakeGrievanceRepo()
	grievance := &domain.Grievance{
		TrackingCode:    "GRM-ABCDEF1234",
		ProjectID:       "p1",
		RegionID:        region.ID,
		ComplainantID:   "u1",
		ComplainantName: "Amina Yusuf",
		Subject:         "Broken water pump",
		Status:          domain.GrievanceStatusOpen,
		SLA: domain.SLAState{
			AckDueAt:        &ackDue,
			ResolutionDueAt: &resolutionDue,
			DaysRemaining:   12,
		},
	}
	require.NoError(t, grievances.Create(ctx, grievance))

	templates := &fakeTemplateRepo{}
	log := &fakeNotificationLogRepo{}
	sender := &fakeSender{}

	svc := NewNotificationService(NotificationDependencies{
		TemplateRepo:  templates,
		LogRepo:       log,
		UserRepo:      users,
		RegionRepo:    regions,
		GrievanceRepo: grievances,
		Sender:        sender,
	})

	return &notificationFixture{
		service:    svc,
		templates:  templates,
		log:        log,
		users:      users,
		regions:    regions,
		grievances: grievances,
		sender:     sender,
		grievance:  grievance,
	}
}

func smsTemplate(projectID *string, event domain.NotificationEventType, body string) *domain.NotificationTemplate {
	return &domain.NotificationTemplate{
		EventType:  event,
		ProjectID:  projectID,
		SMSEnabled: true,
		SMSBody:    body,
		Active:     true,
	}
}

func TestResolveTemplateProjectOverrideWins(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	projectID := "p1"

	require.NoError(t, f.templates.Create(ctx, smsTemplate(nil, domain.EventReceipt, "shared body")))
	require.NoError(t, f.templates.Create(ctx, smsTemplate(&projectID, domain.EventReceipt, "project body")))

	template, err := f.service.ResolveTemplate(ctx, "p1", domain.EventReceipt)
	require.NoError(t, err)
	assert.Equal(t, "project body", template.SMSBody)
}

func TestResolveTemplateFallsBackToShared(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	otherProject := "p2"

	require.NoError(t, f.templates.Create(ctx, smsTemplate(nil, domain.EventReceipt, "shared body")))
	require.NoError(t, f.templates.Create(ctx, smsTemplate(&otherProject, domain.EventReceipt, "other project body")))

	template, err := f.service.ResolveTemplate(ctx, "p1", domain.EventReceipt)
	require.NoError(t, err)
	assert.Equal(t, "shared body", template.SMSBody)
}

func TestResolveTemplateMissingIsConfigurationProblem(t *testing.T) {
	f := newNotificationFixture(t)

	_, err := f.service.ResolveTemplate(context.Background(), "p1", domain.EventReceipt)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NO_TEMPLATE_CONFIGURED"))
}

func TestRenderTemplate(t *testing.T) {
	vars := map[string]string{
		"tracking_code": "GRM-ABCDEF1234",
		"subject":       "Broken water pump",
	}

	rendered := RenderTemplate("Your grievance {tracking_code} ({subject}) was received.", vars)
	assert.Equal(t, "Your grievance GRM-ABCDEF1234 (Broken water pump) was received.", rendered)

	// tokens without a value stay verbatim so broken templates are visible
	rendered = RenderTemplate("Code {tracking_code}, due {resolution_due}", vars)
	assert.Equal(t, "Code GRM-ABCDEF1234, due {resolution_due}", rendered)
}

func TestDispatchSendsAndLogsOnce(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, smsTemplate(nil, domain.EventReceipt,
		"Received {tracking_code} in {administrative_region}, due {resolution_due}")))

	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{}))

	require.Len(t, f.sender.payloads, 1)
	payload := f.sender.payloads[0]
	assert.Equal(t, domain.ChannelSMS, payload.Channel)
	assert.Equal(t, "+251911000000", payload.Recipient)
	assert.Equal(t, "Received GRM-ABCDEF1234 in District A, due 2025-03-24", payload.Body)
	require.Len(t, f.log.records, 1)
	assert.Equal(t, domain.EventReceipt, f.log.records[0].EventType)

	// same (grievance, event) again: dedup skips the send entirely
	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{}))
	assert.Len(t, f.sender.payloads, 1)
	assert.Len(t, f.log.records, 1)
}

func TestDispatchResendBypassesDedup(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, smsTemplate(nil, domain.EventReceipt, "Received {tracking_code}")))

	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{}))
	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{Resend: true}))

	assert.Len(t, f.sender.payloads, 2)
	assert.Len(t, f.log.records, 2)
}

func TestDispatchEmailChannel(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, &domain.NotificationTemplate{
		EventType:        domain.EventResolved,
		EmailTemplateRef: "grm-resolved-v1",
		Active:           true,
	}))

	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventResolved, DispatchOptions{}))

	require.Len(t, f.sender.payloads, 1)
	payload := f.sender.payloads[0]
	assert.Equal(t, domain.ChannelEmail, payload.Channel)
	assert.Equal(t, "amina@example.org", payload.Recipient)
	assert.Equal(t, "grm-resolved-v1", payload.EmailRef)
	assert.Equal(t, "Grievance GRM-ABCDEF1234: Broken water pump", payload.Subject)
}

func TestDispatchNoDeliverableChannelIsNotAnError(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	// active template with neither SMS enabled nor an email ref
	require.NoError(t, f.templates.Create(ctx, &domain.NotificationTemplate{
		EventType: domain.EventReceipt,
		Active:    true,
	}))

	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{}))
	assert.Empty(t, f.sender.payloads)
	assert.Empty(t, f.log.records)
}

func TestDispatchRejectsUnknownEvent(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.service.Dispatch(context.Background(), f.grievance, domain.NotificationEventType("BOGUS"), DispatchOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestResendNotification(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Create(ctx, smsTemplate(nil, domain.EventReceipt, "Received {tracking_code}")))
	require.NoError(t, f.service.Dispatch(ctx, f.grievance, domain.EventReceipt, DispatchOptions{}))

	require.NoError(t, f.service.ResendNotification(ctx, f.grievance.ID, domain.EventReceipt))
	assert.Len(t, f.sender.payloads, 2)

	err := f.service.ResendNotification(ctx, "nope", domain.EventReceipt)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
