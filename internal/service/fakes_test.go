package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/delivery"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// In-memory repository fakes. They return copies on reads so stored state only
// changes through explicit writes, mirroring how the real repositories behave.

type fakeGrievanceRepo struct {
	mu               sync.Mutex
	seq              int
	items            map[string]*domain.Grievance
	order            []string
	rejectEscalation bool
}

func newFakeGrievanceRepo() *fakeGrievanceRepo {
	return &fakeGrievanceRepo{items: map[string]*domain.Grievance{}}
}

func (r *fakeGrievanceRepo) Create(_ context.Context, grievance *domain.Grievance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	grievance.ID = fmt.Sprintf("g%d", r.seq)
	grievance.CreatedAt = time.Now()
	grievance.UpdatedAt = grievance.CreatedAt
	stored := *grievance
	r.items[grievance.ID] = &stored
	r.order = append(r.order, grievance.ID)
	return nil
}

func (r *fakeGrievanceRepo) Update(_ context.Context, grievance *domain.Grievance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[grievance.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *grievance
	r.items[grievance.ID] = &stored
	return nil
}

func (r *fakeGrievanceRepo) GetByID(_ context.Context, id string) (*domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeGrievanceRepo) GetByTrackingCode(_ context.Context, code string) (*domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.TrackingCode == code {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeGrievanceRepo) ListWithFilter(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Grievance
	for _, id := range r.order {
		stored := r.items[id]
		if filter.ComplainantID != nil && stored.ComplainantID != *filter.ComplainantID {
			continue
		}
		if filter.ProjectID != nil && stored.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.RegionID != nil && stored.RegionID != *filter.RegionID {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *fakeGrievanceRepo) ListOpenForSweep(_ context.Context, _ int) ([]domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Grievance
	for _, id := range r.order {
		stored := r.items[id]
		if stored.SubmittedAt == nil || stored.Status.IsTerminal() || stored.Status == domain.GrievanceStatusDraft {
			continue
		}
		if stored.SLA.ResolutionStatus == domain.SLAStatusResolved {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *fakeGrievanceRepo) UpdateSLAStatus(_ context.Context, id string, ackStatus, resolutionStatus domain.SLAStatus, daysRemaining int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.SLA.AckStatus = ackStatus
	stored.SLA.ResolutionStatus = resolutionStatus
	stored.SLA.DaysRemaining = daysRemaining
	return nil
}

func (r *fakeGrievanceRepo) ApplyEscalation(_ context.Context, write repository.EscalationWrite) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectEscalation {
		return false, nil
	}
	stored, ok := r.items[write.GrievanceID]
	if !ok {
		return false, nil
	}
	if stored.RegionID != write.ExpectedRegionID || stored.SLA.ResolutionStatus == domain.SLAStatusResolved {
		return false, nil
	}
	stored.RegionID = write.NewRegionID
	ackDue := write.AckDueAt
	resolutionDue := write.ResolutionDueAt
	stored.SLA.AckDueAt = &ackDue
	stored.SLA.ResolutionDueAt = &resolutionDue
	stored.SLA.AckStatus = write.AckStatus
	stored.SLA.ResolutionStatus = write.ResolutionStatus
	stored.SLA.DaysRemaining = write.DaysRemaining
	stored.SLA.EscalationCount++
	escalatedAt := write.EscalatedAt
	stored.SLA.LastEscalatedAt = &escalatedAt
	stored.SLA.LastEscalationReason = write.Reason
	return true, nil
}

func (r *fakeGrievanceRepo) CountByStatus(_ context.Context, _ string, _, _ time.Time) ([]repository.StatusCount, error) {
	return nil, nil
}

func (r *fakeGrievanceRepo) CountByCategory(_ context.Context, _ string, _, _ time.Time) ([]repository.CategoryCount, error) {
	return nil, nil
}

func (r *fakeGrievanceRepo) CountByRegion(_ context.Context, _ string, _, _ time.Time) ([]repository.RegionCount, error) {
	return nil, nil
}

type fakeRegionRepo struct {
	seq     int
	items   map[string]*domain.AdministrativeRegion
	failIDs map[string]error
}

func newFakeRegionRepo() *fakeRegionRepo {
	return &fakeRegionRepo{items: map[string]*domain.AdministrativeRegion{}, failIDs: map[string]error{}}
}

func (r *fakeRegionRepo) Create(_ context.Context, region *domain.AdministrativeRegion) error {
	r.seq++
	region.ID = fmt.Sprintf("r%d", r.seq)
	stored := *region
	r.items[region.ID] = &stored
	return nil
}

func (r *fakeRegionRepo) Update(_ context.Context, region *domain.AdministrativeRegion) error {
	if _, ok := r.items[region.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *region
	r.items[region.ID] = &stored
	return nil
}

func (r *fakeRegionRepo) GetByID(_ context.Context, id string) (*domain.AdministrativeRegion, error) {
	if err, ok := r.failIDs[id]; ok {
		return nil, err
	}
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeRegionRepo) ListByProject(_ context.Context, projectID string) ([]domain.AdministrativeRegion, error) {
	var result []domain.AdministrativeRegion
	for _, stored := range r.items {
		if stored.ProjectID == projectID {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (r *fakeRegionRepo) ListSubtree(_ context.Context, path string) ([]domain.AdministrativeRegion, error) {
	var result []domain.AdministrativeRegion
	for _, stored := range r.items {
		if stored.Path == path || strings.HasPrefix(stored.Path, path+domain.PathSeparator) {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (r *fakeRegionRepo) CountByLevel(_ context.Context, levelID string) (int, error) {
	count := 0
	for _, stored := range r.items {
		if stored.LevelID == levelID {
			count++
		}
	}
	return count, nil
}

type fakeLevelRepo struct {
	seq   int
	items map[string]*domain.RegionLevel
}

func newFakeLevelRepo() *fakeLevelRepo {
	return &fakeLevelRepo{items: map[string]*domain.RegionLevel{}}
}

func (r *fakeLevelRepo) Create(_ context.Context, level *domain.RegionLevel) error {
	r.seq++
	level.ID = fmt.Sprintf("l%d", r.seq)
	stored := *level
	r.items[level.ID] = &stored
	return nil
}

func (r *fakeLevelRepo) Update(_ context.Context, level *domain.RegionLevel) error {
	if _, ok := r.items[level.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *level
	r.items[level.ID] = &stored
	return nil
}

func (r *fakeLevelRepo) GetByID(_ context.Context, id string) (*domain.RegionLevel, error) {
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeLevelRepo) ListByProject(_ context.Context, projectID string) ([]domain.RegionLevel, error) {
	var result []domain.RegionLevel
	for _, stored := range r.items {
		if stored.ProjectID == projectID {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (r *fakeLevelRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type fakeEscalationRepo struct {
	records    []domain.EscalationRecord
	createFail error
}

func (r *fakeEscalationRepo) Create(_ context.Context, record *domain.EscalationRecord) error {
	if r.createFail != nil {
		return r.createFail
	}
	record.ID = fmt.Sprintf("esc%d", len(r.records)+1)
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeEscalationRepo) ListByGrievance(_ context.Context, grievanceID string) ([]domain.EscalationRecord, error) {
	var result []domain.EscalationRecord
	for _, record := range r.records {
		if record.GrievanceID == grievanceID {
			result = append(result, record)
		}
	}
	return result, nil
}

type fakeActivityRepo struct {
	entries []domain.GrievanceActivity
}

func (r *fakeActivityRepo) Create(_ context.Context, entry *domain.GrievanceActivity) error {
	entry.ID = fmt.Sprintf("a%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListByGrievance(_ context.Context, grievanceID string, _, _ int) ([]domain.GrievanceActivity, error) {
	var result []domain.GrievanceActivity
	for _, entry := range r.entries {
		if entry.GrievanceID == grievanceID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeNoteRepo struct {
	notes []domain.GrievanceNote
}

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.GrievanceNote) error {
	note.ID = fmt.Sprintf("n%d", len(r.notes)+1)
	r.notes = append(r.notes, *note)
	return nil
}

func (r *fakeNoteRepo) ListByGrievance(_ context.Context, grievanceID string) ([]domain.GrievanceNote, error) {
	var result []domain.GrievanceNote
	for _, note := range r.notes {
		if note.GrievanceID == grievanceID {
			result = append(result, note)
		}
	}
	return result, nil
}

type fakeTemplateRepo struct {
	templates []domain.NotificationTemplate
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.NotificationTemplate) error {
	template.ID = fmt.Sprintf("t%d", len(r.templates)+1)
	r.templates = append(r.templates, *template)
	return nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, template *domain.NotificationTemplate) error {
	for i := range r.templates {
		if r.templates[i].ID == template.ID {
			r.templates[i] = *template
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id string) (*domain.NotificationTemplate, error) {
	for i := range r.templates {
		if r.templates[i].ID == id {
			copied := r.templates[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTemplateRepo) GetActive(_ context.Context, projectID *string, event domain.NotificationEventType) (*domain.NotificationTemplate, error) {
	for i := range r.templates {
		candidate := r.templates[i]
		if !candidate.Active || candidate.EventType != event {
			continue
		}
		if projectID == nil && candidate.ProjectID == nil {
			return &candidate, nil
		}
		if projectID != nil && candidate.ProjectID != nil && *projectID == *candidate.ProjectID {
			return &candidate, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTemplateRepo) List(_ context.Context, projectID *string) ([]domain.NotificationTemplate, error) {
	var result []domain.NotificationTemplate
	for _, candidate := range r.templates {
		if projectID == nil || (candidate.ProjectID != nil && *candidate.ProjectID == *projectID) {
			result = append(result, candidate)
		}
	}
	return result, nil
}

type fakeNotificationLogRepo struct {
	records []domain.NotificationRecord
}

func (r *fakeNotificationLogRepo) Create(_ context.Context, record *domain.NotificationRecord) error {
	record.ID = fmt.Sprintf("nl%d", len(r.records)+1)
	record.SentAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeNotificationLogRepo) Exists(_ context.Context, grievanceID string, event domain.NotificationEventType) (bool, error) {
	for _, record := range r.records {
		if record.GrievanceID == grievanceID && record.EventType == event {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationLogRepo) ListByGrievance(_ context.Context, grievanceID string) ([]domain.NotificationRecord, error) {
	var result []domain.NotificationRecord
	for _, record := range r.records {
		if record.GrievanceID == grievanceID {
			result = append(result, record)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	items map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("u%d", len(r.items)+1)
	}
	stored := *user
	r.items[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, stored := range r.items {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	stored, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.PasswordHash = passwordHash
	return nil
}

type fakeOfficerRepo struct {
	items map[string]*domain.Officer
}

func newFakeOfficerRepo() *fakeOfficerRepo {
	return &fakeOfficerRepo{items: map[string]*domain.Officer{}}
}

func (r *fakeOfficerRepo) Create(_ context.Context, officer *domain.Officer) error {
	if officer.ID == "" {
		officer.ID = fmt.Sprintf("o%d", len(r.items)+1)
	}
	stored := *officer
	r.items[officer.ID] = &stored
	return nil
}

func (r *fakeOfficerRepo) GetByID(_ context.Context, id string) (*domain.Officer, error) {
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeOfficerRepo) GetByEmail(_ context.Context, email string) (*domain.Officer, error) {
	for _, stored := range r.items {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOfficerRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	stored, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.PasswordHash = passwordHash
	return nil
}

type fakePasswordResetRepo struct {
	items map[string]*domain.PasswordReset
}

func newFakePasswordResetRepo() *fakePasswordResetRepo {
	return &fakePasswordResetRepo{items: map[string]*domain.PasswordReset{}}
}

func (r *fakePasswordResetRepo) Create(_ context.Context, reset *domain.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = fmt.Sprintf("pr%d", len(r.items)+1)
	}
	stored := *reset
	r.items[reset.ID] = &stored
	return nil
}

func (r *fakePasswordResetRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.PasswordReset, error) {
	for _, stored := range r.items {
		if stored.TokenHash == tokenHash {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePasswordResetRepo) MarkUsed(_ context.Context, id string) error {
	stored, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.UsedAt = &now
	return nil
}

type fakeProjectRepo struct {
	items map[string]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{items: map[string]*domain.Project{}}
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = fmt.Sprintf("p%d", len(r.items)+1)
	}
	stored := *project
	r.items[project.ID] = &stored
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	if _, ok := r.items[project.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *project
	r.items[project.ID] = &stored
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeProjectRepo) List(_ context.Context) ([]domain.Project, error) {
	var result []domain.Project
	for _, stored := range r.items {
		result = append(result, *stored)
	}
	return result, nil
}

// recordingDispatcher captures published events without invoking handlers.
type recordingDispatcher struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) eventsOfType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

type fakeSender struct {
	payloads []delivery.Payload
	sendFail error
}

func (s *fakeSender) Send(_ context.Context, payload delivery.Payload) error {
	if s.sendFail != nil {
		return s.sendFail
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

type fakeLocker struct {
	won  bool
	err  error
	keys []string
}

func (l *fakeLocker) AcquirePeriodLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.won, l.err
}
