package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/recognizer"
)

// In-memory store fakes. They deep-copy on every read and write so service
// code cannot leak changes past a failed update, mirroring how the gorm
// repositories behave.

func cloneVia[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

type memJobStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*models.PrintJob
	codes map[uuid.UUID]string // office id -> short code
	order []uuid.UUID          // creation order, newest last
}

func newMemJobStore(offices ...*models.Office) *memJobStore {
	s := &memJobStore{
		jobs:  make(map[uuid.UUID]*models.PrintJob),
		codes: make(map[uuid.UUID]string),
	}
	for _, o := range offices {
		s.codes[o.ID] = o.Code
	}
	return s
}

func (s *memJobStore) CreateWithSequence(ctx context.Context, job *models.PrintJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.OfficeID == job.OfficeID {
			n++
		}
	}
	job.ShortID = s.codes[job.OfficeID] + "-" + padSeq(n+1)
	s.jobs[job.ID] = cloneVia(job)
	s.order = append(s.order, job.ID)
	return nil
}

func padSeq(n int) string {
	out := []byte{'0', '0', '0'}
	for i := 2; i >= 0 && n > 0; i-- {
		out[i] = byte('0' + n%10)
		n /= 10
	}
	return string(out)
}

func (s *memJobStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PrintJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, apperror.NotFound("job not found", nil)
	}
	out := cloneVia(job)
	sort.Slice(out.History, func(i, j int) bool { return out.History[i].Seq < out.History[j].Seq })
	return out, nil
}

func (s *memJobStore) UpdateWithEvent(ctx context.Context, job *models.PrintJob, event *models.HistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.jobs[job.ID]
	if !ok {
		return apperror.NotFound("job not found", nil)
	}
	next := cloneVia(job)
	next.History = append([]models.HistoryEvent{}, stored.History...)
	ev := *event
	ev.PrintJobID = job.ID
	next.History = append(next.History, ev)
	s.jobs[job.ID] = next
	return nil
}

func (s *memJobStore) List(ctx context.Context, f models.JobFilter) ([]models.PrintJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PrintJob
	for i := len(s.order) - 1; i >= 0; i-- {
		job := s.jobs[s.order[i]]
		if f.OfficeID != uuid.Nil && job.OfficeID != f.OfficeID {
			continue
		}
		if f.TemplateID != uuid.Nil && job.TemplateID != f.TemplateID {
			continue
		}
		if f.Status != "" && job.Status != f.Status {
			continue
		}
		if f.CreatedBy != uuid.Nil && job.CreatedBy != f.CreatedBy {
			continue
		}
		if len(f.OfficeIDs) > 0 && !containsID(f.OfficeIDs, job.OfficeID) {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(job.ShortID), q) &&
				!strings.Contains(strings.ToLower(job.TemplateName), q) &&
				!strings.Contains(strings.ToLower(job.CreatedByName), q) {
				continue
			}
		}
		out = append(out, *cloneVia(job))
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type memTemplateStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.ChecklistTemplate
}

func newMemTemplateStore(templates ...*models.ChecklistTemplate) *memTemplateStore {
	s := &memTemplateStore{templates: make(map[uuid.UUID]*models.ChecklistTemplate)}
	for _, t := range templates {
		s.templates[t.ID] = cloneVia(t)
	}
	return s
}

func (s *memTemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ChecklistTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return nil, apperror.NotFound("template not found", nil)
	}
	return cloneVia(tmpl), nil
}

func (s *memTemplateStore) List(ctx context.Context) ([]models.ChecklistTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChecklistTemplate
	for _, tmpl := range s.templates {
		out = append(out, *cloneVia(tmpl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memTemplateStore) Create(ctx context.Context, tmpl *models.ChecklistTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tmpl.ID] = cloneVia(tmpl)
	return nil
}

func (s *memTemplateStore) Update(ctx context.Context, tmpl *models.ChecklistTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.templates[tmpl.ID]
	if !ok {
		return apperror.NotFound("template not found", nil)
	}
	next := cloneVia(tmpl)
	next.Versions = stored.Versions
	s.templates[tmpl.ID] = next
	return nil
}

func (s *memTemplateStore) AddVersion(ctx context.Context, tmpl *models.ChecklistTemplate, version *models.TemplateVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.templates[tmpl.ID]
	if !ok {
		return apperror.NotFound("template not found", nil)
	}
	v := cloneVia(version)
	v.TemplateID = tmpl.ID
	stored.Versions = append(stored.Versions, *v)
	stored.CurrentVersionID = &v.ID
	tmpl.CurrentVersionID = &v.ID
	version.TemplateID = tmpl.ID
	return nil
}

func (s *memTemplateStore) UpdateVersion(ctx context.Context, version *models.TemplateVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tmpl := range s.templates {
		for i := range tmpl.Versions {
			if tmpl.Versions[i].ID == version.ID {
				tmpl.Versions[i] = *cloneVia(version)
				return nil
			}
		}
	}
	return apperror.NotFound("template version not found", nil)
}

type memOfficeStore struct {
	offices map[uuid.UUID]*models.Office
}

func newMemOfficeStore(offices ...*models.Office) *memOfficeStore {
	s := &memOfficeStore{offices: make(map[uuid.UUID]*models.Office)}
	for _, o := range offices {
		s.offices[o.ID] = cloneVia(o)
	}
	return s
}

func (s *memOfficeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Office, error) {
	office, ok := s.offices[id]
	if !ok {
		return nil, apperror.NotFound("office not found", nil)
	}
	return cloneVia(office), nil
}

func (s *memOfficeStore) List(ctx context.Context) ([]models.Office, error) {
	var out []models.Office
	for _, o := range s.offices {
		out = append(out, *cloneVia(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// recordQueue collects enqueued job ids. Tests drive CompleteRecognition
// themselves so outcomes stay deterministic.
type recordQueue struct {
	ids    []uuid.UUID
	reject bool
}

func (q *recordQueue) Enqueue(jobID uuid.UUID) bool {
	if q.reject {
		return false
	}
	q.ids = append(q.ids, jobID)
	return true
}

// stubRecognizer returns a canned outcome or error.
type stubRecognizer struct {
	outcome *recognizer.Outcome
	err     error
	calls   int
}

func (r *stubRecognizer) Recognize(ctx context.Context, version *models.TemplateVersion, scan *models.Scan) (*recognizer.Outcome, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.outcome, nil
}

// fixture wires a job service over the in-memory fakes with one office, one
// published two-item template and one actor per role.
type fixture struct {
	svc       *JobService
	jobs      *memJobStore
	templates *memTemplateStore
	offices   *memOfficeStore
	rec       *stubRecognizer
	queue     *recordQueue

	office   *models.Office
	otherOff *models.Office
	template *models.ChecklistTemplate
	itemIDs  []uuid.UUID

	employee *Actor
	coworker *Actor
	manager  *Actor
	admin    *Actor
}

func newFixture() *fixture {
	itemIDs := []uuid.UUID{uuid.New(), uuid.New()}
	version := models.TemplateVersion{
		ID:            uuid.New(),
		VersionNumber: 1,
		Status:        models.TemplateStatusPublished,
		Sections: []models.ChecklistSection{{
			ID:    uuid.New(),
			Title: "Premises",
			Order: 1,
			Items: []models.ChecklistItem{
				{ID: itemIDs[0], Text: "Lights on", IsRequired: true, Order: 1},
				{ID: itemIDs[1], Text: "Doors unlocked", IsRequired: true, Order: 2},
			},
		}},
	}
	template := &models.ChecklistTemplate{
		ID:               uuid.New(),
		Name:             "Morning opening",
		Type:             models.ChecklistTypeOpening,
		Status:           models.TemplateStatusPublished,
		CurrentVersionID: &version.ID,
		Versions:         []models.TemplateVersion{version},
	}
	version.TemplateID = template.ID

	office := &models.Office{
		ID: uuid.New(), Name: "Central", Code: "CTR", IsActive: true,
		TemplateIDs: []uuid.UUID{template.ID},
	}
	otherOff := &models.Office{
		ID: uuid.New(), Name: "North", Code: "NRT", IsActive: true,
		TemplateIDs: []uuid.UUID{template.ID},
	}

	f := &fixture{
		jobs:      newMemJobStore(office, otherOff),
		templates: newMemTemplateStore(template),
		offices:   newMemOfficeStore(office, otherOff),
		rec:       &stubRecognizer{},
		queue:     &recordQueue{},
		office:    office,
		otherOff:  otherOff,
		template:  template,
		itemIDs:   itemIDs,
		employee:  &Actor{ID: uuid.New(), Name: "Daniil", Role: models.RoleEmployee, OfficeIDs: []uuid.UUID{office.ID}},
		coworker:  &Actor{ID: uuid.New(), Name: "Emma", Role: models.RoleEmployee, OfficeIDs: []uuid.UUID{office.ID}},
		manager:   &Actor{ID: uuid.New(), Name: "Boris", Role: models.RoleManager, OfficeIDs: []uuid.UUID{office.ID}},
		admin:     &Actor{ID: uuid.New(), Name: "Alice", Role: models.RoleAdmin},
	}
	f.rec.outcome = &recognizer.Outcome{Items: []models.RecognizedItem{
		{ItemID: itemIDs[0], IsChecked: true, Confidence: 92},
		{ItemID: itemIDs[1], IsChecked: true, Confidence: 88},
	}}
	f.svc = NewJobService(f.jobs, f.templates, f.offices, f.rec, nil, nil)
	f.svc.AttachQueue(f.queue)
	return f
}

func (f *fixture) createJob(actor *Actor) *models.PrintJob {
	job, err := f.svc.CreateJob(context.Background(), actor, CreateJobInput{
		TemplateID:    f.template.ID,
		OfficeID:      f.office.ID,
		ChecklistDate: mustDate("2026-08-28"),
	})
	if err != nil {
		panic(err)
	}
	return job
}

func (f *fixture) submitScan(actor *Actor, jobID uuid.UUID) *models.PrintJob {
	job, err := f.svc.SubmitScan(context.Background(), actor, jobID, SubmitScanInput{
		FileName: "scan.jpg",
		FileURL:  "https://files.local/scan.jpg",
	})
	if err != nil {
		panic(err)
	}
	return job
}
