package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/cache"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/mq"
	"github.com/example/checkflow/internal/recognizer"
)

const jobsVersionKey = "jobs:version"

// JobService owns the print-job lifecycle: creation, scan intake, recognition
// completion and the review workflow. All mutations of one job are serialized
// through a per-job mutex, so a manual correction can never interleave with a
// recognition completing in the background.
type JobService struct {
	jobs       JobStore
	templates  TemplateStore
	offices    OfficeStore
	recognizer recognizer.Recognizer
	queue      RecognitionQueue
	mq         mq.Publisher
	cache      *cache.Cache

	locks sync.Map // job id -> *sync.Mutex
}

// NewJobService builds a service with dependencies. The publisher and cache
// may be nil; the recognition queue is attached separately because the worker
// needs the service to exist first.
func NewJobService(jobs JobStore, templates TemplateStore, offices OfficeStore, rec recognizer.Recognizer, publisher mq.Publisher, listCache *cache.Cache) *JobService {
	return &JobService{
		jobs:       jobs,
		templates:  templates,
		offices:    offices,
		recognizer: rec,
		mq:         publisher,
		cache:      listCache,
	}
}

// AttachQueue wires the asynchronous recognition queue. Must be called before
// the first SubmitScan.
func (s *JobService) AttachQueue(q RecognitionQueue) {
	s.queue = q
}

func (s *JobService) lockJob(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateJobInput carries the arguments for CreateJob.
type CreateJobInput struct {
	TemplateID    uuid.UUID
	OfficeID      uuid.UUID
	ChecklistDate time.Time
	Shift         models.Shift
}

// CreateJob prints a new checklist instance: it pins the template's current
// version, assigns the office-scoped short id and opens the history ledger
// with a single created event.
func (s *JobService) CreateJob(ctx context.Context, actor *Actor, in CreateJobInput) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	if in.ChecklistDate.IsZero() {
		return nil, apperror.InvalidInput("checklist date is required", nil)
	}
	if in.Shift != "" && in.Shift != models.ShiftMorning && in.Shift != models.ShiftEvening {
		return nil, apperror.InvalidInput(fmt.Sprintf("unknown shift %q", in.Shift), nil)
	}

	template, err := s.templates.FindByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	office, err := s.offices.FindByID(ctx, in.OfficeID)
	if err != nil {
		return nil, err
	}
	if !office.IsActive {
		return nil, apperror.Precondition(fmt.Sprintf("office %s is not active", office.Code), nil)
	}
	if !office.EnablesTemplate(template.ID) {
		return nil, apperror.Precondition(fmt.Sprintf("template %q is not enabled for office %s", template.Name, office.Code), nil)
	}
	version := template.CurrentVersion()
	if version == nil {
		return nil, apperror.Precondition(fmt.Sprintf("template %q has no current version", template.Name), nil)
	}

	job := &models.PrintJob{
		ID:                uuid.New(),
		OfficeID:          office.ID,
		TemplateID:        template.ID,
		TemplateVersionID: version.ID,
		TemplateName:      template.Name,
		CreatedBy:         actor.ID,
		CreatedByName:     actor.Name,
		ChecklistDate:     in.ChecklistDate,
		Shift:             in.Shift,
		Status:            models.StatusCreated,
		PrintCount:        1,
	}
	job.History = []models.HistoryEvent{newEvent(1, models.ActionCreated, actor, "checklist PDF generated")}

	if err := s.jobs.CreateWithSequence(ctx, job); err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	s.publishEvent(ctx, "job.created", job)
	return job, nil
}

// ListJobs returns jobs visible to the actor, newest first. Employees see
// only their own jobs, managers the jobs of their assigned offices, admins
// everything (optionally narrowed to one office).
func (s *JobService) ListJobs(ctx context.Context, actor *Actor, f models.JobFilter) ([]models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}

	switch actor.Role {
	case models.RoleEmployee:
		f.CreatedBy = actor.ID
	case models.RoleManager:
		// A manager with no assigned offices has no scope at all; an
		// unset OfficeIDs filter would mean "everything".
		if len(actor.OfficeIDs) == 0 {
			return []models.PrintJob{}, nil
		}
		if f.OfficeID != uuid.Nil && !actor.AssignedTo(f.OfficeID) {
			return []models.PrintJob{}, nil
		}
		if f.OfficeID == uuid.Nil {
			f.OfficeIDs = actor.OfficeIDs
		}
	}

	version := s.cache.GetVersion(ctx, jobsVersionKey)
	cacheKey := fmt.Sprintf("jobs:v:%d:a:%s:o:%s:t:%s:s:%s:c:%s:q:%s",
		version, actor.ID, f.OfficeID, f.TemplateID, f.Status, f.CreatedBy, f.Query)

	var cached []models.PrintJob
	if found, _ := s.cache.Get(ctx, cacheKey, &cached); found {
		return cached, nil
	}

	jobs, err := s.jobs.List(ctx, f)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, jobs, 10*time.Minute)
	return jobs, nil
}

// GetJob returns one job with scan, recognition result and history, enforcing
// the same visibility rules as ListJobs.
func (s *JobService) GetJob(ctx context.Context, actor *Actor, jobID uuid.UUID) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleEmployee:
		if job.CreatedBy != actor.ID {
			return nil, apperror.Unauthorized("job belongs to another user", nil)
		}
	case models.RoleManager:
		if !actor.AssignedTo(job.OfficeID) {
			return nil, apperror.Unauthorized("job belongs to another office", nil)
		}
	}
	return job, nil
}

// Reprint records another print of a checklist that has not been scanned yet.
func (s *JobService) Reprint(ctx context.Context, actor *Actor, jobID uuid.UUID) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsReviewer() && job.CreatedBy != actor.ID {
		return nil, apperror.Unauthorized("only the job owner or a reviewer may reprint", nil)
	}
	if job.Status != models.StatusCreated {
		return nil, apperror.InvalidState(fmt.Sprintf("job %s cannot be reprinted from status %s", job.ShortID, job.Status), nil)
	}

	job.PrintCount++
	event := newEvent(len(job.History)+1, models.ActionReprinted, actor, fmt.Sprintf("checklist reprinted (copy %d)", job.PrintCount))
	if err := s.jobs.UpdateWithEvent(ctx, job, &event); err != nil {
		return nil, err
	}
	job.History = append(job.History, event)
	s.invalidateListings(ctx)
	s.publishEvent(ctx, "job.reprinted", job)
	return job, nil
}

// SubmitScanInput carries the uploaded file reference.
type SubmitScanInput struct {
	FileName string
	FileURL  string
}

// SubmitScan attaches an uploaded scan to the job and schedules recognition.
// It accepts a first scan on a CREATED job or a re-scan after a recognition
// error, and returns as soon as the SCAN_RECEIVED transition is recorded;
// recognition itself completes asynchronously.
func (s *JobService) SubmitScan(ctx context.Context, actor *Actor, jobID uuid.UUID, in SubmitScanInput) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	if in.FileName == "" {
		return nil, apperror.InvalidInput("scan file name is required", nil)
	}
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsReviewer() && job.CreatedBy != actor.ID {
		return nil, apperror.Unauthorized("only the job owner or a reviewer may upload a scan", nil)
	}
	if !job.Status.CanTransitionTo(models.StatusScanReceived) {
		return nil, apperror.InvalidState(fmt.Sprintf("job %s does not accept a scan in status %s", job.ShortID, job.Status), nil)
	}

	job.Scan = &models.Scan{
		ID:               uuid.New(),
		OfficeID:         job.OfficeID,
		UploadedBy:       actor.ID,
		UploadedAt:       time.Now().UTC(),
		FileName:         in.FileName,
		FileURL:          in.FileURL,
		ProcessingStatus: models.ScanStatusReceived,
	}
	// A re-scan after an error replaces both the scan and the stale result.
	job.RecognitionResult = nil
	job.Status = models.StatusScanReceived

	event := newEvent(len(job.History)+1, models.ActionScanUploaded, actor, "scan uploaded: "+in.FileName)
	if err := s.jobs.UpdateWithEvent(ctx, job, &event); err != nil {
		return nil, err
	}
	job.History = append(job.History, event)
	s.invalidateListings(ctx)
	s.publishEvent(ctx, "job.scan_uploaded", job)

	if s.queue == nil || !s.queue.Enqueue(job.ID) {
		log.Printf("recognition queue unavailable, job %s stays in %s", job.ShortID, job.Status)
	}
	return job, nil
}

// RequeuePending re-enqueues jobs still waiting in SCAN_RECEIVED and returns
// how many were handed to the queue. Run at startup and on a timer, it
// recovers jobs whose enqueue was dropped by a full queue or lost to a
// restart. Duplicate enqueues are harmless: CompleteRecognition refuses jobs
// already past SCAN_RECEIVED.
func (s *JobService) RequeuePending(ctx context.Context) int {
	if s.queue == nil {
		return 0
	}
	jobs, err := s.jobs.List(ctx, models.JobFilter{Status: models.StatusScanReceived})
	if err != nil {
		log.Printf("requeue sweep failed: %v", err)
		return 0
	}
	requeued := 0
	for _, job := range jobs {
		if s.queue.Enqueue(job.ID) {
			requeued++
		}
	}
	return requeued
}

// CompleteRecognition runs the recognizer against the job's pinned template
// version and applies the outcome. It is invoked by the recognition worker
// under the per-job lock it re-acquires here. Recognizer failures are not
// errors: they end as a RECOGNIZED_ERROR status on the job.
func (s *JobService) CompleteRecognition(ctx context.Context, jobID uuid.UUID) error {
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.StatusScanReceived || job.Scan == nil {
		return apperror.InvalidState(fmt.Sprintf("job %s has no scan awaiting recognition", job.ShortID), nil)
	}

	template, err := s.templates.FindByID(ctx, job.TemplateID)
	if err != nil {
		return err
	}

	var outcome *recognizer.Outcome
	version := template.Version(job.TemplateVersionID)
	if version == nil {
		outcome = &recognizer.Outcome{FailureReason: "pinned template version is missing"}
	} else if outcome, err = s.recognizer.Recognize(ctx, version, job.Scan); err != nil {
		log.Printf("recognition of job %s failed: %v", job.ShortID, err)
		outcome = &recognizer.Outcome{FailureReason: "recognition failed: " + err.Error()}
	}

	items := make([]models.RecognizedItem, 0, len(outcome.Items))
	if outcome.FailureReason == "" {
		for _, it := range outcome.Items {
			if !version.HasItem(it.ItemID) {
				continue
			}
			it.Confidence = recognizer.ClampConfidence(it.Confidence)
			items = append(items, it)
		}
	}
	verdict := recognizer.ClassifyVerdict(items, outcome.FailureReason)

	job.RecognitionResult = &models.RecognitionResult{
		ID:          uuid.New(),
		ScanID:      job.Scan.ID,
		PrintJobID:  job.ID,
		Items:       items,
		Verdict:     verdict,
		ErrorReason: outcome.FailureReason,
	}
	if verdict == models.VerdictError {
		job.Scan.ProcessingStatus = models.ScanStatusError
	} else {
		job.Scan.ProcessingStatus = models.ScanStatusProcessed
	}
	job.Status = models.StatusForVerdict(verdict)

	var details string
	switch verdict {
	case models.VerdictAutoOK:
		details = "automatic recognition succeeded"
	case models.VerdictNeedReview:
		details = "manual review required"
	default:
		details = "recognition failed: " + outcome.FailureReason
	}
	event := newEvent(len(job.History)+1, models.ActionRecognized, nil, details)
	if err := s.jobs.UpdateWithEvent(ctx, job, &event); err != nil {
		return err
	}
	job.History = append(job.History, event)
	s.invalidateListings(ctx)
	s.publishEvent(ctx, "job.recognized", job)
	return nil
}

// UpdateRecognitionItems replaces the recognized item list wholesale with a
// reviewer's manual correction. The job status is untouched.
func (s *JobService) UpdateRecognitionItems(ctx context.Context, actor *Actor, jobID uuid.UUID, items []models.RecognizedItem) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	if !actor.Role.IsReviewer() {
		return nil, apperror.Unauthorized("only reviewers may correct recognition results", nil)
	}
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecognitionResult == nil {
		return nil, apperror.Precondition(fmt.Sprintf("job %s has no recognition result to correct", job.ShortID), nil)
	}

	template, err := s.templates.FindByID(ctx, job.TemplateID)
	if err != nil {
		return nil, err
	}
	version := template.Version(job.TemplateVersionID)
	if version == nil {
		return nil, apperror.Precondition("pinned template version is missing", nil)
	}
	replacement := make([]models.RecognizedItem, 0, len(items))
	for _, it := range items {
		if !version.HasItem(it.ItemID) {
			return nil, apperror.Precondition(fmt.Sprintf("item %s does not belong to the printed checklist", it.ItemID), nil)
		}
		it.Confidence = recognizer.ClampConfidence(it.Confidence)
		replacement = append(replacement, it)
	}
	job.RecognitionResult.Items = replacement

	event := newEvent(len(job.History)+1, models.ActionManuallyCorrected, actor, "recognition result corrected manually")
	if err := s.jobs.UpdateWithEvent(ctx, job, &event); err != nil {
		return nil, err
	}
	job.History = append(job.History, event)
	s.invalidateListings(ctx)
	return job, nil
}

// Approve finalizes a recognized job as accepted and stamps the confirmation
// metadata onto the recognition result.
func (s *JobService) Approve(ctx context.Context, actor *Actor, jobID uuid.UUID, comment string) (*models.PrintJob, error) {
	return s.finalize(ctx, actor, jobID, models.StatusApproved, comment)
}

// Reject finalizes a recognized job as rejected.
func (s *JobService) Reject(ctx context.Context, actor *Actor, jobID uuid.UUID, comment string) (*models.PrintJob, error) {
	return s.finalize(ctx, actor, jobID, models.StatusRejected, comment)
}

func (s *JobService) finalize(ctx context.Context, actor *Actor, jobID uuid.UUID, target models.PrintJobStatus, comment string) (*models.PrintJob, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	if !actor.Role.IsReviewer() {
		return nil, apperror.Unauthorized("only reviewers may approve or reject", nil)
	}
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidState(fmt.Sprintf("job %s cannot move from %s to %s", job.ShortID, job.Status, target), nil)
	}
	if job.RecognitionResult == nil {
		return nil, apperror.Precondition(fmt.Sprintf("job %s has no recognition result", job.ShortID), nil)
	}

	now := time.Now().UTC()
	confirmedBy := actor.ID
	job.RecognitionResult.ConfirmedBy = &confirmedBy
	job.RecognitionResult.ConfirmedAt = &now
	job.RecognitionResult.Comment = comment
	job.Status = target

	action := models.ActionApproved
	details := comment
	routingKey := "job.approved"
	if target == models.StatusRejected {
		action = models.ActionRejected
		routingKey = "job.rejected"
		if details == "" {
			details = "checklist rejected"
		}
	} else if details == "" {
		details = "checklist approved"
	}

	event := newEvent(len(job.History)+1, action, actor, details)
	if err := s.jobs.UpdateWithEvent(ctx, job, &event); err != nil {
		return nil, err
	}
	job.History = append(job.History, event)
	s.invalidateListings(ctx)
	s.publishEvent(ctx, routingKey, job)
	return job, nil
}

// newEvent builds a ledger entry. A nil actor marks a system event written by
// the recognition pipeline.
func newEvent(seq int, action models.HistoryAction, actor *Actor, details string) models.HistoryEvent {
	ev := models.HistoryEvent{
		ID:        uuid.New(),
		Seq:       seq,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if actor != nil {
		ev.UserID = actor.ID.String()
		ev.UserName = actor.Name
	} else {
		ev.UserID = models.SystemActorName
		ev.UserName = models.SystemActorName
	}
	return ev
}

func (s *JobService) invalidateListings(ctx context.Context) {
	s.cache.IncrementVersion(ctx, jobsVersionKey)
}

func (s *JobService) publishEvent(ctx context.Context, routingKey string, job *models.PrintJob) {
	if s.mq == nil {
		return
	}
	payload := map[string]any{
		"event":      routingKey,
		"jobId":      job.ID.String(),
		"shortId":    job.ShortID,
		"officeId":   job.OfficeID.String(),
		"templateId": job.TemplateID.String(),
		"status":     job.Status,
		"occurredAt": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.mq.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("publish %s failed: %v", routingKey, err)
	}
}
