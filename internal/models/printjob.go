package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PrintJobStatus is the life-cycle state of a checklist instance.
type PrintJobStatus string

const (
	StatusCreated             PrintJobStatus = "CREATED"
	StatusScanReceived        PrintJobStatus = "SCAN_RECEIVED"
	StatusRecognizedAutoOK    PrintJobStatus = "RECOGNIZED_AUTO_OK"
	StatusRecognizedNeedsWork PrintJobStatus = "RECOGNIZED_NEED_REVIEW"
	StatusRecognizedError     PrintJobStatus = "RECOGNIZED_ERROR"
	StatusApproved            PrintJobStatus = "APPROVED"
	StatusRejected            PrintJobStatus = "REJECTED"
)

// jobTransitions lists every legal edge of the status state machine.
// RECOGNIZED_ERROR loops back to SCAN_RECEIVED for a re-scan; APPROVED and
// REJECTED are terminal.
var jobTransitions = map[PrintJobStatus][]PrintJobStatus{
	StatusCreated:             {StatusScanReceived},
	StatusScanReceived:        {StatusRecognizedAutoOK, StatusRecognizedNeedsWork, StatusRecognizedError},
	StatusRecognizedAutoOK:    {StatusApproved, StatusRejected},
	StatusRecognizedNeedsWork: {StatusApproved, StatusRejected},
	StatusRecognizedError:     {StatusScanReceived},
	StatusApproved:            {},
	StatusRejected:            {},
}

// CanTransitionTo reports whether moving to the target status is a legal edge.
func (s PrintJobStatus) CanTransitionTo(target PrintJobStatus) bool {
	for _, next := range jobTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined from the status.
func (s PrintJobStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Shift narrows a daily checklist to the morning or evening half of the day.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
)

// ScanStatus tracks processing of an uploaded scan file.
type ScanStatus string

const (
	ScanStatusReceived  ScanStatus = "received"
	ScanStatusProcessed ScanStatus = "processed"
	ScanStatusError     ScanStatus = "error"
)

// Scan is the uploaded image of a filled-in checklist, owned by its job.
type Scan struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PrintJobID       uuid.UUID  `gorm:"type:uuid;index" json:"printJobId"`
	OfficeID         uuid.UUID  `gorm:"type:uuid" json:"officeId"`
	UploadedBy       uuid.UUID  `gorm:"type:uuid" json:"uploadedBy"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	FileName         string     `json:"fileName"`
	FileURL          string     `json:"fileUrl"`
	ProcessingStatus ScanStatus `json:"processingStatus"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (s *Scan) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// RecognitionVerdict is the coarse outcome of a recognition pass.
type RecognitionVerdict string

const (
	VerdictAutoOK     RecognitionVerdict = "AUTO_OK"
	VerdictNeedReview RecognitionVerdict = "NEED_REVIEW"
	VerdictError      RecognitionVerdict = "ERROR"
)

// StatusForVerdict maps a verdict onto the job status it implies.
func StatusForVerdict(v RecognitionVerdict) PrintJobStatus {
	switch v {
	case VerdictAutoOK:
		return StatusRecognizedAutoOK
	case VerdictNeedReview:
		return StatusRecognizedNeedsWork
	default:
		return StatusRecognizedError
	}
}

// RecognizedItem is the extracted state of one checklist item. Confidence is
// always within [0,100].
type RecognizedItem struct {
	ItemID     uuid.UUID `json:"itemId"`
	IsChecked  bool      `json:"isChecked"`
	Confidence int       `json:"confidence"`
}

// RecognitionResult holds the per-item extraction for one scan plus the
// confirmation metadata stamped at approval or rejection time.
type RecognitionResult struct {
	ID          uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	ScanID      uuid.UUID                           `gorm:"type:uuid" json:"scanId"`
	PrintJobID  uuid.UUID                           `gorm:"type:uuid;index" json:"printJobId"`
	Items       datatypes.JSONSlice[RecognizedItem] `json:"items"`
	Verdict     RecognitionVerdict                  `json:"verdict"`
	ErrorReason string                              `json:"errorReason,omitempty"`
	ConfirmedBy *uuid.UUID                          `gorm:"type:uuid" json:"confirmedBy,omitempty"`
	ConfirmedAt *time.Time                          `json:"confirmedAt,omitempty"`
	Comment     string                              `json:"comment,omitempty"`
	CreatedAt   time.Time                           `json:"createdAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (r *RecognitionResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HistoryAction names what happened to a job.
type HistoryAction string

const (
	ActionCreated           HistoryAction = "created"
	ActionPrinted           HistoryAction = "printed"
	ActionReprinted         HistoryAction = "reprinted"
	ActionScanUploaded      HistoryAction = "scan_uploaded"
	ActionRecognized        HistoryAction = "recognized"
	ActionManuallyCorrected HistoryAction = "manually_corrected"
	ActionApproved          HistoryAction = "approved"
	ActionRejected          HistoryAction = "rejected"
)

// SystemActorName identifies events written by the recognition pipeline
// rather than a person.
const SystemActorName = "system"

// HistoryEvent is one entry of a job's append-only audit trail. Seq increases
// by one per event; entries are never updated or deleted. UserID is the
// actor's id as a string, or "system" for pipeline events.
type HistoryEvent struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PrintJobID uuid.UUID     `gorm:"type:uuid;index" json:"printJobId"`
	Seq        int           `json:"seq"`
	Action     HistoryAction `json:"action"`
	UserID     string        `json:"userId"`
	UserName   string        `json:"userName"`
	Details    string        `json:"details,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (e *HistoryEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// PrintJob is one dated, office-scoped instance of a checklist template,
// tracked through print, scan, recognition and review. TemplateVersionID pins
// the exact version printed and never changes for the lifetime of the job.
type PrintJob struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ShortID           string             `gorm:"index" json:"shortId"`
	OfficeID          uuid.UUID          `gorm:"type:uuid;index" json:"officeId"`
	TemplateID        uuid.UUID          `gorm:"type:uuid;index" json:"templateId"`
	TemplateVersionID uuid.UUID          `gorm:"type:uuid" json:"templateVersionId"`
	TemplateName      string             `json:"templateName"`
	CreatedBy         uuid.UUID          `gorm:"type:uuid;index" json:"createdBy"`
	CreatedByName     string             `json:"createdByName"`
	ChecklistDate     time.Time          `gorm:"type:date" json:"checklistDate"`
	Shift             Shift              `json:"shift,omitempty"`
	Status            PrintJobStatus     `gorm:"index" json:"status"`
	PrintCount        int                `json:"printCount"`
	Scan              *Scan              `gorm:"foreignKey:PrintJobID" json:"scan,omitempty"`
	RecognitionResult *RecognitionResult `gorm:"foreignKey:PrintJobID" json:"recognitionResult,omitempty"`
	History           []HistoryEvent     `gorm:"foreignKey:PrintJobID" json:"history"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (j *PrintJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = StatusCreated
	}
	return nil
}

// JobFilter narrows a job listing. Zero values mean "no constraint".
// Scope fields are filled by the service from the actor's role, not by
// callers.
type JobFilter struct {
	OfficeID   uuid.UUID
	TemplateID uuid.UUID
	Status     PrintJobStatus
	Query      string

	// Role scope, set by the service.
	CreatedBy uuid.UUID
	OfficeIDs []uuid.UUID

	Limit int
}
