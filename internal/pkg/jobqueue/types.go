package jobqueue

import (
	"encoding/json"
	"time"

	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendEmail         JobType = "send_email"
	JobTypeDonationReconcile JobType = "donation_reconcile"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendEmailJobPayload carries a fully rendered message
type SendEmailJobPayload struct {
	Message mail.Message `json:"message"`
}

// ToMap converts the payload to a map for storage
func (p SendEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"message": map[string]interface{}{
			"to":       p.Message.To,
			"bcc":      p.Message.Bcc,
			"reply_to": p.Message.ReplyTo,
			"subject":  p.Message.Subject,
			"html":     p.Message.HTML,
		},
	}
}

func SendEmailJobPayloadFromMap(data map[string]interface{}) (*SendEmailJobPayload, error) {
	var payload SendEmailJobPayload
	return &payload, fromMap(data, &payload)
}

// DonationReconcileJobPayload names a Pending donation by its session reference
type DonationReconcileJobPayload struct {
	Reference string `json:"reference"`
}

func (p DonationReconcileJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"reference": p.Reference,
	}
}

func DonationReconcileJobPayloadFromMap(data map[string]interface{}) (*DonationReconcileJobPayload, error) {
	var payload DonationReconcileJobPayload
	return &payload, fromMap(data, &payload)
}

func fromMap(data map[string]interface{}, v interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, v)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
