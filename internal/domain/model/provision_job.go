package model

import (
	"time"

	"github.com/google/uuid"
)

type ProvisionJobStatus string

const (
	ProvisionJobStatusPending ProvisionJobStatus = "pending"
	ProvisionJobStatusDone    ProvisionJobStatus = "done"
	ProvisionJobStatusFailed  ProvisionJobStatus = "failed" // attempts exhausted, kept for operators
)

// ProvisionJob is one entry in the durable outbox for controller-side
// subscriber provisioning. It is enqueued in the same commit as the
// entitlement upsert so a controller outage never loses the grant.
type ProvisionJob struct {
	ID            string
	Phone         string
	Profile       string
	Status        ProvisionJobStatus
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewProvisionJob(phone, profile string, now time.Time) *ProvisionJob {
	return &ProvisionJob{
		ID:            uuid.NewString(),
		Phone:         phone,
		Profile:       profile,
		Status:        ProvisionJobStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkAttempt records a provisioning attempt. On failure the job backs off
// linearly with the attempt count; after maxAttempts it parks as failed.
func (j *ProvisionJob) MarkAttempt(now time.Time, err error, maxAttempts int) {
	j.Attempts++
	j.UpdatedAt = now
	if err == nil {
		j.Status = ProvisionJobStatusDone
		j.LastError = ""
		return
	}
	j.LastError = err.Error()
	if j.Attempts >= maxAttempts {
		j.Status = ProvisionJobStatusFailed
		return
	}
	j.NextAttemptAt = now.Add(time.Duration(j.Attempts) * time.Minute)
}
