package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobID is a unique identifier for a job.
type JobID string

// String returns the string representation of the JobID.
func (id JobID) String() string {
	return string(id)
}

// NewJobID generates a random JobID.
func NewJobID() JobID {
	return JobID(uuid.New().String())
}

// JobStage is the pipeline stage a job is currently in.
type JobStage string

const (
	JobStageClassify     JobStage = "classify"
	JobStageRejected     JobStage = "rejected"
	JobStageNotifyTyping JobStage = "notify_typing"
	JobStageWaitingSlot  JobStage = "waiting_slot"
	JobStageFetching     JobStage = "fetching"
	JobStageFetchFailed  JobStage = "fetch_failed"
	JobStageThumbnail    JobStage = "thumbnail"
	JobStageUploading    JobStage = "uploading"
	JobStageCleanup      JobStage = "cleanup"
	JobStageDone         JobStage = "done"
)

// IsTerminal reports whether no further stage follows.
func (s JobStage) IsTerminal() bool {
	switch s {
	case JobStageRejected, JobStageFetchFailed, JobStageDone:
		return true
	}
	return false
}

// Job is one unit of work relaying a single inbound message.
// It is owned by the pipeline invocation processing it and is never re-queued.
type Job struct {
	ID         JobID
	ChatID     int64
	SourceText string
	Stage      JobStage
	Uploaded   bool
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewJob creates a job for an inbound event.
func NewJob(event InboundEvent) *Job {
	now := time.Now()
	return &Job{
		ID:         NewJobID(),
		ChatID:     event.ChatID,
		SourceText: event.Text,
		Stage:      JobStageClassify,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Advance moves the job to the given stage.
func (j *Job) Advance(stage JobStage) {
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// MarkFailed records err and moves the job to the given terminal stage.
func (j *Job) MarkFailed(stage JobStage, err error) {
	if err != nil {
		j.LastError = err.Error()
	}
	j.Advance(stage)
}
