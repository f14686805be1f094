package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskScopeIntegrityScan re-checks every actor's assignments against the
	// active catalog and reports companies assigned outside their nodes.
	TaskScopeIntegrityScan = "access:integrity_scan"
	// TaskAccessCodeSweep invalidates unconfirmed access codes past their TTL.
	TaskAccessCodeSweep = "access:code_sweep"
)

// IntegrityScanPayload tunes the integrity scan run.
type IntegrityScanPayload struct {
	// DeactivateAfter marks actors inactive when findings repeat; zero keeps
	// the scan report-only.
	DeactivateAfter int `json:"deactivate_after"`
}

// NewIntegrityScanTask constructs an Asynq task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScopeIntegrityScan, data), nil
}

// CodeSweepPayload carries the code expiry window.
type CodeSweepPayload struct {
	TTL time.Duration `json:"ttl"`
}

// NewCodeSweepTask constructs an Asynq task.
func NewCodeSweepTask(payload CodeSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessCodeSweep, data), nil
}
