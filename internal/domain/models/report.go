package models

import "time"

// ReportType tags the payload carried inside an oracle report.
type ReportType uint8

const (
	ReportReservePublic  ReportType = 0
	ReportReservePrivate ReportType = 1
	ReportCaskBatch      ReportType = 2
	ReportLifecycle      ReportType = 3
)

// RunStatus is the terminal status of a workflow execution.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// WorkflowRun is the audit record of one workflow execution, stored in MongoDB.
type WorkflowRun struct {
	ID         string         `bson:"_id" json:"id"`
	Workflow   string         `bson:"workflow" json:"workflow"`
	Trigger    string         `bson:"trigger" json:"trigger"`
	AsOf       time.Time      `bson:"as_of" json:"asOf"`
	Status     RunStatus      `bson:"status" json:"status"`
	Error      string         `bson:"error,omitempty" json:"error,omitempty"`
	Result     map[string]any `bson:"result,omitempty" json:"result,omitempty"`
	StartedAt  time.Time      `bson:"started_at" json:"startedAt"`
	FinishedAt time.Time      `bson:"finished_at" json:"finishedAt"`
}

// AttestationLogEntry is one proof-of-reserve outcome appended to the operator ledger.
type AttestationLogEntry struct {
	AsOf              time.Time
	Mode              string
	PhysicalCaskCount int
	TotalTokenSupply  string
	ReserveRatio      string
	FullyReserved     bool
	AttestationHash   string
	TxHash            string
}
