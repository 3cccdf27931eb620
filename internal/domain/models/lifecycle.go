package models

import "time"

// LifecycleEventRequest is the inbound payload for POST /events/lifecycle and for the
// lifecycle webhook trigger.
type LifecycleEventRequest struct {
	CaskID            int              `json:"caskId" binding:"required,gt=0"`
	ToState           LifecycleState   `json:"toState" binding:"required,oneof=filled maturation regauged transfer bottling_ready bottled"`
	GaugeProofGallons *float64         `json:"gaugeProofGallons,omitempty" binding:"omitempty,gte=0"`
	GaugeWineGallons  *float64         `json:"gaugeWineGallons,omitempty" binding:"omitempty,gte=0"`
	GaugeProof        *float64         `json:"gaugeProof,omitempty" binding:"omitempty,gte=0"`
	Reason            *LifecycleReason `json:"reason,omitempty" binding:"omitempty,oneof=regauge transfer bottling"`
	Timestamp         *time.Time       `json:"timestamp,omitempty"`
}

// LifecyclePostResponse acknowledges an appended lifecycle event.
type LifecyclePostResponse struct {
	OK    bool           `json:"ok"`
	Event LifecycleEvent `json:"event"`
}

// ValidationIssue describes one rejected field of a request.
type ValidationIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error envelope of the API.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}
