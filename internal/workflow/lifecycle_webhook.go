package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/report"
)

// LifecycleWebhook forwards an inbound custody event to the warehouse API and
// reports the recorded transition on chain.
type LifecycleWebhook struct {
	rt       *Runtime
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLifecycleWebhook builds the workflow.
func NewLifecycleWebhook(rt *Runtime) *LifecycleWebhook {
	v := validator.New()
	// Request models carry gin "binding" tags.
	v.SetTagName("binding")
	return &LifecycleWebhook{
		rt:       rt,
		validate: v,
		logger:   rt.Logger.With(zap.String("workflow", NameLifecycleWebhook)),
	}
}

// Name implements Workflow.
func (w *LifecycleWebhook) Name() string { return NameLifecycleWebhook }

// Run implements Workflow.
func (w *LifecycleWebhook) Run(ctx context.Context, trigger Trigger) (Result, error) {
	req, err := w.parse(trigger.Payload)
	if err != nil {
		return nil, err
	}

	resp, err := w.rt.API.PostLifecycle(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, errors.New("warehouse lifecycle API returned ok=false")
	}

	event := resp.Event
	payload, err := report.MapLifecycleEvent(event)
	if err != nil {
		return nil, err
	}
	encoded, err := report.EncodeLifecycle(payload)
	if err != nil {
		return nil, err
	}
	submission, err := w.rt.SubmitReport(ctx, NameLifecycleWebhook, encoded, w.logger)
	if err != nil {
		return nil, err
	}

	w.logger.Info("lifecycle event forwarded",
		zap.Int("cask_id", event.CaskID),
		zap.String("to", string(event.ToState)))

	return submission.mergeInto(Result{
		"workflow":    NameLifecycleWebhook,
		"caskId":      event.CaskID,
		"fromState":   event.FromState,
		"toState":     event.ToState,
		"timestamp":   units.FormatISO(event.Timestamp),
		"reportBytes": len(encoded),
	}), nil
}

func (w *LifecycleWebhook) parse(body []byte) (models.LifecycleEventRequest, error) {
	var req models.LifecycleEventRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, fmt.Errorf("%w: body is empty", ErrInvalidTrigger)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
	}
	if err := w.validate.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
	}
	return req, nil
}
