package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"netdash/metrics"
	"netdash/models"
)

// Confirmation states
const (
	StateIdle       = "idle"
	StateConfirming = "confirming"
	StateSubmitting = "submitting"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
	StateCancelled  = "cancelled"
)

const actionFailedMessage = "Failed to perform action"

// Refresher re-fetches the snapshots a successful device command invalidates
type Refresher interface {
	RefreshDevices(ctx context.Context) error
	RefreshStats(ctx context.Context) error
}

type pendingAction struct {
	action string
	device models.Device
}

// Dispatcher owns the single confirmation dialog. A new request replaces
// whatever was pending; Confirm always acts on the pending request at call time.
type Dispatcher struct {
	mutex     sync.Mutex
	backend   Backend
	notifier  *Notifier
	refresher Refresher
	audit     AuditLog

	pending *pendingAction
	state   models.Confirmation
	// bumped by every Request and Cancel
	gen uint64
}

func NewDispatcher(backend Backend, notifier *Notifier, refresher Refresher, audit AuditLog) *Dispatcher {
	return &Dispatcher{
		backend:   backend,
		notifier:  notifier,
		refresher: refresher,
		audit:     audit,
		state:     models.Confirmation{State: StateIdle},
	}
}

// SetRefresher wires the scheduler in after construction
func (d *Dispatcher) SetRefresher(r Refresher) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.refresher = r
}

// ConfirmationText builds the dialog title and message for an action
func ConfirmationText(action string, device models.Device) (string, string, error) {
	name := orUnknown(device.Hostname)
	switch action {
	case "block":
		return "Block Device", fmt.Sprintf("Are you sure you want to block %s (%s)?", name, device.IP), nil
	case "unblock":
		return "Unblock Device", fmt.Sprintf("Are you sure you want to unblock %s (%s)?", name, device.IP), nil
	case "kick":
		return "Kick Device", fmt.Sprintf("Are you sure you want to temporarily disconnect %s (%s)?", name, device.IP), nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnknownAction, action)
}

// Request opens the confirmation dialog for action on device
func (d *Dispatcher) Request(action string, device models.Device) (models.Confirmation, error) {
	title, message, err := ConfirmationText(action, device)
	if err != nil {
		return models.Confirmation{}, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.gen++
	d.pending = &pendingAction{action: action, device: device}
	d.state = models.Confirmation{
		State:    StateConfirming,
		Action:   action,
		Title:    title,
		Message:  message,
		DeviceIP: device.IP,
		Hostname: device.Hostname,
	}
	return d.state, nil
}

// Cancel dismisses the dialog without sending anything
func (d *Dispatcher) Cancel() models.Confirmation {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.gen++
	d.pending = nil
	d.state = models.Confirmation{State: StateCancelled}
	return d.state
}

// Current returns the dialog state
func (d *Dispatcher) Current() models.Confirmation {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state
}

// Confirm submits the pending action. The outcome is reported through the
// returned confirmation and a notification; a backend rejection is not an error.
func (d *Dispatcher) Confirm(ctx context.Context) (models.Confirmation, error) {
	d.mutex.Lock()
	if d.pending == nil {
		d.mutex.Unlock()
		return models.Confirmation{State: StateIdle}, ErrNothingPending
	}
	p := *d.pending
	d.pending = nil
	d.state.State = StateSubmitting
	submitting := d.state
	refresher := d.refresher
	gen := d.gen
	d.mutex.Unlock()

	result, err := d.backend.DeviceAction(ctx, p.action, p.device.IP)

	outcome := submitting
	switch {
	case err != nil:
		outcome.State = StateFailed
		outcome.Result = actionFailedMessage
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Message != "" {
			outcome.Result = reqErr.Message
		}
		log.Printf("⚠️  %s %s failed: %v", p.action, p.device.IP, err)
		d.notify(models.LevelError, outcome.Result)
	case !result.Success():
		outcome.State = StateFailed
		outcome.Result = result.Message
		if outcome.Result == "" {
			outcome.Result = actionFailedMessage
		}
		d.notify(models.LevelError, outcome.Result)
	default:
		outcome.State = StateSucceeded
		outcome.Result = result.Message
		d.notify(models.LevelSuccess, result.Message)
		if refresher != nil {
			if err := refresher.RefreshDevices(ctx); err != nil {
				log.Printf("⚠️  Device refresh after %s failed: %v", p.action, err)
			}
			if err := refresher.RefreshStats(ctx); err != nil {
				log.Printf("⚠️  Stats refresh after %s failed: %v", p.action, err)
			}
		}
	}

	d.recordAction(ctx, p, outcome)

	d.mutex.Lock()
	// a later Request or Cancel owns the dialog
	if d.gen == gen {
		d.state = outcome
	}
	d.mutex.Unlock()

	return outcome, nil
}

func (d *Dispatcher) notify(level, msg string) {
	if d.notifier == nil {
		return
	}
	if msg == "" {
		msg = "Action completed"
	}
	d.notifier.Notify(level, msg)
}

func (d *Dispatcher) recordAction(ctx context.Context, p pendingAction, outcome models.Confirmation) {
	status := "success"
	if outcome.State != StateSucceeded {
		status = "error"
	}
	metrics.IncrementDeviceAction(p.action, status)

	if d.audit == nil {
		return
	}
	rec := &models.ActionRecord{
		Action:    p.action,
		DeviceIP:  p.device.IP,
		Hostname:  p.device.Hostname,
		Status:    status,
		Message:   outcome.Result,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.audit.RecordAction(ctx, rec); err != nil {
		log.Printf("⚠️  Failed to record %s action: %v", p.action, err)
	}
}
