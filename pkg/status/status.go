// Package status tracks the robot's shared runtime state behind a single
// owned Tracker. Request handlers and the teleop loop read and write
// through it instead of package-level globals.
package status

import (
	"sync"
	"time"
)

// Motors holds the last commanded wheel velocities.
type Motors struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Axes holds the raw stick readings driving the motors.
type Axes struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// LastPhoto identifies the most recent capture.
type LastPhoto struct {
	Side string `json:"side"`
	Name string `json:"name"`
}

// Status is a consistent snapshot of the robot's state.
type Status struct {
	Running          bool           `json:"running"`
	CameraAvailable  bool           `json:"camera_available"`
	CameraMode       string         `json:"camera_mode,omitempty"`
	GamepadConnected bool           `json:"gamepad_connected"`
	GamepadName      string         `json:"gamepad_name,omitempty"`
	Motors           Motors         `json:"motors"`
	Axes             Axes           `json:"axes"`
	PhotoCounts      map[string]int `json:"photo_counts"`
	LastPhoto        *LastPhoto     `json:"last_photo,omitempty"`
	Message          string         `json:"message"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Tracker is the owned state object. All mutation goes through its
// methods; Snapshot returns a copy safe to serialize.
type Tracker struct {
	mu sync.RWMutex
	s  Status

	// OnChange, if set, is invoked with a snapshot after every mutation.
	// It runs on the mutating goroutine; keep it cheap (a hub push).
	OnChange func(Status)
}

// NewTracker creates a tracker with empty photo counts.
func NewTracker() *Tracker {
	return &Tracker{s: Status{PhotoCounts: make(map[string]int)}}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyLocked()
}

func (t *Tracker) copyLocked() Status {
	s := t.s
	counts := make(map[string]int, len(t.s.PhotoCounts))
	for k, v := range t.s.PhotoCounts {
		counts[k] = v
	}
	s.PhotoCounts = counts
	if t.s.LastPhoto != nil {
		lp := *t.s.LastPhoto
		s.LastPhoto = &lp
	}
	return s
}

// update applies fn under the lock and fires OnChange with the result.
func (t *Tracker) update(fn func(*Status)) {
	t.mu.Lock()
	fn(&t.s)
	t.s.UpdatedAt = time.Now()
	snapshot := t.copyLocked()
	cb := t.OnChange
	t.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// SetRunning marks the control loop as active or stopped.
func (t *Tracker) SetRunning(running bool) {
	t.update(func(s *Status) { s.Running = running })
}

// SetCamera records camera availability and framing mode.
func (t *Tracker) SetCamera(available bool, mode string) {
	t.update(func(s *Status) {
		s.CameraAvailable = available
		s.CameraMode = mode
	})
}

// SetGamepad records gamepad connectivity.
func (t *Tracker) SetGamepad(connected bool, name string) {
	t.update(func(s *Status) {
		s.GamepadConnected = connected
		s.GamepadName = name
	})
}

// SetDrive records the current stick readings and motor commands in one
// mutation, so readers never see them out of step.
func (t *Tracker) SetDrive(axes Axes, motors Motors) {
	t.update(func(s *Status) {
		s.Axes = axes
		s.Motors = motors
	})
}

// SetPhotoCounts replaces the per-side photo counts.
func (t *Tracker) SetPhotoCounts(counts map[string]int) {
	t.update(func(s *Status) {
		for k, v := range counts {
			s.PhotoCounts[k] = v
		}
	})
}

// RecordPhoto bumps the side's count and remembers the capture.
func (t *Tracker) RecordPhoto(side, name string) {
	t.update(func(s *Status) {
		s.PhotoCounts[side]++
		s.LastPhoto = &LastPhoto{Side: side, Name: name}
	})
}

// RemovePhotos decrements the side's count by n (floored at zero).
func (t *Tracker) RemovePhotos(side string, n int) {
	t.update(func(s *Status) {
		s.PhotoCounts[side] -= n
		if s.PhotoCounts[side] < 0 {
			s.PhotoCounts[side] = 0
		}
	})
}

// SetMessage sets the operator-visible message line.
func (t *Tracker) SetMessage(msg string) {
	t.update(func(s *Status) { s.Message = msg })
}
