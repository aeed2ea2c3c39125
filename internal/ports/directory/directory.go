// Package directory implements the instructor profile lookup backing the
// matching filters.
package directory

import (
	"context"
	"sync"

	"drivero/internal/ports"
)

// Profile is the slice of an instructor's record the matching engine needs.
type Profile struct {
	Rating      float64
	LessonTypes []string
}

// Static is an in-memory DirectoryPort fed by profile upserts. The full
// profile store is owned by the accounts service; this cache holds whatever
// the surrounding application has synced into it.
type Static struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewStatic() *Static {
	return &Static{profiles: make(map[string]Profile)}
}

// SetProfile installs or replaces an instructor's profile.
func (d *Static) SetProfile(instructorID string, profile Profile) {
	d.mu.Lock()
	d.profiles[instructorID] = profile
	d.mu.Unlock()
}

// RemoveProfile drops an instructor's profile.
func (d *Static) RemoveProfile(instructorID string) {
	d.mu.Lock()
	delete(d.profiles, instructorID)
	d.mu.Unlock()
}

// Rating returns 0 for unknown instructors so they rank last, not error out.
func (d *Static) Rating(_ context.Context, instructorID string) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.profiles[instructorID].Rating, nil
}

// Serves reports whether the instructor teaches the given lesson type. An
// empty lesson type matches everyone.
func (d *Static) Serves(_ context.Context, instructorID string, lessonType string) (bool, error) {
	if lessonType == "" {
		return true, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.profiles[instructorID]
	if !ok {
		return false, nil
	}
	for _, t := range profile.LessonTypes {
		if t == lessonType {
			return true, nil
		}
	}
	return false, nil
}

var _ ports.DirectoryPort = (*Static)(nil)
