package devices

import "time"

// updates the last activity time
func (d *Device) Touch(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = now
}

// safely retrieves the last activity time
func (d *Device) LastActivity() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastActivity
}
