package entitlements

import "codeberg.org/seoscribe/dashboard/seoscribe/entitlements"

// Response wraps the dashboard view for one device
type Response struct {
	DeviceID string            `json:"device_id"`
	View     entitlements.View `json:"view"`
}
