package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the portal.
const (
	MeasurementLogin        = "portal_logins"
	MeasurementRegistration = "portal_registrations"
	MeasurementSubmission   = "portal_submissions"
)

// RecordLogin counts a login attempt on a portal ("student" or "faculty")
// tagged with its outcome ("success", "invalid_credentials", "wrong_portal", "error").
func (c *Client) RecordLogin(portal, outcome string) {
	c.WritePoint(MeasurementLogin,
		map[string]string{"portal": portal, "outcome": outcome},
		map[string]any{"count": 1},
	)
}

// RecordRegistration counts a registration attempt for role.
func (c *Client) RecordRegistration(role, outcome string) {
	c.WritePoint(MeasurementRegistration,
		map[string]string{"role": role, "outcome": outcome},
		map[string]any{"count": 1},
	)
}

// RecordSubmission counts a submitted record ("feedback" or "suggestion") by author role.
func (c *Client) RecordSubmission(kind, role string) {
	c.WritePoint(MeasurementSubmission,
		map[string]string{"kind": kind, "role": role},
		map[string]any{"count": 1},
	)
}

// WritePoint writes a point stamped now. Tags should be low cardinality;
// never tag with user identifiers.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
