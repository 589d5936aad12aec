package tracking

import "time"

// DriverPresence is the live location/metadata record for an online driver.
// At most one entry exists per driver id; a newer connection's update always
// supersedes an older one (last-writer-wins per driver).
type DriverPresence struct {
	DriverID     string
	Latitude     float64
	Longitude    float64
	Heading      float64
	DeliveryID   string // empty when the driver is not on an active delivery
	ConnectionID string
	Verified     bool
	UpdatedAt    time.Time
}
