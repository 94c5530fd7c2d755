package model

// LocationSample is a single raw reading from a location source. Samples
// arrive at arbitrary cadence and are discarded once a throttling decision
// has been made. Accuracy and Speed may be absent (nil) when the source
// cannot provide them.
type LocationSample struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}
