package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteParameter writes one polled parameter value.
//
// This is the primary telemetry method: the bridge calls it for every
// slug in each validated snapshot. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Parameters:
//   - entryID: Controller entry the value belongs to
//   - slug: Parameter slug (e.g., "tempcwu")
//   - value: Decoded, validated value
func (c *Client) WriteParameter(entryID, slug string, value float64) {
	c.WriteParameterAt(entryID, slug, value, time.Now())
}

// WriteParameterAt writes a parameter value with an explicit timestamp.
// Used when replaying buffered data after an outage.
func (c *Client) WriteParameterAt(entryID, slug string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ecomax_parameters",
		map[string]string{
			"entry_id": entryID,
			"slug":     slug,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)
	c.writeAPI.WritePoint(point)
}

// WriteSnapshot writes every parameter of one poll cycle with a shared
// timestamp, keeping a cycle's points aligned in queries.
func (c *Client) WriteSnapshot(entryID string, data map[string]float64) {
	if !c.IsConnected() {
		return
	}

	now := time.Now()
	for slug, value := range data {
		c.WriteParameterAt(entryID, slug, value, now)
	}
}
