package coordinator

import (
	"math"
	"strings"

	"github.com/emberlink/ecomax-bridge/internal/econet"
)

// errorSentinel is the value the controller reports for a disconnected or
// faulted sensor probe.
const errorSentinel = 999.0

// validationRange bounds values for slugs containing a keyword. Checked in
// order; the first matching keyword wins.
type validationRange struct {
	keyword  string
	min, max float64
}

// Generic physical plausibility limits, applied when the register map
// carries no explicit min/max for the slug.
var validationRanges = []validationRange{
	{"temp", -20, 100},
	{"power", 0, 100},
	{"fan", 0, 100},
	{"valveposition", 0, 100},
	{"pressure", 0, 4},
	{"lambda", 0, 25},
}

// validate reports whether a freshly read value is plausible.
//
// Rejection hierarchy: the 999 sensor error code first, then the register
// map's own min/max/max_delta bounds when present, then the generic keyword
// ranges. A slug with explicit map bounds never falls through to the
// generic ranges. cached is the previous good value, used for delta checks;
// pass hasCached=false when none exists.
func validate(slug string, param econet.Param, value float64, cached float64, hasCached bool) bool {
	if value == errorSentinel {
		return false
	}

	if param.Min != nil || param.Max != nil {
		if param.Min != nil && value < *param.Min {
			return false
		}
		if param.Max != nil && value > *param.Max {
			return false
		}
		if param.MaxDelta != nil && hasCached && math.Abs(cached-value) > *param.MaxDelta {
			return false
		}
		return true
	}

	for _, r := range validationRanges {
		if strings.Contains(slug, r.keyword) {
			return value >= r.min && value <= r.max
		}
	}
	return true
}
