package hass

import "testing"

func TestTargetSlugs(t *testing.T) {
	slugs := TargetSlugs([]int{1, 3})

	seen := make(map[string]int)
	for _, s := range slugs {
		seen[s]++
	}
	for s, n := range seen {
		if n > 1 {
			t.Errorf("slug %q appears %d times", s, n)
		}
	}

	// tempcwu is both a fixed sensor and the water heater current slug;
	// deduplication must keep exactly one.
	for _, want := range []string{
		"tempcwu",
		"tempcircuit1", "circuit1comforttemp", "circuit1ecotemp", "circuit1workstate",
		"tempcircuit3", "mixer3valveposition",
		"hdwtsetpoint", "hdwusermode", "hdwstartoneloading",
	} {
		if seen[want] == 0 {
			t.Errorf("missing slug %q", want)
		}
	}

	if seen["tempcircuit2"] != 0 {
		t.Error("unconfigured circuit 2 slugs included")
	}
}

func TestTargetSlugsNoCircuits(t *testing.T) {
	slugs := TargetSlugs(nil)
	if len(slugs) == 0 {
		t.Fatal("no slugs for circuit-less entry")
	}
	for _, s := range slugs {
		if s == "tempcircuit1" {
			t.Error("circuit slug included without configured circuits")
		}
	}
}
