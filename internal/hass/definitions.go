package hass

import "fmt"

// Units and device classes used in discovery documents.
const (
	unitCelsius = "°C"
	unitPercent = "%"
	unitKW      = "kW"
	unitSeconds = "s"

	classTemperature = "temperature"
	classPower       = "power"
	classDuration    = "duration"
)

// Controller work state codes shared by climate presets and DHW modes.
const (
	workStateAway    = 0
	workStateComfort = 1
	workStateEco     = 2
	workStateAuto    = 3
)

// SensorDef describes one read-only sensor entity.
type SensorDef struct {
	Slug        string
	Name        string
	Unit        string
	DeviceClass string
	Icon        string
}

// sensorDefs lists every sensor the bridge can expose. Slugs the
// controller does not answer are skipped at setup.
var sensorDefs = []SensorDef{
	{"tempwthr", "Outside temperature", unitCelsius, classTemperature, "mdi:thermometer"},
	{"boilerpower", "Boiler power", unitKW, classPower, "mdi:flash"},
	{"worktime", "Total work time", unitSeconds, classDuration, "mdi:clock-outline"},
	{"tempcwu", "DHW temperature", unitCelsius, classTemperature, "mdi:water-boiler"},
	{"tempbuforup", "Buffer top temperature", unitCelsius, classTemperature, "mdi:water"},
	{"tempbufordown", "Buffer bottom temperature", unitCelsius, classTemperature, "mdi:water"},
	{"tempclutch", "Clutch temperature", unitCelsius, classTemperature, "mdi:fire-alert"},
	{"buforsetpoint", "Buffer setpoint", unitCelsius, classTemperature, "mdi:target"},
}

// circuitSensorDefs returns the per-circuit sensors for one heating circuit.
func circuitSensorDefs(circuit int) []SensorDef {
	return []SensorDef{
		{
			Slug:        fmt.Sprintf("tempcircuit%d", circuit),
			Name:        fmt.Sprintf("Circuit %d temperature", circuit),
			Unit:        unitCelsius,
			DeviceClass: classTemperature,
			Icon:        "mdi:radiator",
		},
		{
			Slug:        fmt.Sprintf("circuit%dthermostattemp", circuit),
			Name:        fmt.Sprintf("Circuit %d thermostat", circuit),
			Unit:        unitCelsius,
			DeviceClass: classTemperature,
			Icon:        "mdi:radiator",
		},
		{
			Slug: fmt.Sprintf("mixer%dvalveposition", circuit),
			Name: fmt.Sprintf("Mixer %d valve position", circuit),
			Unit: unitPercent,
			Icon: "mdi:valve",
		},
	}
}

// ClimateDef describes one heating circuit thermostat.
type ClimateDef struct {
	Circuit     int
	CurrentSlug string // measured room/circuit temperature
	ComfortSlug string // comfort setpoint, used as the target temperature
	EcoSlug     string // eco setpoint
	StateSlug   string // work state register (0=away 1=comfort 2=eco 3=auto)
}

// climateDef returns the thermostat definition for a heating circuit.
func climateDef(circuit int) ClimateDef {
	return ClimateDef{
		Circuit:     circuit,
		CurrentSlug: fmt.Sprintf("tempcircuit%d", circuit),
		ComfortSlug: fmt.Sprintf("circuit%dcomforttemp", circuit),
		EcoSlug:     fmt.Sprintf("circuit%decotemp", circuit),
		StateSlug:   fmt.Sprintf("circuit%dworkstate", circuit),
	}
}

// presetToState maps Home Assistant preset names to work state codes.
var presetToState = map[string]float64{
	"away":    workStateAway,
	"comfort": workStateComfort,
	"eco":     workStateEco,
}

// NumberDef describes one writable setpoint exposed as a number entity.
type NumberDef struct {
	Slug string
	Name string
	Min  float64
	Max  float64
	Step float64
	Icon string
}

// numberDefs lists the DHW setpoints exposed as plain numbers.
var numberDefs = []NumberDef{
	{"hdwtsetpoint", "DHW setpoint", 20, 70, 1, "mdi:water-thermometer"},
	{"hdwminsettemp", "DHW minimum temperature", 10, 50, 1, "mdi:thermometer-chevron-down"},
	{"hdwmaxsettemp", "DHW maximum temperature", 50, 80, 1, "mdi:thermometer-chevron-up"},
}

// WaterHeaterDef describes the domestic hot water entity.
type WaterHeaterDef struct {
	Name        string
	CurrentSlug string
	TargetSlug  string
	MinSlug     string
	MaxSlug     string
	ModeSlug    string
}

// waterHeaterDef is the single DHW circuit every supported controller has.
var waterHeaterDef = WaterHeaterDef{
	Name:        "Domestic hot water",
	CurrentSlug: "tempcwu",
	TargetSlug:  "hdwtsetpoint",
	MinSlug:     "hdwminsettemp",
	MaxSlug:     "hdwmaxsettemp",
	ModeSlug:    "hdwusermode",
}

// DHW user mode values: 0=off, 1=manual (performance), 2=auto (eco).
var (
	waterHeaterModes = []string{"off", "performance", "eco"}

	modeToDHW = map[string]float64{
		"off":         0,
		"performance": 1,
		"eco":         2,
	}

	selectModeToDHW = map[string]float64{
		"off":    0,
		"manual": 1,
		"auto":   2,
	}
)

// TargetSlugs returns every register slug the platforms reference for an
// entry with the given heating circuits. The coordinator polls this set;
// slugs the controller does not answer are dropped by its availability
// scan.
func TargetSlugs(circuits []int) []string {
	seen := make(map[string]bool)
	var slugs []string
	add := func(slug string) {
		if slug == "" || seen[slug] {
			return
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}

	for _, def := range sensorDefs {
		add(def.Slug)
	}
	for _, circuit := range circuits {
		for _, def := range circuitSensorDefs(circuit) {
			add(def.Slug)
		}
		cd := climateDef(circuit)
		add(cd.CurrentSlug)
		add(cd.ComfortSlug)
		add(cd.EcoSlug)
		add(cd.StateSlug)
	}
	for _, def := range numberDefs {
		add(def.Slug)
	}
	add(waterHeaterDef.CurrentSlug)
	add(waterHeaterDef.TargetSlug)
	add(waterHeaterDef.MinSlug)
	add(waterHeaterDef.MaxSlug)
	add(waterHeaterDef.ModeSlug)
	for _, def := range switchDefs {
		add(def.Slug)
	}
	for _, def := range selectDefs {
		add(def.Slug)
	}
	return slugs
}

// SwitchDef describes one on/off parameter.
type SwitchDef struct {
	Slug string
	Name string
}

// switchDefs lists the momentary controls exposed as switches.
var switchDefs = []SwitchDef{
	{"hdwstartoneloading", "Force DHW reload"},
}

// SelectDef describes one enumerated parameter.
type SelectDef struct {
	Slug    string
	Name    string
	Options []string
	ToValue map[string]float64
}

// selectDefs lists the enumerated controls exposed as selects.
var selectDefs = []SelectDef{
	{
		Slug:    "hdwusermode",
		Name:    "DHW mode",
		Options: []string{"off", "manual", "auto"},
		ToValue: selectModeToDHW,
	},
}
