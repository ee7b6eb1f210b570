package config

// Presets are named starting points for experimenting with the controller.
var Presets = map[string]*Config{
	"tuned": {
		Controller: ControllerConfig{Kp: 3.345, Ki: 0.014, Kd: 3.486, PEnabled: true, IEnabled: true, DEnabled: true},
		Platform:   PlatformConfig{Mass: 1.0},
		Run:        RunConfig{Dt: DefaultDt, Duration: 20.0, Speed: 1.0},
		Graph:      GraphConfig{MaxPoints: DefaultMaxPoints, TimeWindow: DefaultTimeWindow},
	},
	"oscillatory": {
		Controller: ControllerConfig{Kp: 9.0, Ki: 0.0, Kd: 0.1, PEnabled: true, IEnabled: true, DEnabled: true},
		Platform:   PlatformConfig{Mass: 1.0},
		Run:        RunConfig{Dt: DefaultDt, Duration: 30.0, Speed: 1.0},
		Graph:      GraphConfig{MaxPoints: DefaultMaxPoints, TimeWindow: DefaultTimeWindow},
	},
	"sluggish": {
		// Gains low enough that the deadband traps the platform short of
		// the setpoint.
		Controller: ControllerConfig{Kp: 0.5, Ki: 0.0, Kd: 0.5, PEnabled: true, IEnabled: true, DEnabled: true},
		Platform:   PlatformConfig{Mass: 1.0},
		Run:        RunConfig{Dt: DefaultDt, Duration: 20.0, Speed: 1.0},
		Graph:      GraphConfig{MaxPoints: DefaultMaxPoints, TimeWindow: DefaultTimeWindow},
	},
	"windy": {
		Controller: ControllerConfig{Kp: 5.0, Ki: 0.5, Kd: 2.0, PEnabled: true, IEnabled: true, DEnabled: true},
		Platform:   PlatformConfig{Mass: 1.0, Wind: 40.0},
		Run:        RunConfig{Dt: DefaultDt, Duration: 30.0, Speed: 1.0},
		Graph:      GraphConfig{MaxPoints: DefaultMaxPoints, TimeWindow: DefaultTimeWindow},
	},
	"heavy": {
		Controller: ControllerConfig{Kp: 6.0, Ki: 0.2, Kd: 4.0, PEnabled: true, IEnabled: true, DEnabled: true},
		Platform:   PlatformConfig{Mass: 8.0},
		Run:        RunConfig{Dt: DefaultDt, Duration: 40.0, Speed: 1.0},
		Graph:      GraphConfig{MaxPoints: DefaultMaxPoints, TimeWindow: DefaultTimeWindow},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
