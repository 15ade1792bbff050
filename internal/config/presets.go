package config

var Presets = map[string]*Config{
	"constant": {
		PolyOrder: 0, NumMasses: 6, CacheDir: DefaultCacheDir,
		Robot:     RobotConfig{MassBody: 0.5, MassEnd: 0.5, Length: 1.0, Diameter: 0.1},
		InitState: []float64{0.3},
	},
	"linear": {
		PolyOrder: 1, NumMasses: 6, CacheDir: DefaultCacheDir,
		Robot:     RobotConfig{MassBody: 0.5, MassEnd: 0.5, Length: 1.0, Diameter: 0.1},
		InitState: []float64{0.3, 0.5},
	},
	"quadratic": {
		PolyOrder: 2, NumMasses: 6, CacheDir: DefaultCacheDir,
		Robot:     RobotConfig{MassBody: 0.5, MassEnd: 0.5, Length: 1.0, Diameter: 0.1},
		InitState: []float64{0.2, 0.5, 1.0},
	},
	"heavy_tip": {
		PolyOrder: 1, NumMasses: 6, CacheDir: DefaultCacheDir,
		Robot:     RobotConfig{MassBody: 0.2, MassEnd: 1.5, Length: 0.8, Diameter: 0.06},
		InitState: []float64{0.4, -0.6},
	},
	"thin_cable": {
		PolyOrder: 2, NumMasses: 10, CacheDir: DefaultCacheDir,
		Robot:     RobotConfig{MassBody: 0.8, MassEnd: 0.05, Length: 1.5, Diameter: 0.02},
		InitState: []float64{0.1, 0.8, -1.2},
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
