package sensors

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// loadShift is the fixed-point shift of the sysinfo load averages.
const loadShift = 1 << 16

type sysinfoSensor struct {
	name string
	eval func(info *unix.Sysinfo_t) float64
}

func (s *sysinfoSensor) Name() string {
	return s.name
}

func (s *sysinfoSensor) Unit() Unit {
	return Percent
}

func (s *sysinfoSensor) Read() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("failed reading sysinfo: %w", err)
	}
	return s.eval(&info), nil
}

// FindHostSensors returns the sensors available on this host: the one minute
// load average per CPU, and memory and swap utilization.
func FindHostSensors() ([]Sensor, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, fmt.Errorf("failed probing sysinfo: %w", err)
	}
	cpus := float64(runtime.NumCPU())
	list := []Sensor{
		&sysinfoSensor{
			name: "Load",
			eval: func(info *unix.Sysinfo_t) float64 {
				return float64(info.Loads[0]) / loadShift / cpus * 100
			},
		},
		&sysinfoSensor{
			name: "Memory",
			eval: func(info *unix.Sysinfo_t) float64 {
				used := float64(info.Totalram) - float64(info.Freeram) - float64(info.Bufferram)
				return ratio(used, float64(info.Totalram))
			},
		},
	}
	if info.Totalswap > 0 {
		list = append(list, &sysinfoSensor{
			name: "Swap",
			eval: func(info *unix.Sysinfo_t) float64 {
				return ratio(float64(info.Totalswap)-float64(info.Freeswap), float64(info.Totalswap))
			},
		})
	}
	return list, nil
}

func ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
