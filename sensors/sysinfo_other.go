//go:build !linux

package sensors

import (
	"errors"
	"fmt"
	"runtime"
)

func FindHostSensors() ([]Sensor, error) {
	return nil, fmt.Errorf("host sensors on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}
