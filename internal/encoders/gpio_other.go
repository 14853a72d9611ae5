//go:build !linux

package encoders

import (
	"context"
	"errors"

	"github.com/markusressel/pace2go/internal/configuration"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// GpioDriver is not available on non-Linux platforms.
type GpioDriver struct{}

func NewGpioDriver(configuration.HardwareConfig, map[Source]int) (*GpioDriver, error) {
	return nil, errUnsupported
}

func (d *GpioDriver) Run(ctx context.Context, sink Sink) error {
	return errUnsupported
}

func (d *GpioDriver) Positions() map[Source]int {
	return map[Source]int{}
}

func (d *GpioDriver) Close() error {
	return nil
}

func DetectChips() ([]ChipInfo, error) {
	return nil, errUnsupported
}
