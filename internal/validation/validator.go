package validation

import (
	"errors"
	"strings"

	"github.com/fwdaemon/devregistry/pkg/core"
)

// ErrEmptyDeviceID is returned when a Device's ID() is blank.
var ErrEmptyDeviceID = errors.New("device ID cannot be empty")

// ValidateDevice guards Registry.Add and Registry.Remove against
// contract-violating input: a nil Device, or one whose ID() is blank. Both
// are treated as caller bugs (the Go equivalent of the C source's
// g_return_if_fail) rather than as errors the registry propagates.
func ValidateDevice(device core.Device) error {
	if device == nil {
		return core.ErrInvalidDevice
	}
	if strings.TrimSpace(device.ID()) == "" {
		return ErrEmptyDeviceID
	}
	return nil
}
