package validation

import (
	"errors"
	"testing"

	"github.com/fwdaemon/devregistry/pkg/core"
)

func TestValidateDeviceRejectsNil(t *testing.T) {
	if err := ValidateDevice(nil); !errors.Is(err, core.ErrInvalidDevice) {
		t.Fatalf("err = %v, want core.ErrInvalidDevice", err)
	}
}

func TestValidateDeviceRejectsBlankID(t *testing.T) {
	d := core.NewSimpleDevice("   ")
	if err := ValidateDevice(d); !errors.Is(err, ErrEmptyDeviceID) {
		t.Fatalf("err = %v, want ErrEmptyDeviceID", err)
	}
}

func TestValidateDeviceAccepts(t *testing.T) {
	d := core.NewSimpleDevice("abc")
	if err := ValidateDevice(d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
