package shutter

import (
	"time"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/gpio"
)

// BuzzerGPIO is a Cue implementation for a piezo buzzer wired to a
// single GPIO pin:
// - GND: connected to Raspberry Pi ground
// - SIGNAL: buzzer line, clicks while HIGH
//
// Cue sequence:
// 1. SIGNAL to HIGH (buzzer on)
// 2. Hold for the pulse duration
// 3. SIGNAL back to LOW
type BuzzerGPIO struct {
	gpio  gpio.Driver
	pin   int
	pulse time.Duration // buzzer hold time
}

// NewBuzzerGPIO creates a GPIO-driven shutter cue.
// pin is the GPIO pin number for the buzzer SIGNAL line.
// pulse is how long the buzzer stays on per cue.
func NewBuzzerGPIO(g gpio.Driver, pin int, pulse time.Duration) *BuzzerGPIO {
	// Configure pin as output, idle LOW (silent)
	_ = g.SetupPin(pin, gpio.Output)
	_ = g.WritePin(pin, gpio.Low)

	if pulse <= 0 {
		pulse = 50 * time.Millisecond
	}

	return &BuzzerGPIO{
		gpio:  g,
		pin:   pin,
		pulse: pulse,
	}
}

// Play emits one shutter click.
// Sequence: SIGNAL -> hold -> release
func (b *BuzzerGPIO) Play() error {
	debug.Printf("Shutter cue: pulsing buzzer (pin %d, %v)", b.pin, b.pulse)

	// 1. Buzzer on
	debug.Verbose("Shutter cue: SIGNAL pin %d -> HIGH", b.pin)
	if err := b.gpio.WritePin(b.pin, gpio.High); err != nil {
		return err
	}

	// 2. Hold
	time.Sleep(b.pulse)

	// 3. Buzzer off
	debug.Verbose("Shutter cue: SIGNAL pin %d -> LOW", b.pin)
	if err := b.gpio.WritePin(b.pin, gpio.Low); err != nil {
		return err
	}

	debug.Print("Shutter cue: done")
	return nil
}
