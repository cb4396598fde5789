package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/courierbotics/trundle/internal/monitoring"
)

// The Linux implementations drive hardware through the kernel's sysfs GPIO
// and PWM interfaces and the auxdisplay charlcd device. Pins and channels
// must already be exported and configured by the boot scripts; this code
// only reads and writes value files, so every call stays non-blocking
// enough for the control cycle.

// GPIOPin is one exported sysfs GPIO line.
type GPIOPin struct {
	valuePath string
}

// NewGPIOPin returns a pin backed by /sys/class/gpio/gpio<n>/value.
func NewGPIOPin(n int) *GPIOPin {
	return &GPIOPin{valuePath: fmt.Sprintf("/sys/class/gpio/gpio%d/value", n)}
}

// Set drives the line high or low.
func (p *GPIOPin) Set(high bool) {
	v := []byte("0")
	if high {
		v = []byte("1")
	}
	if err := os.WriteFile(p.valuePath, v, 0o644); err != nil {
		monitoring.Log.Error().Err(err).Str("pin", p.valuePath).Msg("gpio write failed")
	}
}

// Get reads the line level.
func (p *GPIOPin) Get() bool {
	data, err := os.ReadFile(p.valuePath)
	if err != nil {
		monitoring.Log.Error().Err(err).Str("pin", p.valuePath).Msg("gpio read failed")
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// PWMChannel is one exported sysfs PWM channel.
type PWMChannel struct {
	dir      string
	periodNs int
}

// NewPWMChannel returns a channel backed by
// /sys/class/pwm/pwmchip<chip>/pwm<channel> with the given period.
func NewPWMChannel(chip, channel, periodNs int) *PWMChannel {
	return &PWMChannel{
		dir:      fmt.Sprintf("/sys/class/pwm/pwmchip%d/pwm%d", chip, channel),
		periodNs: periodNs,
	}
}

// SetDutyNs writes the duty cycle in nanoseconds.
func (c *PWMChannel) SetDutyNs(ns int) {
	path := filepath.Join(c.dir, "duty_cycle")
	if err := os.WriteFile(path, []byte(strconv.Itoa(ns)), 0o644); err != nil {
		monitoring.Log.Error().Err(err).Str("pwm", path).Msg("pwm write failed")
	}
}

// SetDuty scales an 8-bit duty value onto the channel period.
func (c *PWMChannel) SetDuty(duty uint8) {
	c.SetDutyNs(c.periodNs * int(duty) / 255)
}

// LinuxMotorDriver drives an L298N: two direction pins and one PWM enable
// channel per side.
type LinuxMotorDriver struct {
	LeftIn1, LeftIn2   *GPIOPin
	RightIn1, RightIn2 *GPIOPin
	LeftEn, RightEn    *PWMChannel
}

// Apply implements MotorDriver.
func (d *LinuxMotorDriver) Apply(left, right DriveSignal) {
	d.LeftIn1.Set(left.In1)
	d.LeftIn2.Set(left.In2)
	d.LeftEn.SetDuty(left.Duty)

	d.RightIn1.Set(right.In1)
	d.RightIn2.Set(right.In2)
	d.RightEn.SetDuty(right.Duty)
}

// Standard hobby-servo pulse widths for the lock arm positions, on a 20ms
// PWM period.
const (
	ServoPeriodNs   = 20_000_000
	servoLockedNs   = 1_500_000 // 90 degrees
	servoUnlockedNs = 1_000_000 // 0 degrees
)

// ServoLock actuates a lock servo on a PWM channel.
type ServoLock struct {
	ch *PWMChannel
}

// NewServoLock wraps a PWM channel as a Lock.
func NewServoLock(ch *PWMChannel) *ServoLock {
	return &ServoLock{ch: ch}
}

// Set implements Lock.
func (l *ServoLock) Set(locked bool) {
	if locked {
		l.ch.SetDutyNs(servoLockedNs)
	} else {
		l.ch.SetDutyNs(servoUnlockedNs)
	}
}

// SwitchSensor reads a door limit switch on a GPIO line. The switch is
// wired active-low with a pull-up: the line reads low while the door holds
// the switch pressed.
type SwitchSensor struct {
	pin *GPIOPin
}

// NewSwitchSensor wraps a GPIO pin as a DoorSensor.
func NewSwitchSensor(pin *GPIOPin) *SwitchSensor {
	return &SwitchSensor{pin: pin}
}

// Closed implements DoorSensor.
func (s *SwitchSensor) Closed() bool {
	return !s.pin.Get()
}

// CharLCD writes to a Linux auxdisplay character LCD (/dev/lcd). Writes
// are serialized; the device driver handles timing.
type CharLCD struct {
	mu   sync.Mutex
	path string
}

// NewCharLCD returns a display backed by the given device node.
func NewCharLCD(path string) *CharLCD {
	return &CharLCD{path: path}
}

// Display implements Display. Text is truncated to the 16-column panel.
func (d *CharLCD) Display(row int, text string) {
	if len(text) > 16 {
		text = text[:16]
	}
	// charlcd cursor addressing: ESC [ y;x H
	d.write(fmt.Sprintf("\x1b[%d;0H%-16s", row, text))
}

// Clear implements Display.
func (d *CharLCD) Clear() {
	// form feed clears and homes
	d.write("\f")
}

func (d *CharLCD) write(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		monitoring.Log.Error().Err(err).Str("lcd", d.path).Msg("lcd open failed")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		monitoring.Log.Error().Err(err).Str("lcd", d.path).Msg("lcd write failed")
	}
}
