// Package hal defines the hardware access interfaces consumed by the
// control core, plus simulated implementations for dev mode and tests.
//
// The core never touches pins directly: motor H-bridge, lock servos, door
// switches, display, keypad and RFID reader are all reached through these
// interfaces so the whole control loop runs unmodified against simulated
// hardware.
package hal

// DriveSignal is the pin-level output for one side of an L298N H-bridge:
// two direction pins and a PWM duty on the enable pin.
type DriveSignal struct {
	In1  bool
	In2  bool
	Duty uint8
}

// Drive maps a logical direction to H-bridge pin levels:
// 1 drives forward (IN1 high, IN2 low), -1 backward, 0 coasts (both low).
func Drive(dir int, duty uint8) DriveSignal {
	switch {
	case dir > 0:
		return DriveSignal{In1: true, In2: false, Duty: duty}
	case dir < 0:
		return DriveSignal{In1: false, In2: true, Duty: duty}
	}
	return DriveSignal{Duty: duty}
}

// MotorDriver applies pin states for both wheels. Apply must not block;
// implementations write registers or memory only.
type MotorDriver interface {
	Apply(left, right DriveSignal)
}

// Lock actuates one compartment's lock servo.
type Lock interface {
	Set(locked bool)
}

// DoorSensor reports one compartment's door switch level.
type DoorSensor interface {
	// Closed returns true while the door is shut against the limit switch.
	Closed() bool
}

// Display is the character LCD consumed as a pass-through collaborator.
type Display interface {
	Display(row int, text string)
	Clear()
}

// Keypad yields at most one key per poll.
type Keypad interface {
	Poll() (byte, bool)
}

// RFIDReader yields at most one tag UID per poll.
type RFIDReader interface {
	Poll() ([]byte, bool)
}
