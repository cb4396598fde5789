package hal

import "sync"

// SimMotorDriver records every Apply call. It backs dev mode and the motor
// controller tests, standing in for the L298N.
type SimMotorDriver struct {
	mu      sync.Mutex
	left    DriveSignal
	right   DriveSignal
	applies int
}

// Apply implements MotorDriver.
func (d *SimMotorDriver) Apply(left, right DriveSignal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.left, d.right = left, right
	d.applies++
}

// Last returns the most recently applied signals.
func (d *SimMotorDriver) Last() (left, right DriveSignal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.left, d.right
}

// Applies returns how many times Apply has been called.
func (d *SimMotorDriver) Applies() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applies
}

// SimLock records the commanded lock state.
type SimLock struct {
	mu     sync.Mutex
	locked bool
	sets   int
}

// Set implements Lock.
func (l *SimLock) Set(locked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = locked
	l.sets++
}

// Locked returns the last commanded state.
func (l *SimLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Sets returns how many times Set has been called.
func (l *SimLock) Sets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sets
}

// SimDoorSensor is a scriptable door switch.
type SimDoorSensor struct {
	mu     sync.Mutex
	closed bool
}

// NewSimDoorSensor returns a sensor reading the given initial level.
func NewSimDoorSensor(closed bool) *SimDoorSensor {
	return &SimDoorSensor{closed: closed}
}

// Closed implements DoorSensor.
func (s *SimDoorSensor) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetClosed scripts the sensor level for the next polls.
func (s *SimDoorSensor) SetClosed(closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = closed
}

// SimDisplay records display calls.
type SimDisplay struct {
	mu     sync.Mutex
	rows   [2]string
	clears int
}

// Display implements Display.
func (d *SimDisplay) Display(row int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row >= 0 && row < len(d.rows) {
		d.rows[row] = text
	}
}

// Clear implements Display.
func (d *SimDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = [2]string{}
	d.clears++
}

// Row returns the text last written to a row.
func (d *SimDisplay) Row(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= len(d.rows) {
		return ""
	}
	return d.rows[row]
}

// Clears returns how many times Clear has been called.
func (d *SimDisplay) Clears() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// SimKeypad replays queued key presses, one per poll.
type SimKeypad struct {
	mu   sync.Mutex
	keys []byte
}

// Press queues key presses.
func (k *SimKeypad) Press(keys ...byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = append(k.keys, keys...)
}

// Poll implements Keypad.
func (k *SimKeypad) Poll() (byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.keys) == 0 {
		return 0, false
	}
	key := k.keys[0]
	k.keys = k.keys[1:]
	return key, true
}

// SimRFIDReader replays queued tag UIDs, one per poll.
type SimRFIDReader struct {
	mu   sync.Mutex
	uids [][]byte
}

// Scan queues a tag UID.
func (r *SimRFIDReader) Scan(uid []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uids = append(r.uids, uid)
}

// Poll implements RFIDReader.
func (r *SimRFIDReader) Poll() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.uids) == 0 {
		return nil, false
	}
	uid := r.uids[0]
	r.uids = r.uids[1:]
	return uid, true
}
