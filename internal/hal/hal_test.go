package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dir  int
		duty uint8
		want DriveSignal
	}{
		{"forward", 1, 200, DriveSignal{In1: true, In2: false, Duty: 200}},
		{"backward", -1, 150, DriveSignal{In1: false, In2: true, Duty: 150}},
		{"coast", 0, 0, DriveSignal{}},
		{"coast keeps duty", 0, 10, DriveSignal{Duty: 10}},
		{"large dir clamps forward", 5, 1, DriveSignal{In1: true, Duty: 1}},
		{"large dir clamps backward", -5, 1, DriveSignal{In2: true, Duty: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Drive(tt.dir, tt.duty))
		})
	}
}

func TestSimKeypad(t *testing.T) {
	t.Parallel()

	k := &SimKeypad{}
	if _, ok := k.Poll(); ok {
		t.Fatal("empty keypad reported a key")
	}

	k.Press('A', '5')
	key, ok := k.Poll()
	assert.True(t, ok)
	assert.Equal(t, byte('A'), key)
	key, ok = k.Poll()
	assert.True(t, ok)
	assert.Equal(t, byte('5'), key)
	_, ok = k.Poll()
	assert.False(t, ok)
}

func TestSimRFIDReader(t *testing.T) {
	t.Parallel()

	r := &SimRFIDReader{}
	if _, ok := r.Poll(); ok {
		t.Fatal("empty reader reported a tag")
	}

	r.Scan([]byte{0xDE, 0xAD})
	uid, ok := r.Poll()
	assert.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD}, uid)
	_, ok = r.Poll()
	assert.False(t, ok)
}

func TestSimDisplay(t *testing.T) {
	t.Parallel()

	d := &SimDisplay{}
	d.Display(0, "ROBOT ONLINE")
	d.Display(1, "BOX 1 OPEN")
	d.Display(7, "ignored") // out of range rows are dropped

	assert.Equal(t, "ROBOT ONLINE", d.Row(0))
	assert.Equal(t, "BOX 1 OPEN", d.Row(1))
	assert.Empty(t, d.Row(7))

	d.Clear()
	assert.Empty(t, d.Row(0))
	assert.Equal(t, 1, d.Clears())
}
