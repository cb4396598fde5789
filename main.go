// Command trundle is the control daemon for the trundle delivery robot: it
// receives ASCII line commands from the host controller over a serial
// link, drives the wheel motors and compartment locks, and reports sensor
// and state transitions back over the same link.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/courierbotics/trundle/internal/api"
	"github.com/courierbotics/trundle/internal/box"
	"github.com/courierbotics/trundle/internal/core"
	"github.com/courierbotics/trundle/internal/dispatch"
	"github.com/courierbotics/trundle/internal/hal"
	"github.com/courierbotics/trundle/internal/monitoring"
	"github.com/courierbotics/trundle/internal/motor"
	"github.com/courierbotics/trundle/internal/protocol"
	"github.com/courierbotics/trundle/internal/serialmux"
	"github.com/courierbotics/trundle/internal/telemetry"
	"github.com/courierbotics/trundle/internal/timeutil"
	"github.com/courierbotics/trundle/internal/version"
	"github.com/courierbotics/trundle/internal/watchdog"
)

var (
	devMode    = flag.Bool("dev", false, "Run with a mock serial port and simulated hardware")
	portPath   = flag.String("port", "/dev/ttyAMA0", "Serial port for the host link (ignored in dev mode)")
	listen     = flag.String("listen", ":8080", "Debug HTTP listen address (empty disables)")
	mqttBroker = flag.String("mqtt-broker", "", "MQTT broker URL for event mirroring (empty disables)")
	robotID    = flag.String("robot-id", "trundle-0", "Robot identity used in telemetry topics")
)

// Board wiring. These mirror the robot's schematic and are not
// configurable at runtime.
const (
	pinMotorL1, pinMotorL2 = 22, 23
	pinMotorR1, pinMotorR2 = 24, 25
	pwmChipMotors          = 0
	pwmMotorLeft           = 0
	pwmMotorRight          = 1
	motorPWMPeriodNs       = 50_000 // 20 kHz, above audible whine

	pwmChipServos = 1
	pwmServoBox1  = 0
	pwmServoBox2  = 1

	pinLimitBox1 = 40
	pinLimitBox2 = 41

	lcdDevice = "/dev/lcd"
)

// peripherals bundles the hardware handed to the control core.
type peripherals struct {
	driver  hal.MotorDriver
	locks   []hal.Lock
	sensors []hal.DoorSensor
	display hal.Display
	keypad  hal.Keypad
	rfid    hal.RFIDReader
}

func simPeripherals() peripherals {
	return peripherals{
		driver:  &hal.SimMotorDriver{},
		locks:   []hal.Lock{&hal.SimLock{}, &hal.SimLock{}},
		sensors: []hal.DoorSensor{hal.NewSimDoorSensor(true), hal.NewSimDoorSensor(true)},
		display: &hal.SimDisplay{},
		keypad:  &hal.SimKeypad{},
		rfid:    &hal.SimRFIDReader{},
	}
}

func boardPeripherals() peripherals {
	return peripherals{
		driver: &hal.LinuxMotorDriver{
			LeftIn1:  hal.NewGPIOPin(pinMotorL1),
			LeftIn2:  hal.NewGPIOPin(pinMotorL2),
			RightIn1: hal.NewGPIOPin(pinMotorR1),
			RightIn2: hal.NewGPIOPin(pinMotorR2),
			LeftEn:   hal.NewPWMChannel(pwmChipMotors, pwmMotorLeft, motorPWMPeriodNs),
			RightEn:  hal.NewPWMChannel(pwmChipMotors, pwmMotorRight, motorPWMPeriodNs),
		},
		locks: []hal.Lock{
			hal.NewServoLock(hal.NewPWMChannel(pwmChipServos, pwmServoBox1, hal.ServoPeriodNs)),
			hal.NewServoLock(hal.NewPWMChannel(pwmChipServos, pwmServoBox2, hal.ServoPeriodNs)),
		},
		sensors: []hal.DoorSensor{
			hal.NewSwitchSensor(hal.NewGPIOPin(pinLimitBox1)),
			hal.NewSwitchSensor(hal.NewGPIOPin(pinLimitBox2)),
		},
		display: hal.NewCharLCD(lcdDevice),
		// Keypad and RFID hang off the host controller on current
		// hardware revisions, so the board build polls neither.
		keypad: nil,
		rfid:   nil,
	}
}

func main() {
	flag.Parse()

	log := monitoring.Log
	log.Info().
		Str("version", version.Version).
		Str("git_sha", version.GitSHA).
		Bool("dev", *devMode).
		Msg("trundle control daemon starting")

	// serial link to the host
	var mux *serialmux.SerialMux
	if *devMode {
		mux = serialmux.New(serialmux.NewMockPort())
		log.Info().Msg("dev mode: mock serial port, inject commands via the debug API")
	} else {
		var err error
		mux, err = serialmux.Open(*portPath)
		if err != nil {
			log.Fatal().Err(err).Str("port", *portPath).Msg("failed to open serial port")
		}
	}
	defer mux.Close()

	// outbound path: serial first, then observers
	broadcast := serialmux.NewBroadcaster()
	defer broadcast.Close()
	sender := protocol.MultiSender{
		protocol.SenderFunc(func(line string) {
			if err := mux.Send(line); err != nil {
				log.Error().Err(err).Msg("serial write failed")
			}
		}),
		broadcast,
	}

	if *mqttBroker != "" {
		pub, err := telemetry.Connect(*mqttBroker, *robotID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect telemetry")
		}
		defer pub.Close()
		sender = append(sender, pub)
		log.Info().Str("broker", *mqttBroker).Msg("mirroring events to MQTT")
	}

	// control core
	var hw peripherals
	if *devMode {
		hw = simPeripherals()
	} else {
		hw = boardPeripherals()
	}
	clock := timeutil.RealClock{}

	motors := motor.NewController(hw.driver, sender)
	boxes := box.NewManager(hw.locks, hw.sensors, sender)
	dog := watchdog.NewMonitor(motors, hw.display, sender, clock.Now())
	loop := core.NewLoop(core.Config{
		Clock:      clock,
		Motors:     motors,
		Boxes:      boxes,
		Watchdog:   dog,
		Dispatcher: dispatch.New(motors, boxes, hw.display, sender),
		Display:    hw.display,
		Keypad:     hw.keypad,
		RFID:       hw.rfid,
		Sender:     sender,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// serial reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("serial monitor failed")
			stop()
		}
		log.Info().Msg("serial monitor stopped")
	}()

	// feed inbound lines to the single-consumer core channel
	id, lines := mux.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer mux.Unsubscribe(id)
		loop.Pump(ctx, lines)
	}()

	// control cycle
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("control loop failed")
		}
		log.Info().Msg("control loop stopped")
	}()

	// debug HTTP surface
	if *listen != "" {
		server := &http.Server{
			Addr:    *listen,
			Handler: api.NewServer(loop, broadcast).Router(),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("debug server failed")
					stop()
				}
			}()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("debug server shutdown error")
			}
			log.Info().Msg("debug server stopped")
		}()
	}

	wg.Wait()
	log.Info().Msg("shutdown complete")
}
