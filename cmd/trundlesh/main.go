// Command trundlesh is an interactive operator console for a trundle
// robot: it opens the host side of the serial command link, offers verbs
// for driving and compartment control, and prints robot events as they
// arrive.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"go.bug.st/serial"
)

var portPath = flag.String("port", "/dev/ttyUSB0", "Serial port connected to the robot")

func openPort(path string) (serial.Port, error) {
	return serial.Open(path, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

type console struct {
	port serial.Port
	echo bool
}

func (c *console) send(line string) {
	if _, err := c.port.Write([]byte(line + "\n")); err != nil {
		log.Printf("write failed: %v", err)
	}
}

// watch prints every line the robot sends. Runs for the life of the shell.
func (c *console) watch() {
	scan := bufio.NewScanner(c.port)
	for scan.Scan() {
		if c.echo {
			fmt.Printf("\r<< %s\n", scan.Text())
		}
	}
	if err := scan.Err(); err != nil {
		log.Printf("serial read failed: %v", err)
	}
}

// durationArg parses an optional trailing duration-ms argument.
func durationArg(args []string) string {
	if len(args) == 0 {
		return "0"
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return "0"
	}
	return args[0]
}

func main() {
	flag.Parse()

	port, err := openPort(*portPath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *portPath, err)
	}
	defer port.Close()

	c := &console{port: port, echo: true}
	go c.watch()

	shell := ishell.New()
	shell.Println("trundle console; type 'help' for commands")
	shell.SetPrompt(fmt.Sprintf("[%s] > ", *portPath))

	shell.AddCmd(&ishell.Cmd{
		Name: "fwd",
		Help: "drive forward: fwd [duration-ms]",
		Func: func(ctx *ishell.Context) {
			c.send("MOV:FWD:" + durationArg(ctx.Args))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "bck",
		Help: "drive backward: bck [duration-ms]",
		Func: func(ctx *ishell.Context) {
			c.send("MOV:BCK:" + durationArg(ctx.Args))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "immediate stop",
		Func: func(ctx *ishell.Context) {
			c.send("MOV:STP:0")
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "open",
		Help: "unlock a compartment: open <id>",
		Func: func(ctx *ishell.Context) {
			if len(ctx.Args) != 1 {
				ctx.Println("usage: open <id>")
				return
			}
			c.send("SRV:" + ctx.Args[0] + ":OPEN")
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "close",
		Help: "lock a compartment: close <id>",
		Func: func(ctx *ishell.Context) {
			if len(ctx.Args) != 1 {
				ctx.Println("usage: close <id>")
				return
			}
			c.send("SRV:" + ctx.Args[0] + ":CLOSE")
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "lcd",
		Help: "write the display: lcd <row> <text>, or lcd cls",
		Func: func(ctx *ishell.Context) {
			if len(ctx.Args) == 1 && strings.EqualFold(ctx.Args[0], "cls") {
				c.send("LCD:CLS:0")
				return
			}
			if len(ctx.Args) < 2 {
				ctx.Println("usage: lcd <row> <text> | lcd cls")
				return
			}
			c.send("LCD:" + ctx.Args[0] + ":" + strings.Join(ctx.Args[1:], " "))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "ping",
		Help: "liveness check, expect SYS:PONG",
		Func: func(ctx *ishell.Context) {
			c.send("SYS:PING:0")
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "send a raw protocol line verbatim",
		Func: func(ctx *ishell.Context) {
			if len(ctx.Args) == 0 {
				ctx.Println("usage: raw <line>")
				return
			}
			c.send(strings.Join(ctx.Args, " "))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "mute",
		Help: "toggle event echo",
		Func: func(ctx *ishell.Context) {
			c.echo = !c.echo
			ctx.Printf("echo %v\n", c.echo)
		},
	})

	shell.Run()
}
