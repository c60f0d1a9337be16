// Command motor-test runs a scripted wheel routine against the motor
// HAT. The default motor-test move exercises both wheels in each
// direction; pass --mock to check a move's shape without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-jetbot/internal/config"
	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/motion"
	"github.com/teslashibe/go-jetbot/pkg/motor"
)

func main() {
	i2cBus := flag.Int("i2c-bus", config.I2CBus(), "I2C bus for the motor HAT")
	move := flag.String("move", "motor-test", "Routine to run")
	mock := flag.Bool("mock", false, "Use a mock motor driver (no HAT)")
	list := flag.Bool("list", false, "List routines and exit")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log.Init(*logLevel)

	var driver motor.Driver
	if *mock {
		driver = motor.NewMockDriver()
	} else {
		hat, err := motor.OpenHAT(*i2cBus, motor.DefaultHATAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open motor HAT on bus %d: %v\n", *i2cBus, err)
			fmt.Fprintln(os.Stderr, "(use --mock to run without hardware)")
			os.Exit(1)
		}
		driver = hat
	}
	robot := motor.NewRobot(driver)
	defer robot.Close()

	player := motion.NewPlayer(robot)

	if *list {
		for _, name := range player.Names() {
			fmt.Println(name)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Stopping...")
		cancel()
	}()

	fmt.Printf("⚙️  Running %q (Ctrl-C to stop)\n", *move)
	if err := player.Play(ctx, *move); err != nil {
		fmt.Fprintf(os.Stderr, "play %q: %v\n", *move, err)
		os.Exit(1)
	}
	fmt.Println("✅ Done - wheels at rest")
}
