package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/perchbot/go-gimbal/pkg/maestro"
)

// cliState carries the persistent flag values and the opened driver
// shared by every subcommand.
type cliState struct {
	device  string
	port    string
	baud    int
	profile string
	timeout time.Duration
	strict  bool
	verbose bool

	driver *maestro.Driver
	serial *maestro.Serial // set when the serial transport is active
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	cmd := &cobra.Command{
		Use:          "servoctl",
		Short:        "Manual Pololu Maestro servo control",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&st.device, "device", "", "UscCmd device serial number (when several Maestros are attached)")
	pf.StringVar(&st.port, "serial", "", "serial port path, switches to the compact serial protocol")
	pf.IntVar(&st.baud, "baud", 9600, "baud rate for the serial transport")
	pf.StringVar(&st.profile, "profile", "standard", "servo profile: standard or fs90r")
	pf.DurationVar(&st.timeout, "timeout", maestro.DefaultTimeout, "per-command timeout (usccmd transport)")
	pf.BoolVar(&st.strict, "strict", false, "turn device failures into errors")
	pf.BoolVar(&st.verbose, "verbose", false, "print full results, not just ok")

	cmd.AddCommand(
		targetCmd(st),
		rotateCmd(st),
		stopCmd(st),
		stopAllCmd(st),
		testCmd(st),
		statusCmd(st),
		interactiveCmd(st),
	)
	return cmd
}

// open builds the driver from the persistent flags. Subcommands call
// this at the top of RunE so `servoctl help` never touches hardware.
func (s *cliState) open() error {
	profile, err := maestro.ProfileByName(s.profile)
	if err != nil {
		return err
	}

	var backend maestro.Backend
	if s.port != "" {
		serial, err := maestro.OpenSerial(s.port, s.baud)
		if err != nil {
			return err
		}
		s.serial = serial
		backend = serial
	} else {
		opts := []maestro.UscCmdOption{maestro.WithTimeout(s.timeout)}
		if s.device != "" {
			opts = append(opts, maestro.WithDevice(s.device))
		}
		backend = maestro.NewUscCmd(opts...)
	}

	s.driver = maestro.NewDriver(backend, maestro.WithProfile(profile), maestro.WithStrict(s.strict))
	return nil
}

func (s *cliState) close() {
	if s.driver != nil {
		s.driver.Close()
	}
}

// report prints one actuation outcome. Successes stay short unless
// --verbose asks for timings.
func (s *cliState) report(label string, res maestro.CommandResult) {
	if res.OK() && !s.verbose {
		fmt.Printf("%s: ok\n", label)
		return
	}
	fmt.Printf("%s: %s\n", label, res.String())
}

// rotate maps a signed speed onto the driver's direction API.
// Zero stops the channel.
func (s *cliState) rotate(ctx context.Context, channel int, speed float64) (maestro.CommandResult, error) {
	switch {
	case speed > 0:
		return s.driver.Move(ctx, channel, maestro.Forward, speed)
	case speed < 0:
		return s.driver.Move(ctx, channel, maestro.Reverse, -speed)
	default:
		return s.driver.Stop(ctx, channel)
	}
}

// printStatus reads back position and motion state over serial.
func (s *cliState) printStatus(ctx context.Context, channel int) error {
	if s.serial == nil {
		return fmt.Errorf("status needs the serial transport (use --serial <port>)")
	}

	pos, err := s.serial.GetPosition(ctx, channel)
	if err != nil {
		return err
	}
	moving, err := s.serial.IsMoving(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("channel %d: position %d (%.1f µs), device moving: %v\n",
		channel, pos, float64(pos)/4, moving)
	return nil
}
