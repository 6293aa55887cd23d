package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/perchbot/go-gimbal/pkg/maestro"
)

func targetCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "target <channel> <value>",
		Short: "Send a raw set-target in quarter-microseconds (0 turns the channel off)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := parseInt("channel", args[0])
			if err != nil {
				return err
			}
			target, err := parseInt("target", args[1])
			if err != nil {
				return err
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			res, err := st.driver.SetTarget(cmd.Context(), channel, target)
			if err != nil {
				return err
			}
			st.report(fmt.Sprintf("channel %d → %d", channel, target), res)
			return nil
		},
	}
}

func rotateCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <channel> <speed>",
		Short: "Rotate a channel at a signed speed in [-1, 1]",
		Long:  "Positive speeds rotate forward, negative reverse, zero stops the channel.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := parseInt("channel", args[0])
			if err != nil {
				return err
			}
			speed, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("speed must be a number in [-1, 1], got %q", args[1])
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			res, err := st.rotate(cmd.Context(), channel, speed)
			if err != nil {
				return err
			}
			st.report(fmt.Sprintf("channel %d @ %+.2f", channel, speed), res)
			return nil
		},
	}
}

func stopCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <channel>",
		Short: "Stop one channel at neutral",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := parseInt("channel", args[0])
			if err != nil {
				return err
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			res, err := st.driver.Stop(cmd.Context(), channel)
			if err != nil {
				return err
			}
			st.report(fmt.Sprintf("channel %d stop", channel), res)
			return nil
		},
	}
}

func stopAllCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all [channels]",
		Short: "Sweep every channel to neutral (default width 24)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channels := 0 // the driver substitutes the full width
			if len(args) == 1 {
				var err error
				channels, err = parseInt("channels", args[0])
				if err != nil {
					return err
				}
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			return st.stopAll(cmd.Context(), channels)
		},
	}
}

func (s *cliState) stopAll(ctx context.Context, channels int) error {
	results := s.driver.StopAll(ctx, channels)

	failed := 0
	for i, res := range results {
		if !res.OK() {
			failed++
			fmt.Printf("channel %d: %s\n", i, res.String())
		} else if s.verbose {
			fmt.Printf("channel %d: %s\n", i, res.String())
		}
	}

	fmt.Printf("🛑 Stopped %d channels (%d failed)\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d channels failed to stop", failed, len(results))
	}
	return nil
}

func testCmd(st *cliState) *cobra.Command {
	var fs90r bool

	cmd := &cobra.Command{
		Use:   "test <channel>",
		Short: "Run a motion test sequence on one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := parseInt("channel", args[0])
			if err != nil {
				return err
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			if fs90r {
				return st.runStaircase(cmd.Context(), channel)
			}
			return st.runSweep(cmd.Context(), channel)
		},
	}
	cmd.Flags().BoolVar(&fs90r, "fs90r", false, "run the FS90R calibration staircase instead of the basic sweep")
	return cmd
}

func statusCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status <channel>",
		Short: "Read back position and motion state (serial transport only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := parseInt("channel", args[0])
			if err != nil {
				return err
			}

			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			return st.printStatus(cmd.Context(), channel)
		},
	}
}

// testStep is one entry in a scripted motion sequence. A Stop
// direction parks the channel; hold is how long to sit in the state.
type testStep struct {
	label string
	dir   maestro.Direction
	speed float64
	hold  time.Duration
}

// runSweep is the basic forward/stop/reverse/stop check.
func (s *cliState) runSweep(ctx context.Context, channel int) error {
	fmt.Printf("🔧 Testing channel %d\n", channel)
	return s.runSteps(ctx, channel, []testStep{
		{label: "forward 50%", dir: maestro.Forward, speed: 0.5, hold: time.Second},
		{label: "stop", dir: maestro.Stop, hold: 500 * time.Millisecond},
		{label: "reverse 50%", dir: maestro.Reverse, speed: 0.5, hold: time.Second},
		{label: "stop", dir: maestro.Stop},
	})
}

// runStaircase steps through both directions at increasing speeds,
// which makes an FS90R's dead band and drift easy to spot.
func (s *cliState) runStaircase(ctx context.Context, channel int) error {
	fmt.Printf("🔧 FS90R staircase on channel %d\n", channel)

	var steps []testStep
	for _, dir := range []maestro.Direction{maestro.Forward, maestro.Reverse} {
		for _, speed := range []float64{0.25, 0.50, 0.75, 1.00} {
			steps = append(steps,
				testStep{
					label: fmt.Sprintf("%s %.0f%%", dir, speed*100),
					dir:   dir,
					speed: speed,
					hold:  time.Second,
				},
				testStep{label: "stop", dir: maestro.Stop, hold: 300 * time.Millisecond},
			)
		}
	}
	return s.runSteps(ctx, channel, steps)
}

func (s *cliState) runSteps(ctx context.Context, channel int, steps []testStep) error {
	// Whatever happens below, leave the servo parked
	defer s.driver.Stop(context.Background(), channel)

	for _, step := range steps {
		var res maestro.CommandResult
		var err error
		if step.dir == maestro.Stop {
			res, err = s.driver.Stop(ctx, channel)
		} else {
			res, err = s.driver.Move(ctx, channel, step.dir, step.speed)
		}
		if err != nil {
			return err
		}
		s.report("  "+step.label, res)

		if step.hold > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step.hold):
			}
		}
	}

	fmt.Println("✅ Sequence complete")
	return nil
}

func parseInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
