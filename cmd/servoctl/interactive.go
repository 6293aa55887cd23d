package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/perchbot/go-gimbal/pkg/maestro"
)

func interactiveCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Drive servos from a prompt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.open(); err != nil {
				return err
			}
			defer st.close()

			return runConsole(cmd.Context(), st)
		},
	}
}

const consoleUsage = `Commands:
  test <channel>            forward/stop/reverse/stop sweep
  rotate <channel> <speed>  signed speed in [-1, 1], zero stops
  stop <channel>            stop one channel
  stop_all [channels]       sweep every channel to neutral (default 24)
  status <channel>          position readback (serial transport)
  help                      show this help
  quit                      exit`

// runConsole reads commands from stdin until quit, EOF or Ctrl+C.
func runConsole(ctx context.Context, st *cliState) error {
	fmt.Println("🔧 Servo console. 'help' lists commands, 'quit' exits.")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			// Ctrl+C: park everything before leaving
			fmt.Println("\n🛑 Interrupted, stopping all channels")
			st.driver.StopAll(context.Background(), 0)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil // EOF
			}
			if quit := dispatch(ctx, st, line); quit {
				return nil
			}
		}
	}
}

// dispatch runs one console line. Bad input never ends the session;
// it prints the usage text and keeps going.
func dispatch(ctx context.Context, st *cliState, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "help":
		fmt.Println(consoleUsage)

	case "quit", "exit":
		return true

	case "test":
		var channel int
		if channel, err = consoleChannel(fields); err == nil {
			err = st.runSweep(ctx, channel)
		}

	case "rotate":
		if len(fields) != 3 {
			err = fmt.Errorf("usage: rotate <channel> <speed>")
			break
		}
		var channel int
		var speed float64
		if channel, err = parseInt("channel", fields[1]); err != nil {
			break
		}
		if speed, err = strconv.ParseFloat(fields[2], 64); err != nil {
			err = fmt.Errorf("speed must be a number in [-1, 1], got %q", fields[2])
			break
		}
		var res maestro.CommandResult
		if res, err = st.rotate(ctx, channel, speed); err == nil {
			st.report(fmt.Sprintf("channel %d @ %+.2f", channel, speed), res)
		}

	case "stop":
		var channel int
		if channel, err = consoleChannel(fields); err == nil {
			var res maestro.CommandResult
			if res, err = st.driver.Stop(ctx, channel); err == nil {
				st.report(fmt.Sprintf("channel %d stop", channel), res)
			}
		}

	case "stop_all":
		channels := 0
		if len(fields) > 1 {
			if channels, err = parseInt("channels", fields[1]); err != nil {
				break
			}
		}
		err = st.stopAll(ctx, channels)

	case "status":
		var channel int
		if channel, err = consoleChannel(fields); err == nil {
			err = st.printStatus(ctx, channel)
		}

	default:
		fmt.Printf("unknown command %q\n", fields[0])
		fmt.Println(consoleUsage)
	}

	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	return false
}

func consoleChannel(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <channel>", fields[0])
	}
	return parseInt("channel", fields[1])
}
