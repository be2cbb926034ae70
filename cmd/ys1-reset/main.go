// ys1-reset resets YardStick One devices to recover from USB errors
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"github.com/herlein/ookclone/pkg/yardstick"
)

func main() {
	attempts := pflag.IntP("attempts", "n", 3, "Enumeration attempts before giving up")
	pflag.Parse()

	ctx := gousb.NewContext()
	defer ctx.Close()

	// A wedged device can drop off the bus briefly after a failed transfer.
	for attempt := 1; attempt <= *attempts; attempt++ {
		results, err := yardstick.ResetAll(ctx)
		if err != nil {
			if errors.Is(err, yardstick.ErrNoDevice) {
				fmt.Printf("Attempt %d: No devices found\n", attempt)
			} else {
				fmt.Printf("Attempt %d: Error finding devices: %v\n", attempt, err)
			}
			time.Sleep(time.Second)
			continue
		}

		failed := 0
		fmt.Printf("Found %d device(s)\n", len(results))
		for i, r := range results {
			fmt.Printf("  Device %d: %s\n", i, r.Serial)
			if r.Err != nil {
				fmt.Printf("    Reset failed: %v\n", r.Err)
				failed++
			} else {
				fmt.Printf("    Reset OK\n")
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	fmt.Printf("Failed to find/reset devices after %d attempts\n", *attempts)
	os.Exit(1)
}
