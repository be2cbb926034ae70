// ook-devices: list radios and GPIO chips, dump and restore radio registers
//
// Without flags every connected YardStick One is listed. -v adds firmware and
// chip details plus the tuning currently programmed. --dump writes the
// register file of the selected device to YAML and --load writes one back.
package main

import (
	"fmt"
	"os"

	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"github.com/herlein/ookclone/pkg/config"
	"github.com/herlein/ookclone/pkg/gpio"
	"github.com/herlein/ookclone/pkg/registers"
	"github.com/herlein/ookclone/pkg/yardstick"
)

func main() {
	verbose := pflag.BoolP("verbose", "v", false, "Show firmware, chip and tuning details")
	deviceSel := pflag.StringP("device", "d", "", "YardStick selector for --dump and --load")
	dump := pflag.Bool("dump", false, "Dump the selected device's registers")
	output := pflag.StringP("output", "o", "", "Dump path (default etc/yardsticks/<serial>.yaml, - for stdout)")
	load := pflag.String("load", "", "Write a dumped register file to the selected device")
	chips := pflag.Bool("gpio", false, "List GPIO chips")
	pflag.Parse()

	if *chips {
		listChips()
		return
	}

	usb := gousb.NewContext()
	defer usb.Close()

	switch {
	case *dump:
		os.Exit(dumpDevice(usb, *deviceSel, *output, *verbose))
	case *load != "":
		os.Exit(loadDevice(usb, *deviceSel, *load))
	}

	devices, err := yardstick.FindAllDevices(usb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate devices: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No YardStick One devices found")
		return
	}

	fmt.Printf("Found %d YardStick One device(s):\n", len(devices))
	fmt.Println()

	for i, device := range devices {
		defer device.Close()

		if !*verbose {
			fmt.Printf("  #%d  %s  %d:%d\n", i, device.Serial, device.Bus, device.Address)
			continue
		}

		fmt.Printf("Device #%d:\n", i)
		fmt.Printf("  Serial:       %s\n", device.Serial)
		fmt.Printf("  Bus:Address:  %d:%d\n", device.Bus, device.Address)
		fmt.Printf("  Manufacturer: %s\n", device.Manufacturer)
		fmt.Printf("  Product:      %s\n", device.Product)

		if buildType, err := device.BuildType(); err == nil {
			fmt.Printf("  Firmware:     %s\n", buildType)
		} else {
			fmt.Printf("  Firmware:     (error: %v)\n", err)
		}

		if partNum, err := device.PartNum(); err == nil {
			fmt.Printf("  Chip:         %s (0x%02X)\n", yardstick.ChipName(partNum), partNum)
		} else {
			fmt.Printf("  Chip:         (error: %v)\n", err)
		}

		if reg, err := registers.ReadAll(device); err == nil {
			printTuning(reg)
		} else {
			fmt.Printf("  Registers:    (error: %v)\n", err)
		}
		fmt.Println()
	}

	if !*verbose {
		fmt.Println()
		fmt.Println(yardstick.SelectorUsage)
	}
}

func printTuning(reg *registers.RegisterMap) {
	fmt.Printf("  Frequency:    %.3f MHz\n", registers.Frequency(reg)/1e6)
	fmt.Printf("  Modulation:   %s\n", modulationName(registers.Modulation(reg)))
	fmt.Printf("  State:        %s\n", registers.RadioState(reg.MARCSTATE&0x1F))
	if registers.PacketFormat(reg) == registers.PktFormatAsyncSerial {
		fmt.Printf("  Data:         async serial on GDO0 (IOCFG0=0x%02X)\n", reg.IOCFG0)
	}
}

func modulationName(mod uint8) string {
	switch mod {
	case registers.Mod2FSK:
		return "2-FSK"
	case registers.ModGFSK:
		return "GFSK"
	case registers.ModASKOOK:
		return "ASK/OOK"
	case registers.Mod4FSK:
		return "4-FSK"
	case registers.ModMSK:
		return "MSK"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", mod)
	}
}

func dumpDevice(usb *gousb.Context, selector, path string, verbose bool) int {
	device, err := yardstick.SelectDevice(usb, selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer device.Close()

	if err := device.Ping([]byte("PING")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Ping failed: %v\n", err)
		return 1
	}

	snap, err := config.Dump(device, device.Serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to dump registers: %v\n", err)
		return 1
	}

	if path == "-" {
		data, err := snap.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	if path == "" {
		path = config.SnapshotPath(device.Serial)
	}
	if err := config.SaveSnapshot(snap, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to save registers: %v\n", err)
		return 1
	}
	fmt.Printf("Registers saved to: %s\n", path)

	if verbose {
		printTuning(&snap.Registers)
	}
	return 0
}

func loadDevice(usb *gousb.Context, selector, path string) int {
	snap, err := config.LoadSnapshot(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	device, err := yardstick.SelectDevice(usb, selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer device.Close()

	if snap.Serial != "" && snap.Serial != device.Serial {
		fmt.Printf("Warning: %s was dumped from %s, writing to %s\n", path, snap.Serial, device.Serial)
	}

	if err := config.Apply(device, snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to write registers: %v\n", err)
		return 1
	}
	fmt.Printf("Registers from %s written to %s\n", path, device)
	return 0
}

func listChips() {
	names := gpio.Chips()
	if len(names) == 0 {
		fmt.Println("No GPIO chips found")
		return
	}
	fmt.Printf("Found %d GPIO chip(s):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}
