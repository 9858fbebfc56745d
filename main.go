//go:build tinygo

package main

// WARNING: default -scheduler=cores unsupported, compile with -scheduler=tasks set!

import (
	"log/slog"
	"machine"
	"time"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/config"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/console"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/diag"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/ferry"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/flash"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/indicate"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/norfs"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/sdfs"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/softtimer"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/storage"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/version"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/xmodem"
)

// consoleTransport adapts the console UART to the XMODEM byte pipe.
type consoleTransport struct {
	con *console.Console
}

func (t consoleTransport) ReadFull(p []byte) error {
	return t.con.Receive(p)
}

func (t consoleTransport) WriteByte(b byte) error {
	return t.con.TransmitChar(b)
}

// powerGate switches the target flash board. The SPI peripheral is brought
// up and torn down with the rail: driven SPI pins would back-power the board
// through its inputs.
type powerGate struct{}

func (g *powerGate) SetPower(on bool) {
	if on {
		configureFlashSPI()
		pinFlashPower.High()
	} else {
		pinFlashPower.Low()
		releaseFlashSPI()
	}
}

func main() {
	// Reset cause must be read before anything reconfigures the power block.
	resetCause := diag.ClassifyReset(readResetFlags())

	time.Sleep(2 * time.Second) // Give time to connect to USB and monitor output.
	println("========================================")
	println("  FileFerry Click2Flash")
	println("  Version:", version.Version)
	println("  Git SHA:", version.GitSHA)
	println("  Built:  ", version.BuildDate)
	println("  Marker: ", version.BuildMarker)
	println("========================================")

	configurePins()

	uart := &console.UARTPort{UART: machine.UART0, Timeout: config.UARTTimeout()}
	con := console.New(uart)
	logger := console.NewLogger(con)
	slog.SetDefault(logger)

	// Software timer wheel on a 10 ms goroutine tick. Under the cooperative
	// tasks scheduler the tick only runs while the main loop sleeps or
	// blocks, which is the same preemption window the hardware tick had.
	timers := softtimer.New(nil)
	go func() {
		for {
			time.Sleep(softtimer.TickMS * time.Millisecond)
			timers.Tick()
		}
	}()

	ind := indicate.New(primaryTriad(), secondaryTriad(), timers)

	flashDev := flash.New(machine.SPI1, pinFlashCS)
	flashStore := norfs.New(flashDev.BlockDev())
	sdStore := sdfs.NewOnBoard(machine.SPI0, pinSDSCK, pinSDSDO, pinSDSDI, pinSDCS)

	errs := &diag.Accumulator{}
	mgr := &storage.Manager{
		Flash: &flashTarget{dev: flashDev, fs: flashStore},
		SD:    sdStore,
		Con:   con,
		Power: &powerGate{},
		Mode:  pinTransferMode,
	}

	receiver := xmodem.New(consoleTransport{con: con}, mgr.Flash.(*flashTarget))
	receiver.SetMaxErrors(uint8(config.XmodemMaxErrors()))

	fatal := &diag.Fatal{
		Console:   con,
		Indicator: ind,
		Errors:    errs,
		Reset:     machine.CPUReset,
		Release:   true,
	}
	wireConsoleCommands(con, logger, flashDev, fatal)

	app := ferry.New(ferry.Deps{
		Console:   con,
		Logger:    logger,
		Indicator: ind,
		Errors:    errs,
		Storage:   mgr,
		Xmodem:    receiver,
		ButtonPressed: func() bool {
			time.Sleep(20 * time.Millisecond)
			return !pinFlashButton.Get() // active low
		},
		Banner: func() {
			diag.PrintStartupMessage(con, resetCause)
		},
		SleepMS: func(ms uint32) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		},
		ResultDwellMS: uint32(config.ResultDwell().Milliseconds()),
	})

	logger.Info("boot:ready",
		slog.String("reset", resetCause.String()),
		slog.Int("setting", int(currentConfigSetting())),
	)

	for {
		app.Step()
		con.PollCommands()
		con.Sync()
	}
}

// flashTarget couples the NOR driver lifecycle with the littlefs store: Init
// probes the chip, then mounts the filesystem on it.
type flashTarget struct {
	dev *flash.Device
	fs  *norfs.Store
}

func (t *flashTarget) Init() error {
	if err := t.dev.Configure(); err != nil {
		return err
	}
	slog.Debug("flash:probe",
		slog.String("chip", t.dev.ID.String()),
		slog.Int("kib", int(t.dev.CapacityKiB)),
	)
	return t.fs.Init()
}

func (t *flashTarget) OpenGolden() error                  { return t.fs.OpenGolden() }
func (t *flashTarget) WriteGolden(p []byte) error         { return t.fs.WriteGolden(p) }
func (t *flashTarget) CloseGolden() error                 { return t.fs.CloseGolden() }
func (t *flashTarget) DeleteGolden() error                { return t.fs.DeleteGolden() }
func (t *flashTarget) GoldenCRC(b []byte) (uint32, error) { return t.fs.GoldenCRC(b) }

// wireConsoleCommands installs the deferred handlers for the operator
// commands received as 3-byte tokens.
func wireConsoleCommands(con *console.Console, logger *slog.Logger, dev *flash.Device, fatal *diag.Fatal) {
	con.SetActor(console.CmdLevel1Enable, func() {
		logger.Info("console:level1-enabled")
	})
	con.SetActor(console.CmdLevel2Request, func() {
		con.Print(console.Lvl0, "\r\n>> Enter Level 2 passkey")
	})
	con.SetActor(console.CmdLevel2Enable, func() {
		logger.Info("console:level2-enabled")
	})
	con.SetActor(console.CmdEraseFlash, func() {
		con.Print(console.Lvl0, "\r\n>> Erasing external flash, please wait")
		err := dev.EraseChip()
		if err == flash.ErrReadyTimeout {
			// A chip that never reports ready again is a wedged bus.
			fatal.Trip(diag.ErrHALFailure, "flash ready wait timed out")
		}
		con.Print(console.Lvl0, "\r\n>> Flash erase %s", diag.StatusString(err))
	})
	con.SetActor(console.CmdSelfTest, func() {
		con.Print(console.Lvl0, "\r\n>> Chip %s, %d KiB, UID %X", dev.ID, dev.CapacityKiB, dev.UniqID)
	})
}

// readResetFlags snapshots whatever reset telemetry the part exposes. The
// RP2040 surfaces less than the original MCU; missing flags classify as
// UNKNOWN and the enumeration is kept for banner parity.
func readResetFlags() diag.ResetFlags {
	return diag.ResetFlags{}
}
