package diag

import (
	"github.com/Fasal-Tech/FileFerry-Click2Flash/console"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/indicate"
	"github.com/Fasal-Tech/FileFerry-Click2Flash/version"
)

const delimiterLine = "\r\n\r\n************************************************************\r\n"

// PrintDelimiter prints the banner delimiter line.
func PrintDelimiter(con *console.Console) {
	con.Print(console.Lvl0, "%s", delimiterLine)
}

// PrintLineBreak prints a bare line break.
func PrintLineBreak(con *console.Console) {
	con.Print(console.Lvl0, "\r\n")
}

// PrintStartupMessage prints the framed device banner shown at the top of
// every pass.
func PrintStartupMessage(con *console.Console, cause ResetCause) {
	PrintDelimiter(con)
	con.Print(console.Lvl0, "\r\n Fasal. Grow More, Grow Better!\r\n Wolkus Technology Solutions Private Limited, Bangalore, India.")
	con.Print(console.Lvl0, "\r\n Device: HW version: %d.%d, FW version: %d.%d",
		version.HWVersionMajor, version.HWVersionMinor, version.FWVersionMajor, version.FWVersionMinor)
	con.Print(console.Lvl0, "\r\n Binaries compiled on %s, revision %s", version.BuildDate, version.GitSHA)
	con.Print(console.Lvl0, "\r\n Build for FileFerry Flasher Board")
	con.Print(console.Lvl1, "\r\n Reset cause: %s", cause)
	PrintDelimiter(con)
}

// Fatal is the terminal error path shared by the HAL error, hard fault and
// assertion handlers: interrupts off, one-line banner, red blink, then reset
// (release) or spin (debug).
type Fatal struct {
	Console    *console.Console
	Indicator  *indicate.Indicator
	Errors     *Accumulator
	DisableIRQ func()
	Reset      func()
	Release    bool
}

// Trip reports the failure and does not return when a reset hook is present
// in release mode.
func (f *Fatal) Trip(code ErrorCode, msg string) {
	if f.DisableIRQ != nil {
		f.DisableIRQ()
	}
	if f.Errors != nil {
		f.Errors.Accumulate(code)
	}
	if f.Console != nil {
		f.Console.Print(console.Lvl0, "\r\n>> ERROR: %s", msg)
	}
	if f.Indicator != nil {
		f.Indicator.SetState(indicate.Red250)
	}
	if f.Release && f.Reset != nil {
		f.Reset()
	}
}
