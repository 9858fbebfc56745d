//go:build tinygo

package main

import (
	"machine"

	"github.com/Fasal-Tech/FileFerry-Click2Flash/indicate"
)

// Board pin map.
const (
	// Console UART (UART0 default pins GP0/GP1).

	// External NOR flash on SPI1, power-gated with the target board.
	pinFlashSCK   = machine.GP10
	pinFlashSDO   = machine.GP11
	pinFlashSDI   = machine.GP12
	pinFlashCS    = machine.GP13
	pinFlashPower = machine.GP9

	// SD card on SPI0.
	pinSDSCK = machine.GP18
	pinSDSDO = machine.GP19
	pinSDSDI = machine.GP16
	pinSDCS  = machine.GP17

	// Operator surface.
	pinFlashButton  = machine.GP14 // active low momentary
	pinTransferMode = machine.GP15 // low: SD->flash, high: XMODEM->flash
	pinSetting1     = machine.GP26
	pinSetting2     = machine.GP27

	// Primary LED triad.
	pinLEDR = machine.GP6
	pinLEDG = machine.GP7
	pinLEDB = machine.GP8

	// Secondary LED triad (rev 1A routes R1 and B1 swapped).
	pinLEDR1 = machine.GP20
	pinLEDG1 = machine.GP21
	pinLEDB1 = machine.GP22
)

// configSetting is the 2-bit strap read from the setting GPIOs. Reserved for
// future behavior selection; reported at boot.
type configSetting uint8

func currentConfigSetting() configSetting {
	s := configSetting(0)
	if pinSetting1.Get() {
		s |= 1
	}
	if pinSetting2.Get() {
		s |= 2
	}
	return s
}

func configurePins() {
	machine.UART0.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	pinFlashButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinTransferMode.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	pinSetting1.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	pinSetting2.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	pinFlashPower.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinFlashPower.Low()

	for _, p := range []machine.Pin{pinLEDR, pinLEDG, pinLEDB, pinLEDR1, pinLEDG1, pinLEDB1} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
}

// configureFlashSPI brings up the bus to the target flash board.
func configureFlashSPI() {
	machine.SPI1.Configure(machine.SPIConfig{
		Frequency: 8_000_000,
		SCK:       pinFlashSCK,
		SDO:       pinFlashSDO,
		SDI:       pinFlashSDI,
		Mode:      0,
	})
	pinFlashCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinFlashCS.High()
}

// releaseFlashSPI floats the bus pins so the unpowered board is not driven
// through them.
func releaseFlashSPI() {
	for _, p := range []machine.Pin{pinFlashSCK, pinFlashSDO, pinFlashCS} {
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
}

func primaryTriad() indicate.Triad {
	return indicate.Triad{R: pinLEDR, G: pinLEDG, B: pinLEDB}
}

// secondaryTriad crosses R and B: the rev 1A board swaps those two nets on
// the duplicate LED set.
func secondaryTriad() indicate.Triad {
	return indicate.Triad{R: pinLEDB1, G: pinLEDG1, B: pinLEDR1}
}
