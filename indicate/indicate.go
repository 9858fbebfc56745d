// Package indicate drives the board's tri-color status LEDs and maps
// application states onto color/blink combinations.
package indicate

import (
	"github.com/Fasal-Tech/FileFerry-Click2Flash/softtimer"
)

// BlinkBaseMS is the time base of the blink tick.
const BlinkBaseMS = 50

// Pin is the minimal GPIO surface the indicator drives. machine.Pin
// satisfies it.
type Pin interface {
	High()
	Low()
}

// Triad is one physical RGB LED set.
//
// The board carries two triads driven in lockstep; rev 1A routes the second
// set with the R and B nets swapped, which the wiring accounts for by
// crossing those pins when constructing the Triad.
type Triad struct {
	R, G, B Pin
}

// Color is the combined state of one triad.
type Color uint8

const (
	AllOff Color = iota
	Red
	Green
	Blue
	Yellow
	Magenta
	Cyan
	White

	numColors
)

// colorPins maps each color to the on/off state of the three LEDs.
var colorPins = [numColors][3]bool{
	AllOff:  {false, false, false},
	Red:     {true, false, false},
	Green:   {false, true, false},
	Blue:    {false, false, true},
	Yellow:  {true, true, false},
	Magenta: {true, false, true},
	Cyan:    {false, true, true},
	White:   {true, true, true},
}

// BlinkPeriod selects the LED toggle rate.
type BlinkPeriod uint8

const (
	BlinkNone BlinkPeriod = iota
	Blink250
	Blink500
	Blink1000
	Blink2000

	numBlinkPeriods
)

// blinkTicks converts a blink period to blink-timer ticks. BlinkNone never
// toggles.
var blinkTicks = [numBlinkPeriods]uint32{
	BlinkNone: ^uint32(0),
	Blink250:  250 / BlinkBaseMS,
	Blink500:  500 / BlinkBaseMS,
	Blink1000: 1000 / BlinkBaseMS,
	Blink2000: 2000 / BlinkBaseMS,
}

// State is an application-level indication request.
type State uint8

const (
	NoChange State = iota
	None

	Red0
	Green0
	Blue0
	Yellow0

	Red250
	Green250
	Blue250
	Yellow250

	Red500
	Green500
	Blue500

	Red1000
	Green1000
	Blue1000
	Yellow1000

	numStates
)

type stateConfig struct {
	color       Color
	blink       BlinkPeriod
	blinkNeeded bool
}

// stateTable determines how application states correspond to LED output.
var stateTable = [numStates]stateConfig{
	NoChange: {color: AllOff, blink: BlinkNone, blinkNeeded: false},
	None:     {color: AllOff, blink: BlinkNone, blinkNeeded: false},

	Red0:    {color: Red, blink: BlinkNone, blinkNeeded: true},
	Green0:  {color: Green, blink: BlinkNone, blinkNeeded: true},
	Blue0:   {color: Blue, blink: BlinkNone, blinkNeeded: true},
	Yellow0: {color: Yellow, blink: BlinkNone, blinkNeeded: true},

	Red250:    {color: Red, blink: Blink250, blinkNeeded: true},
	Green250:  {color: Green, blink: Blink250, blinkNeeded: true},
	Blue250:   {color: Blue, blink: Blink250, blinkNeeded: true},
	Yellow250: {color: Yellow, blink: Blink250, blinkNeeded: true},

	Red500:   {color: Red, blink: Blink500, blinkNeeded: true},
	Green500: {color: Green, blink: Blink500, blinkNeeded: true},
	Blue500:  {color: Blue, blink: Blink500, blinkNeeded: true},

	Red1000:    {color: Red, blink: Blink1000, blinkNeeded: true},
	Green1000:  {color: Green, blink: Blink1000, blinkNeeded: true},
	Blue1000:   {color: Blue, blink: Blink1000, blinkNeeded: true},
	Yellow1000: {color: Yellow, blink: Blink1000, blinkNeeded: true},
}

// Indicator owns the two LED triads and the blink state. Its blink callback
// runs on tick context and only touches the indicator's own fields and the
// LED pins.
type Indicator struct {
	primary   Triad
	secondary Triad

	current State
	prev    State

	color       Color
	prevOnColor Color

	blinkEnabled bool
	ticksSet     uint32
	ticksCurrent uint32

	initialized bool
}

// New builds the indicator and registers its blink callback with the timer
// wheel at the 50 ms time base.
func New(primary, secondary Triad, timers *softtimer.Wheel) *Indicator {
	in := &Indicator{
		primary:   primary,
		secondary: secondary,
		current:   None,
		prev:      None,
	}
	in.initialized = true
	timers.Register(softtimer.DebugLED, BlinkBaseMS, true, in.blinkTick)
	timers.Start(softtimer.DebugLED, true)
	return in
}

func drivePin(p Pin, on bool) {
	if p == nil {
		return
	}
	if on {
		p.High()
	} else {
		p.Low()
	}
}

// setColor drives both triads to the given color. The duplicate set follows
// the primary indication.
func (in *Indicator) setColor(c Color) {
	in.color = c
	if c != AllOff {
		in.prevOnColor = c
	}

	pins := colorPins[c]
	drivePin(in.primary.R, pins[0])
	drivePin(in.primary.G, pins[1])
	drivePin(in.primary.B, pins[2])
	drivePin(in.secondary.R, pins[0])
	drivePin(in.secondary.G, pins[1])
	drivePin(in.secondary.B, pins[2])
}

// blinkTick toggles the LEDs between off and the previous lit color once the
// configured number of blink-base periods elapses.
func (in *Indicator) blinkTick() {
	if !in.initialized || !in.blinkEnabled {
		return
	}
	in.ticksCurrent++
	if in.ticksCurrent < in.ticksSet {
		return
	}
	in.ticksCurrent = 0
	if in.color == AllOff {
		in.setColor(in.prevOnColor)
	} else {
		in.setColor(AllOff)
	}
}

// SetState applies an application indication state. NoChange and repeats of
// the current state are ignored; the previous state is retained for
// RevertState.
func (in *Indicator) SetState(s State) {
	if s >= numStates || s == NoChange || s == in.current {
		return
	}
	in.prev = in.current
	in.current = s
	in.apply(stateTable[s])
}

// RevertState restores the indication active before the last SetState.
func (in *Indicator) RevertState() {
	in.apply(stateTable[in.prev])
}

func (in *Indicator) apply(cfg stateConfig) {
	in.blinkEnabled = false
	in.ticksSet = blinkTicks[cfg.blink]
	in.ticksCurrent = 0
	in.setColor(cfg.color)
	in.blinkEnabled = cfg.blinkNeeded && cfg.blink != BlinkNone
}

// Off turns every LED off and disables blinking.
func (in *Indicator) Off() {
	in.blinkEnabled = false
	in.setColor(AllOff)
}

// CurrentColor reports the color the triads are driven to right now.
func (in *Indicator) CurrentColor() Color {
	return in.color
}

// CurrentState reports the active indication state.
func (in *Indicator) CurrentState() State {
	return in.current
}
