package crt

import "fmt"

// SyncState is the state of the sync tracker.
type SyncState int

const (
	// SearchingH looks for horizontal sync pulses one line apart.
	SearchingH SyncState = iota
	// LockedH follows horizontal sync inside a narrow window around the
	// predicted position.
	LockedH
	// SearchingV is active once a broad pulse was seen and counts the ones
	// that follow to confirm the vertical interval.
	SearchingV
	// LockedField has located the vertical sync and the field parity.
	LockedField
)

func (s SyncState) String() string {
	switch s {
	case SearchingH:
		return "searching-h"
	case LockedH:
		return "locked-h"
	case SearchingV:
		return "searching-v"
	case LockedField:
		return "locked-field"
	}
	return fmt.Sprintf("SyncState(%d)", int(s))
}

// SyncStatus describes the timing resolved for the last decoded field.
type SyncStatus struct {
	State   SyncState
	HLocked bool // horizontal lock was acquired
	VLocked bool // the vertical interval was confirmed
	HSync   int  // horizontal offset from nominal, in samples
	VSync   int  // vertical offset from nominal, in lines
	Field   int  // 0 even, 1 odd
	Found   int  // lines whose sync pulse was accepted
}

const (
	syncThresh  = 4 * SyncLevel / 2 // on a box sum of four samples
	minPulse    = 16                // shorter pulses are noise
	endRun      = 3                 // high samples needed to end a pulse
	eqMax       = 50                // equalizing pulses are narrower
	broadMin    = 200               // broad pulses are at least this wide
	hWindow     = 16                // tolerance around the predicted sync
	hLockPulses = 3
	hMaxStray   = 8
	vLockPulses = 3
)

// tracker scans one field for sync pulses.
type tracker struct {
	state SyncState

	hphase int // where lines start, 0..HRes
	lastH  int // absolute position of the last accepted pulse
	locks  int
	stray  int

	broad      int
	firstBroad int

	offsets [VRes]int
	found   [VRes]bool
	nfound  int

	hLocked, vLocked bool
	vline, field     int
}

// track locates line and field boundaries in the receiver input. Offsets
// persisted in the Device seed the search and are updated from what was
// found; when nothing locks, the previous timing is kept.
func (d *Device) track() (offsets [VRes]int, vshift int) {
	t := tracker{state: SearchingH, lastH: -1, hphase: posmod(d.hsync, HRes)}

	// start half a field away from the expected vertical sync so the
	// horizontal lock is settled before reaching it
	start := (vsyncLine+d.vsync+VRes/2)*HRes + d.hsync
	t.scan(&d.inp, start)

	switch {
	case t.vLocked:
		if !d.status.VLocked {
			d.logger.Debug("vertical sync acquired", "line", t.vline, "field", t.field)
		}
		d.vsync = centered(t.vline-vsyncLine, VRes)
		d.field = t.field
	case d.status.VLocked:
		d.logger.Debug("vertical sync lost, coasting", "vsync", d.vsync, "field", d.field)
	}

	// lines without a pulse coast on the previous line's offset
	first := posmod(start/HRes, VRes)
	prev := d.hsync
	for i := 0; i < VRes; i++ {
		if n := (first + i) % VRes; t.found[n] {
			prev = t.offsets[n]
			break
		}
	}
	for i := 0; i < VRes; i++ {
		n := (first + i) % VRes
		if t.found[n] {
			prev = t.offsets[n]
		}
		offsets[n] = prev
	}
	if t.hLocked {
		d.hsync = prev
	}

	d.status = SyncStatus{
		State:   t.state,
		HLocked: t.hLocked,
		VLocked: t.vLocked,
		HSync:   d.hsync,
		VSync:   d.vsync,
		Field:   d.field,
		Found:   t.nfound,
	}
	return offsets, d.vsync
}

// scan walks one field of samples from start, turning runs below the sync
// threshold into pulses.
func (t *tracker) scan(inp *[InputSize]int8, start int) {
	sum := 0
	for a := start - 3; a < start; a++ {
		sum += int(inp[posmod(a, InputSize)])
	}

	low := false
	begin, high := 0, 0
	for a := start; a < start+InputSize; a++ {
		sum += int(inp[posmod(a, InputSize)])
		below := sum < syncThresh
		sum -= int(inp[posmod(a-3, InputSize)])

		switch {
		case below:
			if !low {
				low = true
				begin = a - 2
			}
			high = 0
		case low:
			high++
			if high == endRun {
				low = false
				if width := a - endRun - begin; width >= minPulse {
					t.pulse(begin, width)
				}
			}
		}
	}
}

func (t *tracker) pulse(p, width int) {
	switch {
	case width >= broadMin:
		t.broadPulse(p)
	case width >= eqMax:
		t.hsyncPulse(p)
	}
}

func (t *tracker) hsyncPulse(p int) {
	start := p - SyncBeg

	if t.state == SearchingH {
		if t.lastH >= 0 && abs(p-t.lastH-HRes) <= hWindow {
			t.locks++
		} else {
			t.locks = 1
		}
		t.lastH = p
		t.hphase = posmod(start, HRes)
		if t.locks >= hLockPulses {
			t.state = LockedH
			t.hLocked = true
			t.record(start)
		}
		return
	}

	if abs(centered(start-t.hphase, HRes)) > hWindow {
		t.stray++
		if t.stray >= hMaxStray && t.state != LockedField {
			t.state = SearchingH
			t.locks = 1
			t.lastH = p
			t.hphase = posmod(start, HRes)
		}
		return
	}
	t.stray = 0
	if t.state == SearchingV {
		// broad pulses were not confirmed
		t.state = LockedH
		t.broad = 0
	}
	t.lastH = p
	t.hphase = posmod(start, HRes)
	t.record(start)
}

func (t *tracker) broadPulse(p int) {
	switch t.state {
	case SearchingH, LockedField:
		return
	case LockedH:
		t.state = SearchingV
		t.broad = 0
	}
	if t.broad == 0 {
		t.firstBroad = p
	}
	t.broad++
	if t.broad >= vLockPulses {
		t.lockField()
	}
}

// lockField derives the vertical offset and field parity from the first
// broad pulse. The even field starts its broad pulses with the line, the
// odd field half a line later. hphase is taken as a signed offset so a line
// starting a sample early does not pull the broad pulse back a whole line.
func (t *tracker) lockField() {
	pos := posmod(t.firstBroad-centered(t.hphase, HRes), InputSize)
	line := pos / HRes
	col := pos % HRes

	field := 0
	switch {
	case col >= HRes/4 && col < 3*HRes/4:
		field = 1
	case col >= 3*HRes/4:
		line++
	}

	t.vline = line % VRes
	t.field = field
	t.vLocked = true
	t.state = LockedField
}

// record stores the line offset of an accepted sync pulse.
func (t *tracker) record(start int) {
	pos := posmod(start, InputSize)
	line := (pos + HRes/2) / HRes
	off := pos - line*HRes
	line %= VRes
	if !t.found[line] {
		t.nfound++
	}
	t.found[line] = true
	t.offsets[line] = off
}

// centered maps x modulo n into [-n/2, n/2).
func centered(x, n int) int {
	x = posmod(x, n)
	if x >= n/2 {
		x -= n
	}
	return x
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
