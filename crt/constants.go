package crt

// Sample rate is 14.31818 MHz, four samples per cycle of the 3.579545 MHz
// chroma subcarrier.
const (
	CBFreq    = 4                  // samples per carrier cycle
	HRes      = 2275 * CBFreq / 10 // samples per line
	VRes      = 262                // lines per field
	InputSize = HRes * VRes

	Top   = 21        // first line with active video
	Bot   = 261       // line after the last active line
	Lines = Bot - Top // number of active video lines
)

// Line timing in nanoseconds.
const (
	fpNs   = 1500  // front porch
	syncNs = 4700  // sync tip
	bwNs   = 600   // breezeway
	cbNs   = 2500  // color burst
	bpNs   = 1600  // back porch
	avNs   = 52600 // active video
	hbNs   = fpNs + syncNs + bwNs + cbNs + bpNs
	lineNs = hbNs + avNs
)

// Sample offsets of each scanline region.
const (
	SyncBeg = fpNs * HRes / lineNs
	BWBeg   = (fpNs + syncNs) * HRes / lineNs
	CBBeg   = (fpNs + syncNs + bwNs) * HRes / lineNs
	BPBeg   = (fpNs + syncNs + bwNs + cbNs) * HRes / lineNs
	AVBeg   = hbNs * HRes / lineNs
	AVLen   = avNs * HRes / lineNs
)

const (
	cbCycles = 9 // cycles of color burst
	cbLen    = cbCycles * CBFreq
)

// Signal levels in IRE.
const (
	WhiteLevel = 100
	BurstLevel = 20
	BlackLevel = 7
	BlankLevel = 0
	SyncLevel  = -40
)

// Vertical interval layout, in lines from the start of the field.
const (
	vsyncLine  = 4 // first line with broad pulses
	vsyncLines = 3
	eqAfter    = 7 // first equalizing line after the broad pulses
	eqEnd      = 10
)

// Equalizing and broad pulse edges as percentages of a line.
var (
	eqPulse   = [4]int{4, 50, 54, 100}
	broadEven = [4]int{46, 50, 96, 100}
	broadOdd  = [4]int{4, 50, 96, 100}
)

// iAxisPhase is how many degrees the I axis leads the burst reference.
const iAxisPhase = 33

// Composite sample bounds. Chroma may dip below blank but never reaches the
// sync tip for a valid color.
const (
	compositeMin = SyncLevel
	compositeMax = 127
)
