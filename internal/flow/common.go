package flow

import "time"

// Step identifies a stage of the workflow. The numbering is part of the failure report.
type Step int

const (
	StepPreflight Step = iota // StepPreflight checks configuration before anything leaves the process.
	StepToken
	StepInventory
	StepDecide
	StepCompare
	StepQuote
	StepOrder
)

var StepTextMap = map[Step]string{
	StepPreflight: "preflight",
	StepToken:     "token",
	StepInventory: "inventory",
	StepDecide:    "decide",
	StepCompare:   "compare",
	StepQuote:     "quote",
	StepOrder:     "order",
}

func (s Step) String() string {
	if t, ok := StepTextMap[s]; ok {
		return t
	}
	return "unknown"
}

// Outcome is the overall result of a run.
type Outcome int

const (
	Failed   Outcome = iota
	NoChange         // Service already runs at the decided tier. Nothing was sent to the vendor.
	QuoteAndOrderPlaced
)

var StatusTextMap = map[Outcome]string{
	Failed:              "failed",
	NoChange:            "no_change",
	QuoteAndOrderPlaced: "quote_and_order_placed",
}

func (o Outcome) String() string {
	return StatusTextMap[o]
}

var timeNow = time.Now

func EpochTime() int64 {
	return timeNow().Unix()
}

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}
