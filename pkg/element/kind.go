package element

// Kind is the closed set of node variants.
type Kind int

const (
	KindTask Kind = iota
	KindStartEvent
	KindEndEvent
	KindExclusiveGateway
	KindParallelGateway
	KindBlackBox
)

var kindNames = [...]string{
	KindTask:             "Task",
	KindStartEvent:       "StartEvent",
	KindEndEvent:         "EndEvent",
	KindExclusiveGateway: "ExclusiveGateway",
	KindParallelGateway:  "ParallelGateway",
	KindBlackBox:         "BlackBox",
}

// String returns the kind's name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind maps a flow description node type to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "Task", "task":
		return KindTask, true
	case "StartEvent", "startEvent":
		return KindStartEvent, true
	case "EndEvent", "NormalEndEvent", "endEvent":
		return KindEndEvent, true
	case "ExclusiveGateway", "exclusiveGateway":
		return KindExclusiveGateway, true
	case "ParallelGateway", "parallelGateway":
		return KindParallelGateway, true
	case "BlackBox":
		return KindBlackBox, true
	}
	return KindTask, false
}

// IsEvent reports whether k is a start or end event.
func (k Kind) IsEvent() bool { return k == KindStartEvent || k == KindEndEvent }

// IsGateway reports whether k is an exclusive or parallel gateway.
func (k Kind) IsGateway() bool { return k == KindExclusiveGateway || k == KindParallelGateway }

// Node dimensions and scale factors per kind.
const (
	TaskScale   = 70
	MarkerScale = 3

	EventSize   = 50
	GatewaySize = 42

	BlackBoxWidth  = 1200
	BlackBoxHeight = 800
)
