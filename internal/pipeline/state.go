package pipeline

// State 一次运行所处的阶段
type State int

const (
	StateIdle State = iota
	StateFetching
	StateNormalizing
	StateRanking
	StateEmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateRanking:
		return "ranking"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Outcome 运行结束的方式；NoItems / NoKeywords 不是错误
type Outcome int

const (
	OutcomeDigest Outcome = iota
	OutcomeNoItems
	OutcomeNoKeywords
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDigest:
		return "digest"
	case OutcomeNoItems:
		return "no_items"
	case OutcomeNoKeywords:
		return "no_keywords"
	}
	return "unknown"
}
