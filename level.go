package mlfq

import "fmt"

// NumLevels is the number of run queue levels maintained by a [Scheduler].
const NumLevels = 3

// Level identifies one of the run queues of a [Scheduler]. Level high is
// serviced first and low last.
type Level struct {
	level
}

// ParseLevel creates a new [Level] from a level name or a queue index. Anything
// else yields an unknown level.
func ParseLevel(l any) Level {
	switch v := l.(type) {
	case Level:
		return v
	case string:
		return Level{stringToLevel(v)}
	case fmt.Stringer:
		return Level{stringToLevel(v.String())}
	case int:
		return Level{indexToLevel(v)}
	default:
		return Level{levelUnknown}
	}
}

func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

func (l *Level) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*l = ParseLevel(s)
	return nil
}

// Index returns the position of the level in the queue set, 0 being the
// highest priority. It returns -1 for an unknown level.
func (l Level) Index() int {
	return int(l.level)
}

// Levels is a more typical enum like structure from other languages, ported
// to Go. It may be used to reference a [Level] value by name.
var Levels = levelContainer{
	High:   Level{levelHigh},
	Normal: Level{levelNormal},
	Low:    Level{levelLow},
}

// All returns all valid levels in service order.
func (c levelContainer) All() []Level {
	return []Level{c.High, c.Normal, c.Low}
}

type level int

const (
	levelUnknown level = -1
	levelHigh    level = 0
	levelNormal  level = 1
	levelLow     level = 2
)

var (
	strLevelMap = map[level]string{
		levelUnknown: "unknown",
		levelHigh:    "high",
		levelNormal:  "normal",
		levelLow:     "low",
	}

	typeLevelMap = map[string]level{
		"unknown": levelUnknown,
		"high":    levelHigh,
		"normal":  levelNormal,
		"low":     levelLow,
	}
)

func (l level) String() string {
	if s, ok := strLevelMap[l]; ok {
		return s
	}
	return strLevelMap[levelUnknown]
}

func (l level) IsValid() bool {
	return l >= levelHigh && l <= levelLow
}

// subintervals is the number of half-slice waits making up one turn at this
// level.
func (l level) subintervals() int {
	switch l {
	case levelHigh:
		return 1
	case levelNormal:
		return 2
	default:
		return 4
	}
}

// preemptible reports whether a turn at this level yields to arrivals in a
// higher level.
func (l level) preemptible() bool {
	return l != levelHigh
}

// demoted returns the level a thread moves to after exhausting a turn here.
// The lowest level is the floor.
func (l level) demoted() Level {
	if l >= levelLow {
		return Levels.Low
	}
	return Level{l + 1}
}

func stringToLevel(s string) level {
	if v, ok := typeLevelMap[s]; ok {
		return v
	}
	return levelUnknown
}

func indexToLevel(i int) level {
	if l := level(i); l.IsValid() {
		return l
	}
	return levelUnknown
}

type levelContainer struct {
	High   Level
	Normal Level
	Low    Level
}
