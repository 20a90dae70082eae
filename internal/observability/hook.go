package observability

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tomasbasham/mlfq"
)

// Ensure LogHook implements [mlfq.MetricsHook].
var _ mlfq.MetricsHook = (*LogHook)(nil)

// LogHook logs scheduler events and counts them.
type LogHook struct {
	log *zap.Logger

	admitted   atomic.Int64
	dispatched atomic.Int64
	byLevel    [mlfq.NumLevels]atomic.Int64
	preempted  atomic.Int64
	demoted    atomic.Int64
	reaped     atomic.Int64
	faults     atomic.Int64
}

// NewLogHook returns a hook logging to l at info level.
func NewLogHook(l *zap.Logger) *LogHook {
	return &LogHook{log: l.Named("events")}
}

// Counters is a point in time copy of the counts kept by a [LogHook].
type Counters struct {
	Admitted   int64 `json:"admitted"`
	Dispatched int64 `json:"dispatched"`
	Preempted  int64 `json:"preempted"`
	Demoted    int64 `json:"demoted"`
	Reaped     int64 `json:"reaped"`
	Faults     int64 `json:"faults"`

	// Levels breaks Dispatched down by the level each turn was taken at.
	Levels []LevelCount `json:"levels"`
}

// LevelCount is the number of turns dispatched at one level.
type LevelCount struct {
	Level      mlfq.Level `json:"level"`
	Dispatched int64      `json:"dispatched"`
}

// Counters returns the current counts.
func (h *LogHook) Counters() Counters {
	c := Counters{
		Admitted:   h.admitted.Load(),
		Dispatched: h.dispatched.Load(),
		Preempted:  h.preempted.Load(),
		Demoted:    h.demoted.Load(),
		Reaped:     h.reaped.Load(),
		Faults:     h.faults.Load(),
	}
	for _, l := range mlfq.Levels.All() {
		c.Levels = append(c.Levels, LevelCount{
			Level:      l,
			Dispatched: h.byLevel[l.Index()].Load(),
		})
	}
	return c
}

func (h *LogHook) OnAdmit(tcb *mlfq.TCB) {
	h.admitted.Add(1)
	h.log.Info("admit", zap.Int("tid", tcb.TID()), zap.Int("pid", tcb.PID()))
}

func (h *LogHook) OnDispatch(tcb *mlfq.TCB, l mlfq.Level) {
	h.dispatched.Add(1)
	if l.IsValid() {
		h.byLevel[l.Index()].Add(1)
	}
	h.log.Debug("dispatch", zap.Int("tid", tcb.TID()), zap.Stringer("level", l))
}

func (h *LogHook) OnPreempt(tcb *mlfq.TCB, l mlfq.Level) {
	h.preempted.Add(1)
	h.log.Info("preempt", zap.Int("tid", tcb.TID()), zap.Stringer("level", l))
}

// OnRequeue counts a demotion only when the thread changes level.
func (h *LogHook) OnRequeue(tcb *mlfq.TCB, from, to mlfq.Level) {
	if from != to {
		h.demoted.Add(1)
		h.log.Info("demote", zap.Int("tid", tcb.TID()), zap.Stringer("from", from), zap.Stringer("to", to))
	}
}

func (h *LogHook) OnReap(tcb *mlfq.TCB) {
	h.reaped.Add(1)
	h.log.Info("reap", zap.Int("tid", tcb.TID()))
}

func (h *LogHook) OnFault(tcb *mlfq.TCB, err error) {
	h.faults.Add(1)
	h.log.Error("fault", zap.Int("tid", tcb.TID()), zap.Error(err))
}
