package ecs

// System is a per-tick update over the registry. dt is in seconds.
type System interface {
	Update(w *World, dt float64)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World, dt float64)

func (f SystemFunc) Update(w *World, dt float64) {
	f(w, dt)
}

// Scheduler runs its systems in registration order once per tick.
type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, sys := range systems {
		s.Add(sys)
	}
	return s
}

// Add appends a system. Nil systems are dropped.
func (s *Scheduler) Add(sys System) {
	if sys == nil {
		return
	}
	s.systems = append(s.systems, sys)
}

func (s *Scheduler) Len() int {
	return len(s.systems)
}

// Update runs one tick. A system added by another system during the tick
// first runs on the next one.
func (s *Scheduler) Update(w *World, dt float64) {
	for _, sys := range s.systems {
		sys.Update(w, dt)
	}
}
