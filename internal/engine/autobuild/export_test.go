package autobuild

// Generation returns the generation of the most recently armed timer.
func (j *Job) Generation() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.gen
}

// Fire runs the timer callback of the given generation.
func (j *Job) Fire(gen uint64) {
	j.fire(gen)
}
