package diag

// Counter aggregates emitted diagnostics per checking run. It replaces the
// session-global counters of classic compiler drivers with an explicit value
// returned alongside the diagnostic sequence.
type Counter struct {
	Errors   int
	Warnings int
	Infos    int
}

// Total returns the number of emitted records, duplicates included.
func (c Counter) Total() int {
	return c.Errors + c.Warnings + c.Infos
}

// Count tallies the diagnostics currently held by the bag.
func Count(b *Bag) Counter {
	var c Counter
	if b == nil {
		return c
	}
	for _, d := range b.Items() {
		switch d.Severity {
		case SevError:
			c.Errors++
		case SevWarning:
			c.Warnings++
		default:
			c.Infos++
		}
	}
	return c
}

// Merge adds another counter into c.
func (c *Counter) Merge(other Counter) {
	c.Errors += other.Errors
	c.Warnings += other.Warnings
	c.Infos += other.Infos
}
