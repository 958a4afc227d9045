package datagen

// LabelCounts is the distribution of one label.
type LabelCounts struct {
	Label    string
	Positive int
	Negative int
}

// Total is the number of rows counted.
func (c LabelCounts) Total() int { return c.Positive + c.Negative }

// PositivePct is the share of positive rows in percent.
func (c LabelCounts) PositivePct() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Positive) * 100 / float64(c.Total())
}

// NegativePct is the share of negative rows in percent.
func (c LabelCounts) NegativePct() float64 {
	if c.Total() == 0 {
		return 0
	}
	return 100 - c.PositivePct()
}

// Balance counts both labels across records.
func Balance(records []Record) (resume, event LabelCounts) {
	resume.Label, event.Label = LabelResume, LabelEvent
	for _, r := range records {
		count(&resume, r.NudgeResume)
		count(&event, r.NudgeEvent)
	}
	return resume, event
}

func count(c *LabelCounts, positive bool) {
	if positive {
		c.Positive++
	} else {
		c.Negative++
	}
}
