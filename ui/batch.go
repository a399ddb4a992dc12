package ui

import (
	"github.com/learnlink/learnlink/tts"
)

// batch follows the progress of the tasks one page queued. Sequencer
// events carry the task itself, so progress is found by matching tasks in
// order.
type batch struct {
	tasks   []tts.Task
	current int // index of the task being run, -1 before the first
}

func newBatch(tasks []tts.Task) *batch {
	return &batch{tasks: tasks, current: -1}
}

// started records that t began. It reports false for tasks that are not
// part of the batch, e.g. leftovers of a canceled one.
func (b *batch) started(t tts.Task) bool {
	if b == nil {
		return false
	}
	for i := b.current + 1; i < len(b.tasks); i++ {
		if b.tasks[i] == t {
			b.current = i
			return true
		}
	}
	return false
}

// at returns the task index being run, or -1.
func (b *batch) at() int {
	if b == nil {
		return -1
	}
	return b.current
}
