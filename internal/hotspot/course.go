package hotspot

import "errors"

// ErrNoLevels is returned when a course is built from an empty level list.
var ErrNoLevels = errors.New("hotspot: course has no levels")

// Course plays levels in order. Finishing a level moves to the next one;
// finishing the last marks the whole course complete.
type Course struct {
	levels   []Level
	index    int
	game     *Game
	complete bool
}

// NewCourse starts at the first of levels. It returns ErrNoLevels for an
// empty list.
func NewCourse(levels []Level) (*Course, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	return &Course{levels: levels, game: NewGame(levels[0])}, nil
}

// ResumeCourse restores a course at level index idx and phase. An index past
// the last level yields a completed course.
func ResumeCourse(levels []Level, idx int, phase Phase) (*Course, error) {
	c, err := NewCourse(levels)
	if err != nil {
		return nil, err
	}
	switch {
	case idx < 0:
		idx = 0
	case idx >= len(levels):
		c.index = len(levels) - 1
		c.game = Resume(levels[c.index], Completed)
		c.complete = true
		return c, nil
	}
	c.index = idx
	c.game = Resume(levels[idx], phase)
	return c, nil
}

// Index is the zero-based position of the current level.
func (c *Course) Index() int { return c.index }

// Current returns the game of the current level.
func (c *Course) Current() *Game { return c.game }

// Complete reports whether the last level has been finished.
func (c *Course) Complete() bool { return c.complete }

// Len is the number of levels in the course.
func (c *Course) Len() int { return len(c.levels) }

// Tap forwards a tap to the current level.
func (c *Course) Tap(x, y float64, geo Geometry) bool {
	if c.complete {
		return false
	}
	return c.game.Tap(x, y, geo)
}

// Next advances past a completed level. It reports false when the current
// level is still in progress or the course is already complete.
func (c *Course) Next() bool {
	if c.complete || !c.game.Done() {
		return false
	}
	if c.index == len(c.levels)-1 {
		c.complete = true
		return false
	}
	c.index++
	c.game = NewGame(c.levels[c.index])
	return true
}
