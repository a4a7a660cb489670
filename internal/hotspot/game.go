package hotspot

import "fmt"

// Phase is the reveal state of a single level.
type Phase string

const (
	AwaitingFirstHotspot  Phase = "awaiting_first_hotspot"
	AwaitingSecondHotspot Phase = "awaiting_second_hotspot"
	Completed             Phase = "completed"
)

// Level is one learning-game screen. SecondArea is optional; a level without
// it completes on the first hit.
type Level struct {
	ID            int    `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Mission       string `json:"mission" yaml:"mission"`
	SecondMission string `json:"secondMission,omitempty" yaml:"second_mission"`
	Message       string `json:"message" yaml:"message"`
	Image         string `json:"image" yaml:"image"`
	SecondImage   string `json:"secondImage,omitempty" yaml:"second_image"`
	Area          Area   `json:"area" yaml:"area"`
	SecondArea    *Area  `json:"secondArea,omitempty" yaml:"second_area"`
}

// Validate checks the hotspot centres lie inside the image and radii are positive.
func (l Level) Validate() error {
	if err := validateArea(l.Area); err != nil {
		return fmt.Errorf("level %d area: %w", l.ID, err)
	}
	if l.SecondArea != nil {
		if err := validateArea(*l.SecondArea); err != nil {
			return fmt.Errorf("level %d second area: %w", l.ID, err)
		}
	}
	return nil
}

func validateArea(a Area) error {
	if a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1 {
		return fmt.Errorf("centre (%g, %g) outside [0,1]", a.X, a.Y)
	}
	if a.Radius <= 0 {
		return fmt.Errorf("radius %g must be positive", a.Radius)
	}
	return nil
}

// Game tracks the two-phase reveal of one level. The zero value is not usable;
// construct with NewGame.
type Game struct {
	level Level
	phase Phase
}

// NewGame starts level at AwaitingFirstHotspot.
func NewGame(level Level) *Game {
	return &Game{level: level, phase: AwaitingFirstHotspot}
}

// Resume restores a game at a previously saved phase. Unknown phases start over.
func Resume(level Level, phase Phase) *Game {
	g := NewGame(level)
	switch phase {
	case AwaitingSecondHotspot:
		if level.SecondArea != nil {
			g.phase = phase
		}
	case Completed:
		g.phase = phase
	}
	return g
}

// Phase returns the current reveal state.
func (g *Game) Phase() Phase { return g.phase }

// Level returns the level being played.
func (g *Game) Level() Level { return g.level }

// Done reports whether every hotspot of the level has been found.
func (g *Game) Done() bool { return g.phase == Completed }

// ActiveArea is the hotspot the next tap is tested against. ok is false once
// the level is completed.
func (g *Game) ActiveArea() (Area, bool) {
	switch g.phase {
	case AwaitingFirstHotspot:
		return g.level.Area, true
	case AwaitingSecondHotspot:
		return *g.level.SecondArea, true
	default:
		return Area{}, false
	}
}

// ActiveMission is the prompt shown for the current phase.
func (g *Game) ActiveMission() string {
	if g.phase == AwaitingSecondHotspot && g.level.SecondMission != "" {
		return g.level.SecondMission
	}
	return g.level.Mission
}

// Tap tests a container-local tap against the active hotspot and advances the
// phase on a hit. Misses and taps after completion leave the state unchanged.
func (g *Game) Tap(x, y float64, geo Geometry) (hit bool) {
	area, ok := g.ActiveArea()
	if !ok || !IsInHotspot(x, y, area, geo) {
		return false
	}
	if g.phase == AwaitingFirstHotspot && g.level.SecondArea != nil {
		g.phase = AwaitingSecondHotspot
	} else {
		g.phase = Completed
	}
	return true
}
