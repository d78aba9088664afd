package estimator

// Pair filters a 2-D position with one independent Estimator per axis.
type Pair struct {
	X *Estimator
	Y *Estimator
}

// PairState is a snapshot of both axes.
type PairState struct {
	XPosition float64 `json:"x_position"`
	XVelocity float64 `json:"x_velocity"`
	YPosition float64 `json:"y_position"`
	YVelocity float64 `json:"y_velocity"`
}

// NewPair creates estimators for both axes sharing the same noise model.
func NewPair(initialX, initialY float64, opts ...Option) *Pair {
	return &Pair{
		X: New(initialX, opts...),
		Y: New(initialY, opts...),
	}
}

// Filter smooths the axes that are present; absent axes stay nil and their
// estimator is not advanced.
func (p *Pair) Filter(x, y *float64) (*float64, *float64) {
	var fx, fy *float64
	if x != nil {
		v := p.X.Filter(*x)
		fx = &v
	}
	if y != nil {
		v := p.Y.Filter(*y)
		fy = &v
	}
	return fx, fy
}

// State returns position and velocity of both axes.
func (p *Pair) State() PairState {
	xp, xv := p.X.State()
	yp, yv := p.Y.State()
	return PairState{XPosition: xp, XVelocity: xv, YPosition: yp, YVelocity: yv}
}

// SetState overwrites the axes whose position is non-nil.
func (p *Pair) SetState(xPosition, yPosition *float64, xVelocity, yVelocity float64) {
	if xPosition != nil {
		p.X.SetState(*xPosition, xVelocity)
	}
	if yPosition != nil {
		p.Y.SetState(*yPosition, yVelocity)
	}
}
