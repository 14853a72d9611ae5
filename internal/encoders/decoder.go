package encoders

// Decoder decodes a two channel quadrature signal (CLK/DT) into a position.
// Movement is evaluated on the falling edge of CLK only, which yields one
// step per detent on common panel encoders.
type Decoder struct {
	position int
	lastClk  int
}

func NewDecoder(position int) *Decoder {
	return &Decoder{
		position: position,
		// lines are pulled up, so idle CLK reads high
		lastClk: 1,
	}
}

func (d *Decoder) Position() int {
	return d.position
}

// Update feeds a new CLK/DT sample and returns the position and whether it changed
func (d *Decoder) Update(clk int, dt int) (int, bool) {
	defer func() { d.lastClk = clk }()
	if clk == d.lastClk || clk != 0 {
		return d.position, false
	}
	if dt != clk {
		d.position++
	} else {
		d.position--
	}
	return d.position, true
}

// Move shifts the position by delta, used for simulated input
func (d *Decoder) Move(delta int) int {
	d.position += delta
	return d.position
}
