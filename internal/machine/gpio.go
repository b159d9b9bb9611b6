package machine

// GPIO is a single output line. A line may fan out to several receivers;
// every endpoint sees every state change.
type GPIO struct {
	state     bool
	endpoints []gpioEndpoint
}

type gpioEndpoint struct {
	receiver GPIOReceiver
	number   int
}

// NewGPIO returns an unconnected line.
func NewGPIO() *GPIO {
	return &GPIO{}
}

// Connect attaches the line to a receiver pin. The current state is
// propagated immediately.
func (g *GPIO) Connect(receiver GPIOReceiver, number int) {
	g.endpoints = append(g.endpoints, gpioEndpoint{receiver: receiver, number: number})
	receiver.OnGPIO(number, g.state)
}

// IsConnected reports whether any receiver is attached.
func (g *GPIO) IsConnected() bool {
	return len(g.endpoints) > 0
}

// Endpoints returns the connected (receiver, pin) pairs.
func (g *GPIO) Endpoints() []GPIOEndpoint {
	out := make([]GPIOEndpoint, len(g.endpoints))
	for i, e := range g.endpoints {
		out[i] = GPIOEndpoint{Receiver: e.receiver, Number: e.number}
	}
	return out
}

// GPIOEndpoint is one (receiver, pin) attachment of a line.
type GPIOEndpoint struct {
	Receiver GPIOReceiver
	Number   int
}

// Set drives the line to the given state.
func (g *GPIO) Set(value bool) {
	g.state = value
	for _, e := range g.endpoints {
		e.receiver.OnGPIO(e.number, value)
	}
}

// IsSet returns the current line state.
func (g *GPIO) IsSet() bool {
	return g.state
}

// Combiner OR-merges several input lines onto one output line. It is created
// by the driver whenever more than one interrupt source targets the same
// destination pin.
type Combiner struct {
	inputs []bool
	Output *GPIO
	next   int
}

// NewCombiner returns a combiner with the given input arity.
func NewCombiner(inputs int) *Combiner {
	return &Combiner{
		inputs: make([]bool, inputs),
		Output: NewGPIO(),
	}
}

// Reset clears all inputs and drops the output line.
func (c *Combiner) Reset() {
	for i := range c.inputs {
		c.inputs[i] = false
	}
	c.Output.Set(false)
}

// OnGPIO implements GPIOReceiver: any set input sets the output.
func (c *Combiner) OnGPIO(number int, value bool) {
	if number < 0 || number >= len(c.inputs) {
		return
	}
	c.inputs[number] = value
	merged := false
	for _, v := range c.inputs {
		merged = merged || v
	}
	c.Output.Set(merged)
}

// NextInputIndex hands out input pins in connection order.
func (c *Combiner) NextInputIndex() int {
	i := c.next
	c.next++
	return i
}

// Arity returns the number of input pins.
func (c *Combiner) Arity() int {
	return len(c.inputs)
}
