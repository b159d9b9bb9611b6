package machine

// MachineKeyword is the builtin variable name under which descriptions see
// the machine itself.
const MachineKeyword = "machine"

// SystemBusName is the local name of the bus every fresh machine owns.
const SystemBusName = "sysbus"

// NamedPeripheral pairs a registered peripheral with its local name. The
// name may be empty until SetLocalName is called.
type NamedPeripheral struct {
	Name       string
	Peripheral Peripheral
}

// Machine owns every peripheral created from a description. It is the
// ambient instance injected into constructors that take a machine parameter.
type Machine struct {
	SystemBus *Bus

	registered []NamedPeripheral
	index      map[Peripheral]int
	combiners  []*Combiner
	hooks      []func()
}

// New creates a machine with its system bus already registered under
// SystemBusName.
func New() *Machine {
	m := &Machine{index: make(map[Peripheral]int)}
	m.SystemBus = NewBus()
	m.Attach(m.SystemBus)
	_ = m.SetLocalName(m.SystemBus, SystemBusName)
	return m
}

// Attach marks a peripheral as registered on the machine. Attaching twice is
// a no-op, so a peripheral registered into several containers stays listed
// once.
func (m *Machine) Attach(p Peripheral) {
	if _, ok := m.index[p]; ok {
		return
	}
	m.index[p] = len(m.registered)
	m.registered = append(m.registered, NamedPeripheral{Peripheral: p})
}

// IsRegistered reports whether the peripheral is attached to the machine.
func (m *Machine) IsRegistered(p Peripheral) bool {
	_, ok := m.index[p]
	return ok
}

// SetLocalName names a registered peripheral. Renaming and duplicate names
// are recoverable errors.
func (m *Machine) SetLocalName(p Peripheral, name string) error {
	i, ok := m.index[p]
	if !ok {
		return Recoverable("peripheral is not registered on this machine")
	}
	for j, np := range m.registered {
		if np.Name == name && j != i {
			return Recoverable("name '%s' is already used by another peripheral", name)
		}
	}
	if m.registered[i].Name != "" && m.registered[i].Name != name {
		return Recoverable("peripheral is already named '%s'", m.registered[i].Name)
	}
	m.registered[i].Name = name
	return nil
}

// LocalName returns the name of a registered peripheral, if it has one.
func (m *Machine) LocalName(p Peripheral) (string, bool) {
	if i, ok := m.index[p]; ok && m.registered[i].Name != "" {
		return m.registered[i].Name, true
	}
	return "", false
}

// ByName finds a registered peripheral by its local name.
func (m *Machine) ByName(name string) (Peripheral, bool) {
	for _, np := range m.registered {
		if np.Name == name {
			return np.Peripheral, true
		}
	}
	return nil, false
}

// Registered enumerates the registered peripherals in attach order.
func (m *Machine) Registered() []NamedPeripheral {
	out := make([]NamedPeripheral, len(m.registered))
	copy(out, m.registered)
	return out
}

// AttachCombiner keeps a driver-created interrupt combiner alive for the
// machine's lifetime.
func (m *Machine) AttachCombiner(c *Combiner) {
	m.combiners = append(m.combiners, c)
}

// Combiners returns the interrupt combiners attached so far.
func (m *Machine) Combiners() []*Combiner {
	return m.combiners
}

// OnPostCreation registers a hook run after every successful description
// application.
func (m *Machine) OnPostCreation(hook func()) {
	m.hooks = append(m.hooks, hook)
}

// PostCreationActions runs the post-creation hooks.
func (m *Machine) PostCreationActions() {
	for _, hook := range m.hooks {
		hook()
	}
}

// Reset resets every registered peripheral.
func (m *Machine) Reset() {
	for _, np := range m.registered {
		np.Peripheral.Reset()
	}
}
