package machine

// Bus is the system bus container: peripherals register into it at address
// ranges, single addresses, or with no addressing at all (CPUs and other
// non-mapped devices).
type Bus struct {
	mapped   []BusMapping
	unmapped []Peripheral
}

// BusMapping records one address-mapped child of the bus.
type BusMapping struct {
	Peripheral Peripheral
	Range      Range
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Reset clears nothing on the bus itself; children are registered on the
// machine and reset there.
func (b *Bus) Reset() {}

// RegisterPeripheral implements PeripheralContainer. Mapped registrations
// must not overlap an existing mapping.
func (b *Bus) RegisterPeripheral(m *Machine, p Peripheral, point RegistrationPoint) error {
	switch pt := point.(type) {
	case *NullRegistration:
		if _, ok := p.(BusPeripheral); ok {
			return Recoverable("bus peripheral requires an address to register at")
		}
		b.unmapped = append(b.unmapped, p)
	case *BusRangeRegistration:
		if err := b.mapRange(p, pt.Range); err != nil {
			return err
		}
	case *BusPointRegistration:
		if err := b.mapRange(p, Range{Start: pt.Address, End: pt.Address + 1}); err != nil {
			return err
		}
	default:
		return Recoverable("unsupported registration point %s", point.PrettyString())
	}
	m.Attach(p)
	return nil
}

func (b *Bus) mapRange(p Peripheral, r Range) error {
	for _, existing := range b.mapped {
		if r.Start < existing.Range.End && existing.Range.Start < r.End {
			return Recoverable("range %s overlaps already mapped %s", r, existing.Range)
		}
	}
	b.mapped = append(b.mapped, BusMapping{Peripheral: p, Range: r})
	return nil
}

// Mappings returns the address-mapped children in registration order.
func (b *Bus) Mappings() []BusMapping {
	out := make([]BusMapping, len(b.mapped))
	copy(out, b.mapped)
	return out
}

// Unmapped returns the children registered without addressing.
func (b *Bus) Unmapped() []Peripheral {
	out := make([]Peripheral, len(b.unmapped))
	copy(out, b.unmapped)
	return out
}
