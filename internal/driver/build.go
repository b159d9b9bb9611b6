package driver

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/report"
)

// build runs the construction pipeline: create objects in creation order,
// pre-build interrupt combiners, set properties and wire interrupts, drain
// deferred inline objects, register peripherals in registration order with a
// fixpoint loop, run init sections, and finally notify the machine.
func (s *state) build() error {
	creation, rerr := s.creationOrder()
	if rerr != nil {
		return rerr
	}
	registration, rerr := s.registrationOrder()
	if rerr != nil {
		return rerr
	}

	for _, me := range creation {
		if err := s.createEntry(me); err != nil {
			return err
		}
	}

	s.prepareCombiners()

	for _, me := range creation {
		if err := s.updateEntry(me); err != nil {
			return err
		}
	}
	if err := s.drainUpdateQueue(); err != nil {
		return err
	}

	if err := s.registerAll(registration); err != nil {
		return err
	}

	if err := s.runInitSections(registration); err != nil {
		return err
	}

	s.d.machine.PostCreationActions()
	return nil
}

// createEntry constructs the entry's object and fills the variable's value
// slot. Entries that do not create are skipped; builtins already carry their
// value.
func (s *state) createEntry(me *mergedEntry) error {
	sel := s.entryCtor[me.entry]
	if sel == nil {
		return nil
	}
	obj, err := s.invokeCtor(me.variable.typ, sel, me.entry.Range)
	if err != nil {
		return err
	}
	me.variable.value = obj
	s.log.Debug("created peripheral", "variable", me.variable.name, "type", me.variable.typ.Name)
	return nil
}

// invokeCtor materializes the selected overload's arguments and calls it.
func (s *state) invokeCtor(typ *catalog.Type, sel *ctorSelection, at hcl.Range) (any, error) {
	args := make([]reflect.Value, len(sel.ctor.Params))
	for i, param := range sel.ctor.Params {
		attr := sel.args[i]
		switch {
		case attr != nil:
			v, err := s.materializeValue(attr.Value, param.Type)
			if err != nil {
				return nil, err
			}
			args[i] = v
		case param.HasDefault:
			if param.Default == nil {
				args[i] = reflect.Zero(param.Type)
			} else {
				args[i] = reflect.ValueOf(param.Default)
			}
		case param.Type == catalog.MachineType:
			args[i] = reflect.ValueOf(s.d.machine)
		default:
			return nil, report.Internal("parameter '%s' of %s survived selection unfilled", param.Name, typ.Name)
		}
	}

	obj, err := sel.ctor.Invoke(args)
	if err != nil {
		if machine.IsRecoverable(err) {
			return nil, s.fail(report.ConstructionException, at,
				"constructing %s failed: %v", typ.Name, err)
		}
		return nil, err
	}
	return obj, nil
}

// materializeValue produces the runtime value of an already-validated value
// node for the given target type.
func (s *state) materializeValue(value ast.Value, target reflect.Type) (reflect.Value, error) {
	switch val := value.(type) {
	case *ast.ReferenceValue:
		v, ok := s.store.find(val)
		if !ok || v.value == nil {
			return reflect.Value{}, report.Internal("reference '%s' has no value at build time", val.Name)
		}
		return reflect.ValueOf(v.value), nil
	case *ast.ObjectValue:
		obj, err := s.constructObjectValue(val)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(obj), nil
	}

	res := s.convertSimple(value, target)
	if !res.ok {
		return reflect.Value{}, report.Internal("validated value failed to convert: %s", res.reason)
	}
	return res.value, nil
}

// constructObjectValue builds an inline object via its selected constructor
// and defers its property setting and init section to the queues.
func (s *state) constructObjectValue(obj *ast.ObjectValue) (any, error) {
	typ := s.objectType[obj]
	sel := s.objectCtor[obj]
	if typ == nil || sel == nil {
		return nil, report.Internal("inline object at %s was not prepared", obj.Range)
	}
	instance, err := s.invokeCtor(typ, sel, obj.Range)
	if err != nil {
		return nil, err
	}
	job := &objectValueJob{object: instance, typ: typ, value: obj}
	s.updateQueue = append(s.updateQueue, job)
	s.initQueue = append(s.initQueue, job)
	return instance, nil
}

// prepareCombiners counts interrupt fan-ins across every flattened hookup
// and pre-builds a combiner wherever a destination pin is fed more than
// once.
func (s *state) prepareCombiners() {
	counts := make(map[irqDestinationKey]int)
	for _, me := range s.merged {
		for _, attr := range me.entry.Attributes {
			if a, ok := attr.(*ast.IrqAttribute); ok {
				for _, h := range s.flattenedIrqs[a] {
					counts[h.key()]++
				}
			}
		}
	}
	for key, count := range counts {
		if count > 1 {
			combiner := machine.NewCombiner(count)
			s.combiners[key] = &combinerConnection{combiner: combiner}
			s.d.machine.AttachCombiner(combiner)
			s.log.Debug("created interrupt combiner", "destination", key.destName,
				"pin", key.destNumber, "inputs", count)
		}
	}
}

func (h *irqHookup) key() irqDestinationKey {
	return irqDestinationKey{destName: h.destVar.name, localIndex: h.localIndex, destNumber: h.destNumber}
}

// updateEntry sets the entry's properties and wires its interrupts.
func (s *state) updateEntry(me *mergedEntry) error {
	obj := me.variable.value
	if obj == nil {
		return nil
	}
	typ := s.typeOf(me.variable)

	if err := s.setProperties(obj, typ, me.entry.Attributes); err != nil {
		return err
	}

	for _, attr := range me.entry.Attributes {
		if a, ok := attr.(*ast.IrqAttribute); ok {
			for _, h := range s.flattenedIrqs[a] {
				if err := s.connectIrq(obj, typ, h); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *state) setProperties(obj any, typ *catalog.Type, attrs []ast.Attribute) error {
	for _, attr := range attrs {
		a, ok := attr.(*ast.ConstructorOrPropertyAttribute)
		if !ok || !s.isProperty[a] || a.IsNone() {
			continue
		}
		prop, found := typ.Property(a.Name)
		if !found {
			return report.Internal("property '%s' vanished between validation and build", a.Name)
		}
		value, err := s.materializeValue(a.Value, prop.Type)
		if err != nil {
			return err
		}
		if err := typ.SetProperty(obj, prop, value); err != nil {
			if machine.IsRecoverable(err) {
				return s.fail(report.PropertySettingException, a.Range,
					"setting property '%s' failed: %v", a.Name, err)
			}
			return err
		}
	}
	return nil
}

// connectIrq wires one flattened hookup, routing through the pre-built
// combiner when the destination pin has fan-in.
func (s *state) connectIrq(obj any, typ *catalog.Type, h *irqHookup) error {
	var source *machine.GPIO
	if h.source.IsNamed() {
		prop, ok := typ.Property(h.source.PropertyName)
		if !ok {
			return report.Internal("GPIO property '%s' vanished between validation and build", h.source.PropertyName)
		}
		gp, _ := typ.GetProperty(obj, prop).Interface().(*machine.GPIO)
		if gp == nil {
			return s.fail(report.UninitializedSourceIrqObject, h.source.Range,
				"GPIO property '%s' is not initialized", h.source.PropertyName)
		}
		source = gp
	} else {
		out, ok := obj.(machine.NumberedGPIOOutput)
		if !ok {
			return report.Internal("numbered GPIO output vanished between validation and build")
		}
		gp, present := out.Connections()[h.source.Number]
		if !present {
			return s.fail(report.IrqSourcePinDoesNotExist, h.source.Range,
				"there is no output pin %d", h.source.Number)
		}
		if gp == nil {
			return s.fail(report.UninitializedSourceIrqObject, h.source.Range,
				"output pin %d is not initialized", h.source.Number)
		}
		source = gp
	}

	receiver, ok := h.destVar.value.(machine.GPIOReceiver)
	if !ok {
		return report.Internal("interrupt destination '%s' is not a receiver at build time", h.destVar.name)
	}
	if h.localIndex >= 0 {
		local, ok := h.destVar.value.(machine.LocalGPIOReceiver)
		if !ok {
			return report.Internal("local receiver on '%s' vanished between validation and build", h.destVar.name)
		}
		receiver = local.GetLocalReceiver(h.localIndex)
	}

	if cc, fanIn := s.combiners[h.key()]; fanIn {
		if !cc.outputConnected {
			cc.combiner.Output.Connect(receiver, h.destNumber)
			cc.outputConnected = true
		}
		source.Connect(cc.combiner, cc.combiner.NextInputIndex())
		return nil
	}
	source.Connect(receiver, h.destNumber)
	return nil
}

// drainUpdateQueue finishes the deferred inline objects. Setting their
// properties may construct further inline objects, which append to the
// queue.
func (s *state) drainUpdateQueue() error {
	for i := 0; i < len(s.updateQueue); i++ {
		job := s.updateQueue[i]
		if err := s.setProperties(job.object, job.typ, job.value.Attributes); err != nil {
			return err
		}
	}
	return nil
}
