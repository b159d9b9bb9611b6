package driver

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/report"
)

// registerAll registers the entries in registration order using a fixpoint
// loop: only entries whose every register is already on the machine (or a
// builtin) register in a pass; the loop repeats until stable so siblings can
// register across passes.
func (s *state) registerAll(order []*mergedEntry) error {
	var pending []*mergedEntry
	for _, me := range order {
		if len(me.entry.RegistrationInfos) > 0 && me.variable.value != nil {
			pending = append(pending, me)
		}
	}

	for len(pending) > 0 {
		var stalled []*mergedEntry
		progressed := false
		for _, me := range pending {
			if !s.registersReady(me) {
				stalled = append(stalled, me)
				continue
			}
			if err := s.registerEntry(me); err != nil {
				return err
			}
			progressed = true
		}
		if !progressed {
			me := stalled[0]
			return s.fail(report.RegistrationException, me.entry.RegistrationInfos[0].Range,
				"cannot register '%s': its register is never registered on the machine", me.variable.name)
		}
		pending = stalled
	}
	return nil
}

func (s *state) registersReady(me *mergedEntry) bool {
	for _, info := range me.entry.RegistrationInfos {
		if info.Register == nil {
			continue
		}
		regVar, ok := s.store.find(info.Register)
		if !ok {
			return false
		}
		if regVar.builtin {
			continue
		}
		p, isPeripheral := regVar.value.(machine.Peripheral)
		if !isPeripheral || !s.d.machine.IsRegistered(p) {
			return false
		}
	}
	return true
}

func (s *state) registerEntry(me *mergedEntry) error {
	peripheral, ok := me.variable.value.(machine.Peripheral)
	if !ok {
		return s.fail(report.CastException, me.entry.VariableRange,
			"'%s' is not a peripheral and cannot be registered", me.variable.name)
	}

	for _, info := range me.entry.RegistrationInfos {
		if info.Register == nil {
			continue
		}
		if err := s.registerAt(me, peripheral, info); err != nil {
			return err
		}
	}

	name := me.variable.name
	if me.entry.Alias != nil {
		name = me.entry.Alias.Value
	}
	if err := s.d.machine.SetLocalName(peripheral, name); err != nil {
		if machine.IsRecoverable(err) {
			return s.fail(report.NameSettingException, me.entry.VariableRange,
				"cannot name '%s': %v", name, err)
		}
		return err
	}
	s.log.Debug("registered peripheral", "variable", me.variable.name, "name", name)
	return nil
}

func (s *state) registerAt(me *mergedEntry, peripheral machine.Peripheral, info *ast.RegistrationInfo) error {
	regVar, ok := s.store.find(info.Register)
	if !ok {
		return report.Internal("register '%s' vanished between validation and build", info.Register.Name)
	}
	container, ok := regVar.value.(machine.PeripheralContainer)
	if !ok {
		return s.fail(report.CastException, info.Register.Range,
			"'%s' does not accept registrations", info.Register.Name)
	}

	point, err := s.buildRegistrationPoint(info)
	if err != nil {
		return err
	}

	if err := container.RegisterPeripheral(s.d.machine, peripheral, point); err != nil {
		if machine.IsRecoverable(err) {
			return s.fail(report.RegistrationException, info.Range,
				"registering '%s' at '%s' failed: %v", me.variable.name, info.Register.Name, err)
		}
		return err
	}
	return nil
}

// buildRegistrationPoint realizes the point decided during validation: the
// null point, a constructed point from the selected constructor, a
// referenced value, or an inline object.
func (s *state) buildRegistrationPoint(info *ast.RegistrationInfo) (machine.RegistrationPoint, error) {
	res := s.regResolution[info]
	if res == nil {
		return nil, report.Internal("registration info at %s was never resolved", info.Range)
	}

	switch {
	case res.useNull:
		return machine.NullRegistrationPoint, nil

	case res.pointCtor != nil:
		obj, err := s.invokePointCtor(res, info)
		if err != nil {
			return nil, err
		}
		point, ok := obj.(machine.RegistrationPoint)
		if !ok {
			return nil, s.fail(report.CastException, info.Range,
				"constructed value is not a registration point")
		}
		return point, nil

	case res.pointRef != nil:
		v, ok := s.store.find(res.pointRef)
		if !ok {
			return nil, report.Internal("registration point reference '%s' vanished", res.pointRef.Name)
		}
		point, ok := v.value.(machine.RegistrationPoint)
		if !ok {
			return nil, s.fail(report.CastException, res.pointRef.Range,
				"'%s' is not a registration point", res.pointRef.Name)
		}
		return point, nil

	case res.pointObj != nil:
		obj, err := s.constructObjectValue(res.pointObj)
		if err != nil {
			return nil, err
		}
		point, ok := obj.(machine.RegistrationPoint)
		if !ok {
			return nil, s.fail(report.CastException, res.pointObj.Range,
				"%s is not a registration point", s.objectType[res.pointObj].Name)
		}
		return point, nil
	}

	return machine.NullRegistrationPoint, nil
}

// runInitSections first drains the inline-object init queue in FIFO order,
// then hands every entry's init lines to the handler, following the
// registration order.
func (s *state) runInitSections(order []*mergedEntry) error {
	if s.d.initHandler == nil {
		return nil
	}

	for i := 0; i < len(s.initQueue); i++ {
		job := s.initQueue[i]
		lines := initLinesOf(job.value.Attributes)
		if len(lines) == 0 {
			continue
		}
		if err := s.executeInit(job.object, lines, job.value.Range); err != nil {
			return err
		}
	}

	for _, me := range order {
		if len(me.initLines) == 0 || me.variable.value == nil {
			continue
		}
		if err := s.executeInit(me.variable.value, me.initLines, me.initAttributeRange()); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) executeInit(container any, lines []string, at hcl.Range) error {
	var failure string
	s.d.initHandler.Execute(container, lines, func(message string) {
		if failure == "" {
			failure = message
		}
	})
	if failure != "" {
		return s.fail(report.InitSectionValidationError, at,
			"init section failed: %s", failure)
	}
	return nil
}

func initLinesOf(attrs []ast.Attribute) []string {
	var lines []string
	for _, attr := range attrs {
		if a, ok := attr.(*ast.InitAttribute); ok {
			lines = append(lines, a.Lines...)
		}
	}
	return lines
}

// invokePointCtor calls the registration point constructor selected during
// validation: the converted simple value feeds the first parameter, defaults
// and the ambient machine fill the rest.
func (s *state) invokePointCtor(res *regResolution, info *ast.RegistrationInfo) (any, error) {
	ctor := res.pointCtor
	args := make([]reflect.Value, len(ctor.Params))
	args[0] = res.firstArg
	for i, param := range ctor.Params[1:] {
		switch {
		case param.HasDefault:
			if param.Default == nil {
				args[i+1] = reflect.Zero(param.Type)
			} else {
				args[i+1] = reflect.ValueOf(param.Default)
			}
		case param.Type == catalog.MachineType:
			args[i+1] = reflect.ValueOf(s.d.machine)
		default:
			return nil, report.Internal("parameter '%s' of %s survived selection unfilled", param.Name, res.pointType.Name)
		}
	}
	obj, err := ctor.Invoke(args)
	if err != nil {
		if machine.IsRecoverable(err) {
			return nil, s.fail(report.RegistrationException, info.Range,
				"building the registration point failed: %v", err)
		}
		return nil, err
	}
	return obj, nil
}
