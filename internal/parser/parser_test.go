package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/report"
)

func parseOK(t *testing.T, src string) *ast.Description {
	t.Helper()
	desc, err := Parse("test.repl", src)
	require.Nil(t, err, "unexpected parse error: %v", err)
	return desc
}

func TestParseUsing(t *testing.T) {
	desc := parseOK(t, "using \"common.repl\"\nusing \"cluster.repl\" prefix \"c0_\"\n")
	require.Len(t, desc.Usings, 2)
	assert.Equal(t, "common.repl", desc.Usings[0].Path)
	assert.Empty(t, desc.Usings[0].Prefix)
	assert.Equal(t, "cluster.repl", desc.Usings[1].Path)
	assert.Equal(t, "c0_", desc.Usings[1].Prefix)
}

func TestParseEntryShapes(t *testing.T) {
	t.Run("creating entry with registration and attributes", func(t *testing.T) {
		desc := parseOK(t, `cpu: CPU.ARMv7A @ sysbus { cpuType: "cortex-a9" }`)
		require.Len(t, desc.Entries, 1)
		e := desc.Entries[0]
		assert.Equal(t, "cpu", e.VariableName)
		require.NotNil(t, e.Type)
		assert.Equal(t, "CPU.ARMv7A", e.Type.Name)
		require.Len(t, e.RegistrationInfos, 1)
		assert.Equal(t, "sysbus", e.RegistrationInfos[0].Register.Name)
		assert.Nil(t, e.RegistrationInfos[0].Point)
		require.Len(t, e.Attributes, 1)
		attr := e.Attributes[0].(*ast.ConstructorOrPropertyAttribute)
		assert.Equal(t, "cpuType", attr.Name)
		assert.Equal(t, "cortex-a9", attr.Value.(*ast.StringValue).Value)
	})

	t.Run("updating entry with inline attribute", func(t *testing.T) {
		desc := parseOK(t, "cpu: PerformanceInMips: 1")
		e := desc.Entries[0]
		assert.Nil(t, e.Type)
		require.Len(t, e.Attributes, 1)
		attr := e.Attributes[0].(*ast.ConstructorOrPropertyAttribute)
		assert.Equal(t, "PerformanceInMips", attr.Name)
	})

	t.Run("registration with point and alias", func(t *testing.T) {
		desc := parseOK(t, `mem: Memory.MappedMemory @ sysbus 0x40000000 as "ram"`)
		e := desc.Entries[0]
		require.Len(t, e.RegistrationInfos, 1)
		info := e.RegistrationInfos[0]
		assert.Equal(t, "0x40000000", info.Point.(*ast.NumericalValue).Text)
		require.NotNil(t, e.Alias)
		assert.Equal(t, "ram", e.Alias.Value)
	})

	t.Run("cancelled registration", func(t *testing.T) {
		desc := parseOK(t, "mem: @none")
		e := desc.Entries[0]
		require.NotNil(t, e.RegistrationInfos)
		assert.Empty(t, e.RegistrationInfos)
		assert.True(t, e.ExplicitNone)
	})

	t.Run("multiple registrations", func(t *testing.T) {
		desc := parseOK(t, "dev: UART.SimpleUart @ { sysbus 0x100; apb 0x200 }")
		e := desc.Entries[0]
		require.Len(t, e.RegistrationInfos, 2)
		assert.Equal(t, "sysbus", e.RegistrationInfos[0].Register.Name)
		assert.Equal(t, "apb", e.RegistrationInfos[1].Register.Name)
	})

	t.Run("local modifier", func(t *testing.T) {
		desc := parseOK(t, "scratch: local Memory.MappedMemory")
		assert.True(t, desc.Entries[0].Local)
	})

	t.Run("empty entry", func(t *testing.T) {
		desc := parseOK(t, "x:")
		e := desc.Entries[0]
		assert.Nil(t, e.Type)
		assert.Empty(t, e.Attributes)
		assert.Nil(t, e.RegistrationInfos)
	})
}

func TestParseValues(t *testing.T) {
	attrValue := func(t *testing.T, src string) ast.Value {
		t.Helper()
		desc := parseOK(t, "x: T { v: "+src+" }")
		return desc.Entries[0].Attributes[0].(*ast.ConstructorOrPropertyAttribute).Value
	}

	t.Run("booleans", func(t *testing.T) {
		assert.True(t, attrValue(t, "true").(*ast.BoolValue).Value)
		assert.False(t, attrValue(t, "false").(*ast.BoolValue).Value)
	})

	t.Run("empty literal", func(t *testing.T) {
		assert.IsType(t, &ast.EmptyValue{}, attrValue(t, "empty"))
	})

	t.Run("none cancels", func(t *testing.T) {
		desc := parseOK(t, "x: T { v: none }")
		attr := desc.Entries[0].Attributes[0].(*ast.ConstructorOrPropertyAttribute)
		assert.True(t, attr.IsNone())
	})

	t.Run("range literal", func(t *testing.T) {
		r := attrValue(t, "<0x0, 0x1000>").(*ast.RangeValue)
		assert.Equal(t, uint64(0x0), r.Start)
		assert.Equal(t, uint64(0x1000), r.End)
	})

	t.Run("reference", func(t *testing.T) {
		ref := attrValue(t, "other").(*ast.ReferenceValue)
		assert.Equal(t, "other", ref.Name)
		assert.Equal(t, "test.repl", ref.Scope)
	})

	t.Run("enum literal stores a reversed path", func(t *testing.T) {
		e := attrValue(t, "Timers.TimerWorkMode.Periodic").(*ast.EnumValue)
		assert.Equal(t, []string{"TimerWorkMode", "Timers"}, e.TypePath)
		assert.Equal(t, "Periodic", e.Member)
		assert.Equal(t, "Timers.TimerWorkMode.Periodic", e.String())
	})

	t.Run("inline object with dotted type", func(t *testing.T) {
		obj := attrValue(t, "Mod.Thing { a: 1; b: \"s\" }").(*ast.ObjectValue)
		assert.Equal(t, "Mod.Thing", obj.TypeName.Name)
		assert.Len(t, obj.Attributes, 2)
	})

	t.Run("negative and float numbers", func(t *testing.T) {
		assert.Equal(t, "-5", attrValue(t, "-5").(*ast.NumericalValue).Text)
		assert.Equal(t, "2.5", attrValue(t, "2.5").(*ast.NumericalValue).Text)
	})
}

func TestParseIrqAttributes(t *testing.T) {
	irqOf := func(t *testing.T, src string) *ast.IrqAttribute {
		t.Helper()
		desc := parseOK(t, "x: T { "+src+" }")
		return desc.Entries[0].Attributes[0].(*ast.IrqAttribute)
	}

	t.Run("named source", func(t *testing.T) {
		irq := irqOf(t, "IRQ -> ic@5")
		require.Len(t, irq.Sources, 1)
		assert.Equal(t, "IRQ", irq.Sources[0].PropertyName)
		require.Len(t, irq.Destinations, 1)
		dest := irq.Destinations[0]
		assert.Equal(t, "ic", dest.Peripheral.Name)
		require.Len(t, dest.Ends, 1)
		assert.Equal(t, 5, dest.Ends[0].Number)
	})

	t.Run("omitted source", func(t *testing.T) {
		irq := irqOf(t, "-> cpu@0")
		assert.Nil(t, irq.Sources)
	})

	t.Run("numbered multi-source to multi-destination ends", func(t *testing.T) {
		irq := irqOf(t, "[0, 1] -> ic@[2, 3]")
		require.Len(t, irq.Sources, 2)
		assert.False(t, irq.Sources[0].IsNamed())
		assert.Equal(t, 1, irq.Sources[1].Number)
		require.Len(t, irq.Destinations, 1)
		assert.Equal(t, []int{2, 3}, []int{irq.Destinations[0].Ends[0].Number, irq.Destinations[0].Ends[1].Number})
	})

	t.Run("local receiver index", func(t *testing.T) {
		irq := irqOf(t, "IRQ -> plic#2@7")
		dest := irq.Destinations[0]
		require.NotNil(t, dest.LocalIndex)
		assert.Equal(t, 2, *dest.LocalIndex)
	})

	t.Run("several destinations", func(t *testing.T) {
		irq := irqOf(t, "IRQ -> ic@1 | cpu@0")
		require.Len(t, irq.Destinations, 2)
		assert.Equal(t, "cpu", irq.Destinations[1].Peripheral.Name)
	})

	t.Run("none destination", func(t *testing.T) {
		irq := irqOf(t, "IRQ -> none")
		require.Len(t, irq.Destinations, 1)
		assert.True(t, irq.Destinations[0].None)
	})
}

func TestParseInitAttribute(t *testing.T) {
	t.Run("lines are captured verbatim", func(t *testing.T) {
		desc := parseOK(t, "x: T { init: { sysbus LoadELF \"fw.elf\"; cpu PC 0x8000 } }")
		attr := desc.Entries[0].Attributes[0].(*ast.InitAttribute)
		assert.False(t, attr.Add)
		assert.Equal(t, []string{`sysbus LoadELF "fw.elf"`, "cpu PC 0x8000"}, attr.Lines)
	})

	t.Run("add form", func(t *testing.T) {
		desc := parseOK(t, "x: T { init add: { cpu Step } }")
		attr := desc.Entries[0].Attributes[0].(*ast.InitAttribute)
		assert.True(t, attr.Add)
		assert.Equal(t, []string{"cpu Step"}, attr.Lines)
	})

	t.Run("multi-line block", func(t *testing.T) {
		desc := parseOK(t, "x: T {\n  init: {\n    first line\n    second line\n  }\n}")
		attr := desc.Entries[0].Attributes[0].(*ast.InitAttribute)
		assert.Equal(t, []string{"first line", "second line"}, attr.Lines)
	})
}

func TestParseMultilineBlocks(t *testing.T) {
	src := "timer: Timers.SimpleTimer {\n  frequency: 1000\n  Limit: 10\n}\n"
	desc := parseOK(t, src)
	e := desc.Entries[0]
	require.Len(t, e.Attributes, 2)
}

func TestParseSyntaxErrors(t *testing.T) {
	expectError := func(t *testing.T, src, fragment string) {
		t.Helper()
		_, err := Parse("test.repl", src)
		require.NotNil(t, err)
		assert.Equal(t, report.SyntaxError, err.Code)
		assert.Contains(t, err.Error(), fragment)
	}

	t.Run("missing colon", func(t *testing.T) {
		expectError(t, "cpu CPU.ARMv7A", "':'")
	})

	t.Run("missing using path", func(t *testing.T) {
		expectError(t, "using prefix \"x\"", "string")
	})

	t.Run("unclosed attribute block", func(t *testing.T) {
		expectError(t, "x: T { a: 1", "'}'")
	})

	t.Run("expected alternatives are listed", func(t *testing.T) {
		_, err := Parse("test.repl", "x: T { @ }")
		require.NotNil(t, err)
		assert.Contains(t, err.Message, " or ")
	})

	t.Run("error quotes the source line with a caret", func(t *testing.T) {
		_, err := Parse("test.repl", "cpu CPU.ARMv7A")
		require.NotNil(t, err)
		rendered := err.Error()
		assert.Contains(t, rendered, "cpu CPU.ARMv7A")
		assert.Contains(t, rendered, "^")
		assert.Contains(t, rendered, "test.repl:1:")
	})
}

func TestParseNumberValues(t *testing.T) {
	t.Run("hex is parsed", func(t *testing.T) {
		desc := parseOK(t, "x: T { v: 0x10 }")
		num := desc.Entries[0].Attributes[0].(*ast.ConstructorOrPropertyAttribute).Value.(*ast.NumericalValue)
		i, _ := num.Number.AsBigFloat().Int64()
		assert.Equal(t, int64(16), i)
	})

	t.Run("malformed hex is a syntax error", func(t *testing.T) {
		_, err := Parse("test.repl", "x: T { v: 0x }")
		require.NotNil(t, err)
		assert.Equal(t, report.SyntaxError, err.Code)
	})
}
