package report

import (
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeNames(t *testing.T) {
	assert.Equal(t, "SyntaxError", SyntaxError.String())
	assert.Equal(t, "InternalError", InternalError.String())
	assert.Equal(t, "UnknownError", Code(999).String())
}

func TestCodeNumbersAreStable(t *testing.T) {
	// The rendered numbers are part of the diagnostic contract.
	assert.Equal(t, 0, int(SyntaxError))
	assert.Equal(t, 5, int(VariableAlreadyDeclared))
	assert.Equal(t, 23, int(CreationOrderCycle))
	assert.Equal(t, 41, int(InternalError))
}

func TestErrorRendering(t *testing.T) {
	source := "first line\ncpu: Bogus.Type\nlast line\n"
	subject := hcl.Range{
		Filename: "board.repl",
		Start:    hcl.Pos{Line: 2, Column: 6, Byte: 16},
		End:      hcl.Pos{Line: 2, Column: 16, Byte: 26},
	}

	t.Run("full underline", func(t *testing.T) {
		err := New(TypeNotResolved, subject, source, false, "could not resolve type '%s'", "Bogus.Type")
		rendered := err.Error()
		assert.Contains(t, rendered, "Error E06:")
		assert.Contains(t, rendered, "could not resolve type 'Bogus.Type'")
		assert.Contains(t, rendered, "board.repl:2:6")
		assert.Contains(t, rendered, "cpu: Bogus.Type")

		lines := strings.Split(rendered, "\n")
		caret := lines[len(lines)-1]
		assert.Equal(t, strings.Repeat(" ", 5)+strings.Repeat("^", 10), caret)
	})

	t.Run("short underline", func(t *testing.T) {
		err := New(TypeNotResolved, subject, source, true, "boom")
		lines := strings.Split(err.Error(), "\n")
		caret := lines[len(lines)-1]
		assert.Equal(t, strings.Repeat(" ", 5)+"^", caret)
	})

	t.Run("no source", func(t *testing.T) {
		err := New(UsingFileNotFound, hcl.Range{Filename: "x.repl"}, "", false, "gone")
		assert.Contains(t, err.Error(), "Error E01: gone")
	})
}

func TestDiagnosticConversion(t *testing.T) {
	subject := hcl.Range{Filename: "a.repl", Start: hcl.Pos{Line: 1, Column: 1}}
	err := New(EmptyEntry, subject, "x:", false, "entry is empty")
	diag := err.Diagnostic()
	require.NotNil(t, diag)
	assert.Equal(t, hcl.DiagError, diag.Severity)
	assert.Contains(t, diag.Summary, "E03")
	assert.Contains(t, diag.Summary, "EmptyEntry")
	assert.Equal(t, "entry is empty", diag.Detail)
	assert.Equal(t, subject, *diag.Subject)
}

func TestInternalEmbedsCallSite(t *testing.T) {
	err := Internal("impossible state: %d", 7)
	assert.Equal(t, InternalError, err.Code)
	assert.Contains(t, err.Message, "report_test.go")
	assert.Contains(t, err.Message, "impossible state: 7")
}

func TestLineAt(t *testing.T) {
	src := "one\ntwo\r\nthree"
	assert.Equal(t, "one", LineAt(src, 1))
	assert.Equal(t, "two", LineAt(src, 2))
	assert.Equal(t, "three", LineAt(src, 3))
	assert.Equal(t, "", LineAt(src, 4))
	assert.Equal(t, "", LineAt("", 1))
}
