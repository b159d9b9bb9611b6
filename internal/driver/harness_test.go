package driver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/driver"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/periphs"
	"github.com/vk/platdesc/internal/report"
)

// initCall records one Execute invocation on the fake init handler.
type initCall struct {
	container any
	lines     []string
}

// recordingInitHandler is the test double for the host init handler.
type recordingInitHandler struct {
	validated  [][]string
	executed   []initCall
	validateErr error
	executeMsg string
}

func (h *recordingInitHandler) Validate(lines []string) error {
	h.validated = append(h.validated, lines)
	return h.validateErr
}

func (h *recordingInitHandler) Execute(container any, lines []string, onError func(string)) {
	h.executed = append(h.executed, initCall{container: container, lines: lines})
	if h.executeMsg != "" {
		onError(h.executeMsg)
	}
}

// fixture bundles a fresh machine, the stock catalog extended with the test
// mocks, and a driver around them.
type fixture struct {
	t       *testing.T
	machine *machine.Machine
	catalog *catalog.Catalog
	handler *recordingInitHandler
	driver  *driver.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.New()
	periphs.MustDescribe(cat)
	registerMocks(t, cat)
	m := machine.New()
	h := &recordingInitHandler{}
	return &fixture{
		t:       t,
		machine: m,
		catalog: cat,
		handler: h,
		driver:  driver.New(m, cat, nil, h),
	}
}

func (f *fixture) apply(source string) error {
	f.t.Helper()
	return f.driver.ProcessDescription(context.Background(), source)
}

func (f *fixture) mustApply(source string) {
	f.t.Helper()
	require.NoError(f.t, f.apply(source))
}

// byName fetches a registered peripheral, failing the test when absent.
func (f *fixture) byName(name string) machine.Peripheral {
	f.t.Helper()
	p, ok := f.machine.ByName(name)
	require.True(f.t, ok, "no peripheral named '%s'", name)
	return p
}

// expectCode asserts the error is a driver diagnostic of the given kind.
func expectCode(t *testing.T, err error, code report.Code) *report.Error {
	t.Helper()
	require.Error(t, err)
	var rerr *report.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, code, rerr.Code, "unexpected diagnostic: %v", rerr)
	return rerr
}
