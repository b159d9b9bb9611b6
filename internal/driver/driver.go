// Package driver turns a textual platform description into a live object
// graph attached to a host Machine: it parses the description, pulls in its
// usings, merges per-variable entries, validates them against the capability
// catalog, sorts them, and builds, wires and registers the peripherals.
package driver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/ast"
	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/ctxlog"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/parser"
	"github.com/vk/platdesc/internal/report"
)

// DescriptionName is the synthetic file name of descriptions passed as text.
const DescriptionName = "(description)"

// UsingResolver maps a using path and the file containing the directive to a
// filesystem path.
type UsingResolver func(path, includingFile string) (string, error)

// DefaultUsingResolver resolves using paths relative to the including file.
func DefaultUsingResolver(path, includingFile string) (string, error) {
	if filepath.IsAbs(path) || includingFile == DescriptionName || includingFile == "" {
		return path, nil
	}
	return filepath.Join(filepath.Dir(includingFile), path), nil
}

// InitHandler validates init sections during validation and executes them
// once the object graph is fully built.
type InitHandler interface {
	Validate(lines []string) error
	Execute(container any, lines []string, onError func(message string))
}

// Driver is the description front-end for one machine. It keeps no state
// between Process calls; everything scratch lives for a single call.
type Driver struct {
	machine     *machine.Machine
	catalog     *catalog.Catalog
	resolver    UsingResolver
	initHandler InitHandler
}

// New creates a driver for the given machine and catalog. resolver may be
// nil for the default relative-path resolution; initHandler may be nil when
// descriptions carry no init sections.
func New(m *machine.Machine, cat *catalog.Catalog, resolver UsingResolver, initHandler InitHandler) *Driver {
	if resolver == nil {
		resolver = DefaultUsingResolver
	}
	return &Driver{
		machine:     m,
		catalog:     cat,
		resolver:    resolver,
		initHandler: initHandler,
	}
}

// ProcessDescription parses and applies a description given as text.
func (d *Driver) ProcessDescription(ctx context.Context, source string) error {
	return d.process(ctx, DescriptionName, source)
}

// ProcessFile parses and applies a description file.
func (d *Driver) ProcessFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.New(report.UsingFileNotFound, noRange(path), "", true,
			"could not read '%s': %v", path, err)
	}
	return d.process(ctx, path, string(data))
}

func (d *Driver) process(ctx context.Context, file, source string) error {
	s := newState(d, ctxlog.FromContext(ctx))
	defer s.clear()

	s.log.Debug("processing description", "file", file)
	// The root file joins the in-progress stack so a description using
	// itself is caught like any other cycle.
	if file != DescriptionName {
		if abs, err := filepath.Abs(file); err == nil {
			s.usingsInProgress = append(s.usingsInProgress, abs)
		}
	}
	if err := s.processInner(file, source, ""); err != nil {
		return err
	}
	if err := s.declareAll(); err != nil {
		return err
	}
	if err := s.validatePreMerge(); err != nil {
		return err
	}
	if err := s.mergeEntries(); err != nil {
		return err
	}
	if err := s.validatePostMerge(); err != nil {
		return err
	}
	if err := s.build(); err != nil {
		return err
	}
	s.log.Debug("description applied", "variables", len(s.merged))
	return nil
}

// processInner parses one description and recursively pulls in its usings,
// depth-first, before recording the description itself.
func (s *state) processInner(file, source, prefix string) *report.Error {
	desc, err := parser.Parse(file, source)
	if err != nil {
		return err
	}
	s.sources[file] = source

	for _, using := range desc.Usings {
		if err := s.processUsing(using, file, prefix); err != nil {
			return err
		}
	}

	if prefix != "" {
		applyPrefix(desc, prefix)
	}
	s.descriptions = append(s.descriptions, desc)
	return nil
}

func (s *state) processUsing(using *ast.Using, includingFile, prefix string) *report.Error {
	resolved, err := s.d.resolver(using.Path, includingFile)
	if err != nil {
		return report.New(report.UsingFileNotFound, using.PathRange, s.sources[includingFile], false,
			"could not resolve using '%s': %v", using.Path, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}

	for i, inProgress := range s.usingsInProgress {
		if inProgress == abs {
			return report.New(report.RecurringUsing, using.PathRange, s.sources[includingFile], false,
				"recurring using of '%s':\n%s", using.Path, usingLadder(s.usingsInProgress[i:], abs))
		}
	}

	data, rerr := os.ReadFile(abs)
	if rerr != nil {
		return report.New(report.UsingFileNotFound, using.PathRange, s.sources[includingFile], false,
			"could not load '%s': %v", using.Path, rerr)
	}

	s.usingsInProgress = append(s.usingsInProgress, abs)
	defer func() { s.usingsInProgress = s.usingsInProgress[:len(s.usingsInProgress)-1] }()

	return s.processInner(abs, string(data), prefix+using.Prefix)
}

func usingLadder(stack []string, last string) string {
	out := ""
	for _, f := range stack {
		out += f + " uses\n"
	}
	return out + last
}

func noRange(file string) hcl.Range {
	return hcl.Range{Filename: file}
}

// applyPrefix renames every variable declared in the description and every
// reference written in it. References keep their own file as lookup scope.
func applyPrefix(desc *ast.Description, prefix string) {
	var prefixValue func(v ast.Value)
	var prefixAttrs func(attrs []ast.Attribute)

	prefixValue = func(v ast.Value) {
		switch val := v.(type) {
		case *ast.ReferenceValue:
			val.Prefix = prefix
		case *ast.ObjectValue:
			prefixAttrs(val.Attributes)
		}
	}
	prefixAttrs = func(attrs []ast.Attribute) {
		for _, attr := range attrs {
			switch a := attr.(type) {
			case *ast.ConstructorOrPropertyAttribute:
				if a.Value != nil {
					prefixValue(a.Value)
				}
			case *ast.IrqAttribute:
				for _, dest := range a.Destinations {
					if dest.Peripheral != nil {
						dest.Peripheral.Prefix = prefix
					}
				}
			}
		}
	}

	for _, entry := range desc.Entries {
		entry.VariableName = prefix + entry.VariableName
		for _, info := range entry.RegistrationInfos {
			if info.Register != nil {
				info.Register.Prefix = prefix
			}
			if info.Point != nil {
				prefixValue(info.Point)
			}
		}
		prefixAttrs(entry.Attributes)
	}
}
