// Package kplanfile reads logical plans from HCL documents:
//
//	settings = {
//	  "kplan.maxContainers" = 4
//	}
//
//	operator "numbers" {
//	  type  = "generator"
//	  count = 100
//	  attributes = {
//	    "kplan.operator.initialPartitionCount" = 2
//	  }
//	  port "out" {
//	    attributes = { "kplan.port.queueCapacity" = 64 }
//	  }
//	}
//
//	stream "numbers" {
//	  source = "numbers.out"
//	  sinks  = ["console.in"]
//	}
//
// Every other argument of an operator block is type config, decoded into the
// instance returned by the type's factory using its hcl struct tags.
package kplanfile

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/kdag"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var (
	ErrInvalidPlanFile  = errors.New("invalid plan file")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "settings"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "operator", LabelNames: []string{"id"}},
		{Type: "stream", LabelNames: []string{"id"}},
	},
}

type operatorBody struct {
	Type       string         `hcl:"type"`
	Attributes hcl.Expression `hcl:"attributes,optional"`
	Ports      []*portBlock   `hcl:"port,block"`
	Config     hcl.Body       `hcl:",remain"`
}

type portBlock struct {
	Name       string         `hcl:"name,label"`
	Attributes hcl.Expression `hcl:"attributes,optional"`
}

type streamBody struct {
	Source *string  `hcl:"source,optional"`
	Sinks  []string `hcl:"sinks,optional"`
	Inline bool     `hcl:"inline,optional"`
}

// Loader builds DAGs from plan files.
type Loader struct {
	types   *Registry
	log     *slog.Logger
	dagOpts []kdag.Option
}

type Option func(*Loader)

var WithLog = func(log *slog.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// WithDAGOptions sets the options passed to kdag.New for every loaded plan.
var WithDAGOptions = func(opts ...kdag.Option) Option {
	return func(l *Loader) {
		l.dagOpts = opts
	}
}

func NewLoader(types *Registry, opts ...Option) *Loader {
	l := &Loader{types: types, log: kdag.NullLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile parses and builds the plan in path. The returned DAG is not
// validated.
func (l *Loader) LoadFile(path string) (*kdag.DAG, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}
	return l.build(file.Body)
}

// Load parses and builds the plan in src. filename is only used in error
// positions.
func (l *Loader) Load(src []byte, filename string) (*kdag.DAG, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}
	return l.build(file.Body)
}

func (l *Loader) build(body hcl.Body) (*kdag.DAG, error) {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}

	d := kdag.New(l.dagOpts...)
	if attr, ok := content.Attributes["settings"]; ok {
		if err := applyAttributes(d.Attributes(), attr.Expr, kattr.ScopeDAG); err != nil {
			return nil, err
		}
	}

	for _, block := range content.Blocks.OfType("operator") {
		if err := l.addOperator(d, block); err != nil {
			return nil, err
		}
	}
	for _, block := range content.Blocks.OfType("stream") {
		if err := addStream(d, block); err != nil {
			return nil, err
		}
	}

	l.log.Debug("Plan file loaded", "operators", len(d.Operators()), "streams", len(d.Streams()))
	return d, nil
}

func (l *Loader) addOperator(d *kdag.DAG, block *hcl.Block) error {
	id := block.Labels[0]

	var body operatorBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}

	op, err := l.types.New(body.Type)
	if err != nil {
		return fmt.Errorf("%s: operator %s: %w", block.DefRange, id, err)
	}
	if diags := gohcl.DecodeBody(body.Config, nil, op); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}

	meta, err := d.AddOperator(id, op)
	if err != nil {
		return fmt.Errorf("%s: %w", block.DefRange, err)
	}
	if err := applyAttributes(meta.Attributes(), body.Attributes, kattr.ScopeOperator); err != nil {
		return err
	}

	for _, p := range body.Ports {
		attrs, err := portAttributes(meta, p.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", block.DefRange, err)
		}
		if err := applyAttributes(attrs, p.Attributes, kattr.ScopePort); err != nil {
			return err
		}
	}
	return nil
}

func portAttributes(meta *kdag.OperatorMeta, name string) (*kattr.Map, error) {
	if in, err := meta.InputPort(name); err == nil {
		return in.Attributes(), nil
	}
	out, err := meta.OutputPort(name)
	if err != nil {
		return nil, err
	}
	return out.Attributes(), nil
}

func addStream(d *kdag.DAG, block *hcl.Block) error {
	id := block.Labels[0]

	var body streamBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}

	s, err := d.AddStream(id)
	if err != nil {
		return fmt.Errorf("%s: %w", block.DefRange, err)
	}
	s.SetInline(body.Inline)

	if body.Source != nil {
		opID, port, err := splitRef(*body.Source)
		if err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
		o, ok := d.Operator(opID)
		if !ok {
			return fmt.Errorf("%s: stream %s: %w: %s", block.DefRange, id, kdag.ErrOperatorNotFound, opID)
		}
		out, err := o.OutputPort(port)
		if err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
		if err := s.SetSource(out.Port()); err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
	}

	for _, ref := range body.Sinks {
		opID, port, err := splitRef(ref)
		if err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
		o, ok := d.Operator(opID)
		if !ok {
			return fmt.Errorf("%s: stream %s: %w: %s", block.DefRange, id, kdag.ErrOperatorNotFound, opID)
		}
		in, err := o.InputPort(port)
		if err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
		if err := s.AddSink(in.Port()); err != nil {
			return fmt.Errorf("%s: stream %s: %w", block.DefRange, id, err)
		}
	}
	return nil
}

// splitRef splits "operator.port" at the last dot.
func splitRef(ref string) (string, string, error) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: %q is not of the form operator.port", kdag.ErrInvalidPortReference, ref)
	}
	return ref[:i], ref[i+1:], nil
}

// applyAttributes evaluates expr to an object of attribute name to value and
// loads the values into m. Every name must be a registered key of scope.
func applyAttributes(m *kattr.Map, expr hcl.Expression, scope kattr.Scope) error {
	if expr == nil {
		return nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidPlanFile, diags)
	}
	if val.IsNull() {
		return nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return fmt.Errorf("%s: %w: attributes must be an object, got %s", expr.Range(), ErrInvalidPlanFile, val.Type().FriendlyName())
	}

	raw := kattr.MapSource{}
	var keys []kattr.AnyKey
	for name, v := range val.AsValueMap() {
		k, ok := kattr.Lookup(name)
		if !ok || k.Scope() != scope {
			return fmt.Errorf("%s: %w: %s attribute %q", expr.Range(), ErrUnknownAttribute, scope, name)
		}
		s, err := render(v)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", expr.Range(), name, err)
		}
		raw[name] = s
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b kattr.AnyKey) int { return strings.Compare(a.Name(), b.Name()) })

	if err := kattr.Load(m, raw, keys...); err != nil {
		return fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return nil
}

// render converts a primitive value to the string form kattr parses.
func render(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("%w: value must be known and not null", ErrInvalidPlanFile)
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case cty.Bool:
		return strconv.FormatBool(v.True()), nil
	default:
		return "", fmt.Errorf("%w: unsupported value type %s", ErrInvalidPlanFile, v.Type().FriendlyName())
	}
}
