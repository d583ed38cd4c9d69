package operators

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kplanfile"
	"github.com/birdayz/kplan/kserde"
)

func TestPorts(t *testing.T) {
	tests := []struct {
		name    string
		op      koperator.Operator
		inputs  map[string]bool
		outputs map[string]bool
	}{
		{"generator", NewGenerator(), map[string]bool{}, map[string]bool{"out": false}},
		{"passthrough", NewPassthrough[string](), map[string]bool{"in": false}, map[string]bool{"out": false}},
		{"union", NewUnion[int64](), map[string]bool{"first": false, "second": true}, map[string]bool{"out": false}},
		{"console", NewConsole[float64](), map[string]bool{"in": false}, map[string]bool{}},
		{"filter", NewFilter[string](), map[string]bool{"in": false}, map[string]bool{"out": false, "reject": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports, err := koperator.DefaultDescriber.Describe(tt.op)
			assert.NoError(t, err)

			inputs := map[string]bool{}
			for _, in := range ports.Inputs {
				inputs[in.Name] = in.Optional
			}
			outputs := map[string]bool{}
			for _, out := range ports.Outputs {
				outputs[out.Name] = out.Optional
			}
			assert.Equal(t, tt.inputs, inputs)
			assert.Equal(t, tt.outputs, outputs)
		})
	}
}

func TestConstraints(t *testing.T) {
	check := koperator.NewStructConstraints()

	t.Run("generator", func(t *testing.T) {
		g := NewGenerator()
		assert.NoError(t, check.Check(g))
		g.Step = 0
		assert.IsError(t, check.Check(g), ErrInvalidConfig)
		g.Step, g.Count = 1, -1
		assert.Error(t, check.Check(g))
	})

	t.Run("console target", func(t *testing.T) {
		c := NewConsole[string]()
		assert.NoError(t, check.Check(c))
		c.Target = "printer"
		assert.Error(t, check.Check(c))
	})

	t.Run("filter pattern", func(t *testing.T) {
		f := NewFilter[string]()
		assert.Error(t, check.Check(f))
		f.Pattern = "^a"
		assert.NoError(t, check.Check(f))
		f.Pattern = "("
		assert.IsError(t, check.Check(f), ErrInvalidConfig)
	})
}

func TestBehaviour(t *testing.T) {
	g := &Generator{Start: 10, Step: -2}
	assert.Equal(t, int64(10), g.Value(0))
	assert.Equal(t, int64(4), g.Value(3))

	c := NewConsole[int64]()
	c.Prefix = "n="
	assert.Equal(t, "n=7", c.Line(7))

	f := NewFilter[int64]()
	f.Pattern = `^\d$`
	ok, err := f.Match(7)
	assert.NoError(t, err)
	assert.True(t, ok)
	f.Invert = true
	ok, err = f.Match(7)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamCodecs(t *testing.T) {
	assert.Equal(t, kserde.CodecString, NewConsole[string]().In.StreamCodec().Name())
	assert.Equal(t, kserde.CodecInt64, NewPassthrough[int64]().In.StreamCodec().Name())
	assert.Equal(t, kserde.CodecFloat64, NewFilter[float64]().In.StreamCodec().Name())
	assert.Equal(t, kserde.CodecJSON, NewUnion[[]string]().Second.StreamCodec().Name())
}

const plan = `
operator "numbers" {
  type  = "generator"
  count = 5
}

operator "fmt" {
  type = "passthrough.int64"
}

operator "evens" {
  type    = "filter.int64"
  pattern = "[02468]$"
}

operator "out" {
  type   = "console.int64"
  prefix = "even: "
}

stream "numbers" {
  source = "numbers.out"
  sinks  = ["fmt.in"]
}

stream "formatted" {
  source = "fmt.out"
  sinks  = ["evens.in"]
}

stream "evens" {
  source = "evens.out"
  sinks  = ["out.in"]
}
`

func TestRegister(t *testing.T) {
	plans := kplanfile.NewRegistry()
	types := kserde.NewRegistry()
	assert.NoError(t, Register(plans, types))
	assert.SliceContains(t, plans.Types(), "console.float64")
	assert.SliceContains(t, types.Names(), "github.com/birdayz/kplan/operators.Generator")
	assert.IsError(t, Register(plans, nil), kplanfile.ErrDuplicateType)

	d, err := kplanfile.NewLoader(plans).Load([]byte(plan), "plan.hcl")
	assert.NoError(t, err)
	assert.NoError(t, d.Validate())

	s, ok := d.Stream("evens")
	assert.True(t, ok)
	assert.Equal(t, kserde.CodecInt64, s.Codec())

	for _, codec := range []kserde.OperatorCodec{kserde.NewJSONCodec(types), kserde.NewMsgpackCodec(types)} {
		t.Run(codec.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			assert.NoError(t, kdag.Write(&buf, d, codec))
			restored, err := kdag.Read(&buf, codec)
			assert.NoError(t, err)
			assert.NoError(t, restored.Validate())

			o, ok := restored.Operator("evens")
			assert.True(t, ok)
			assert.Equal(t, "[02468]$", o.Operator().(*Filter[int64]).Pattern)

			o, ok = restored.Operator("numbers")
			assert.True(t, ok)
			assert.Equal(t, int64(5), o.Operator().(*Generator).Count)
		})
	}
}
