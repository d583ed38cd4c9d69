package operators

import (
	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kplanfile"
	"github.com/birdayz/kplan/kserde"
)

type entry struct {
	name    string
	factory func() koperator.Operator
}

func generic[T any](suffix string) []entry {
	return []entry{
		{"passthrough" + suffix, func() koperator.Operator { return NewPassthrough[T]() }},
		{"union" + suffix, func() koperator.Operator { return NewUnion[T]() }},
		{"console" + suffix, func() koperator.Operator { return NewConsole[T]() }},
		{"filter" + suffix, func() koperator.Operator { return NewFilter[T]() }},
	}
}

func entries() []entry {
	all := []entry{
		{"generator", func() koperator.Operator { return NewGenerator() }},
	}
	all = append(all, generic[string]("")...)
	all = append(all, generic[int64](".int64")...)
	all = append(all, generic[float64](".float64")...)
	return all
}

// Register adds the stock operators to a plan file registry and to a type
// registry used by operator codecs. Either registry may be nil.
func Register(plans *kplanfile.Registry, types *kserde.Registry) error {
	for _, e := range entries() {
		if plans != nil {
			if err := plans.Register(e.name, e.factory); err != nil {
				return err
			}
		}
		if types != nil {
			factory := e.factory
			if _, err := types.Register(func() any { return factory() }); err != nil {
				return err
			}
		}
	}
	return nil
}
