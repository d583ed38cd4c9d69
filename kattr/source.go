package kattr

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Source provides string settings by key name, e.g. a properties file or the
// process environment.
type Source interface {
	Lookup(name string) (string, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]string

func (s MapSource) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// EnvSource looks keys up in the process environment using EnvName.
type EnvSource struct{}

func (EnvSource) Lookup(name string) (string, bool) {
	return os.LookupEnv(EnvName(name))
}

// Sources layers several sources; the first one that has a key wins.
type Sources []Source

func (s Sources) Lookup(name string) (string, bool) {
	for _, src := range s {
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// EnvName maps a key name to an environment variable name:
// "kplan.maxContainers" becomes "KPLAN_MAX_CONTAINERS".
func EnvName(key string) string {
	var sb strings.Builder
	prev := rune(0)
	for _, r := range key {
		switch {
		case r == '.' || r == '-':
			sb.WriteByte('_')
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			sb.WriteByte('_')
			sb.WriteRune(r)
		default:
			sb.WriteRune(unicode.ToUpper(r))
		}
		prev = r
	}
	return sb.String()
}

var (
	intType    = reflect.TypeFor[int]()
	int64Type  = reflect.TypeFor[int64]()
	stringType = reflect.TypeFor[string]()
	boolType   = reflect.TypeFor[bool]()
)

// Load sets every key that src provides a value for. Values are parsed by the
// key's type; only int, int64, string and bool keys can be loaded. A key of
// any other type that is present in src fails with ErrUnsupportedType, which
// callers must treat as fatal.
func Load(m *Map, src Source, keys ...AnyKey) error {
	for _, k := range keys {
		raw, ok := src.Lookup(k.Name())
		if !ok {
			continue
		}
		v, err := Parse(k, raw)
		if err != nil {
			return err
		}
		if err := m.SetValue(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Parse converts a raw setting to the value type of k.
func Parse(k AnyKey, raw string) (any, error) {
	switch k.Type() {
	case intType:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 0, strconv.IntSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, k.Name(), err)
		}
		return int(v), nil
	case int64Type:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, k.Name(), err)
		}
		return v, nil
	case stringType:
		return raw, nil
	case boolType:
		v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, k.Name(), err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, k.Type(), k.Name())
	}
}
