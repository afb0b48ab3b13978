package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads the process environment into a Config and validates it.
func Load() (*Config, error) {
	return loadFrom(os.Getenv)
}

// loadFrom builds a Config from lookup. Every field tagged env is read from
// its variable, then its envAlt variable, then its default. All unreadable
// variables are reported together.
func loadFrom(lookup func(string) string) (*Config, error) {
	cfg := &Config{}
	var errs []error
	walkEnvFields(reflect.ValueOf(cfg).Elem(), func(f reflect.StructField, v reflect.Value) {
		if err := fill(f, v, lookup); err != nil {
			errs = append(errs, err)
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// walkEnvFields calls visit for every settable field carrying an env tag,
// descending into the section structs of Config.
func walkEnvFields(v reflect.Value, visit func(reflect.StructField, reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f, fv := t.Field(i), v.Field(i)
		switch {
		case !fv.CanSet():
		case f.Type.Kind() == reflect.Struct:
			walkEnvFields(fv, visit)
		case f.Tag.Get("env") != "":
			visit(f, fv)
		}
	}
}

func fill(f reflect.StructField, v reflect.Value, lookup func(string) string) error {
	name := f.Tag.Get("env")
	raw := lookup(name)
	if raw == "" {
		if alt := f.Tag.Get("envAlt"); alt != "" {
			raw = lookup(alt)
		}
	}
	if raw == "" {
		if f.Tag.Get("required") == "true" {
			return fmt.Errorf("required environment variable %s is not set", name)
		}
		raw = f.Tag.Get("default")
	}
	if raw == "" {
		return nil
	}

	decode, ok := decoders[f.Type]
	if !ok {
		return fmt.Errorf("%s: no decoder for %s", name, f.Type)
	}
	val, err := decode(raw)
	if err != nil {
		return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
	}
	v.Set(reflect.ValueOf(val).Convert(f.Type))
	return nil
}

// decoders turn a raw variable into a value assignable to the keyed type.
var decoders = map[reflect.Type]func(string) (any, error){
	reflect.TypeOf(""): func(s string) (any, error) { return s, nil },
	reflect.TypeOf(0): func(s string) (any, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	},
	reflect.TypeOf(int64(0)): func(s string) (any, error) {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	},
	reflect.TypeOf(false): func(s string) (any, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	},
	reflect.TypeOf(time.Duration(0)): func(s string) (any, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	},
	reflect.TypeOf([]string(nil)): func(s string) (any, error) {
		return splitList(s), nil
	},
	reflect.TypeOf([]int64(nil)): func(s string) (any, error) {
		parts := splitList(s)
		out := make([]int64, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("list entry %q is not an integer", p)
			}
			out = append(out, n)
		}
		return out, nil
	},
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
