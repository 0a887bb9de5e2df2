package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aweris/jcr"
)

// parseValue turns a command line argument into the narrowest matching Go value.
func parseValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseProps reads name=value pairs. Repeated names become multi-valued.
func parseProps(pairs []string) (map[string]any, error) {
	values := make(map[string][]any)
	var order []string
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q, expected name=value", pair)
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], parseValue(value))
	}

	props := make(map[string]any, len(order))
	for _, name := range order {
		if v := values[name]; len(v) == 1 {
			props[name] = v[0]
		} else {
			props[name] = v
		}
	}
	return props, nil
}

// setValues applies raw arguments to n, honouring an explicit type when given.
func setValues(n *jcr.Node, name, typ string, raw []string) error {
	if typ == "" {
		var v any
		if len(raw) == 1 {
			v = parseValue(raw[0])
		} else {
			vals := make([]any, len(raw))
			for i, r := range raw {
				vals[i] = parseValue(r)
			}
			v = vals
		}
		return n.SetProperty(name, v)
	}

	t, ok := jcr.ParsePropertyType(typ)
	if !ok {
		return fmt.Errorf("unknown property type %q", typ)
	}
	if t == jcr.TypeBinary {
		return n.SetTypedProperty(name, t, []byte(strings.Join(raw, " ")))
	}
	prop, err := jcr.DecodeProperty(jcr.WireProperty{Name: name, Type: string(t), Values: raw})
	if err != nil {
		return err
	}
	return n.SetProperty(name, prop)
}
