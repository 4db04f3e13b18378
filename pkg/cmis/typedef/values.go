package typedef

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// NormalizeValue converts v to the canonical Go representation of pt:
// string for string, id, uri and html; bool; int64; float64; time.Time.
// Values decoded from JSON (float64, json.Number, RFC 3339 strings) are
// accepted where they convert without loss.
func NormalizeValue(pt cmis.PropertyType, v any) (any, error) {
	switch pt {
	case cmis.PropertyTypeString, cmis.PropertyTypeID, cmis.PropertyTypeURI, cmis.PropertyTypeHTML:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case cmis.PropertyTypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, nil
			}
		}
	case cmis.PropertyTypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
				return int64(n), nil
			}
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, nil
			}
		}
	case cmis.PropertyTypeDecimal:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, nil
			}
		}
	case cmis.PropertyTypeDateTime:
		switch d := v.(type) {
		case time.Time:
			return d.UTC(), nil
		case string:
			if ts, err := time.Parse(time.RFC3339Nano, d); err == nil {
				return ts.UTC(), nil
			}
		}
	default:
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unknown property type %q", pt)
	}
	return nil, cmis.Errorf(cmis.ErrInvalidArgument, "value %v (%T) is not a valid %s", v, v, pt)
}

// NormalizePropertyValue validates v against d. A nil v means "unset" and is
// returned as nil. Multi-valued properties accept any slice and always
// normalize to []any; single-valued properties reject slices.
func NormalizePropertyValue(d *PropertyDefinition, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	isList := rv.Kind() == reflect.Slice
	if !d.MultiValued() {
		if isList {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "property %q is single-valued", d.ID)
		}
		nv, err := NormalizeValue(d.PropertyType, v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", d.ID, err)
		}
		return nv, nil
	}

	if !isList {
		rv = reflect.ValueOf([]any{v})
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if item == nil {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "property %q contains a null value", d.ID)
		}
		nv, err := NormalizeValue(d.PropertyType, item)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", d.ID, err)
		}
		out = append(out, nv)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// NormalizeProperties validates every entry of props against t and returns a
// normalized copy. Unknown property ids are rejected.
func (t *TypeDefinition) NormalizeProperties(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for id, v := range props {
		d, ok := t.PropertyDefinitions[id]
		if !ok {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "property %q is not defined by type %q", id, t.ID)
		}
		nv, err := NormalizePropertyValue(d, v)
		if err != nil {
			return nil, err
		}
		out[id] = nv
	}
	return out, nil
}

// CheckRequired fails when a required, caller-settable property is missing
// from props. cmis:objectTypeId is supplied by the store and is not checked.
func (t *TypeDefinition) CheckRequired(props map[string]any) error {
	for _, id := range t.PropertyIDs() {
		d := t.PropertyDefinitions[id]
		if !d.Required || d.Updatability == cmis.UpdatabilityReadOnly || id == cmis.PropObjectTypeID {
			continue
		}
		if props[id] == nil {
			return cmis.Errorf(cmis.ErrInvalidArgument, "required property %q is missing", id)
		}
	}
	return nil
}

// DefaultValues returns the default values of the properties absent from props.
func (t *TypeDefinition) DefaultValues(props map[string]any) map[string]any {
	out := make(map[string]any)
	for id, d := range t.PropertyDefinitions {
		if len(d.DefaultValue) == 0 || props[id] != nil {
			continue
		}
		var v any = d.DefaultValue[0]
		if d.MultiValued() {
			v = d.DefaultValue
		}
		if nv, err := NormalizePropertyValue(d, v); err == nil && nv != nil {
			out[id] = nv
		}
	}
	return out
}
