package queue

import (
	"fmt"
	"strconv"
	"strings"
)

type FilterKind string

const (
	FilterTopN         FilterKind = "top-n"
	FilterMinErrors    FilterKind = "min-errors"
	FilterMinErrorRate FilterKind = "min-error-rate"
)

// Filter narrows the frequent-errors selection. Exactly one kind is active;
// the zero value is top-n with the builder's default N.
type Filter struct {
	Kind  FilterKind
	Value int
}

var filterBounds = map[FilterKind][2]int{
	FilterTopN:         {1, 100},
	FilterMinErrors:    {1, 50},
	FilterMinErrorRate: {1, 100},
}

// ParseFilter reads "kind" or "kind=value", e.g. "min-errors=3".
func ParseFilter(value string) (Filter, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Filter{}, nil
	}
	kind, raw, hasValue := strings.Cut(value, "=")
	f := Filter{Kind: FilterKind(strings.TrimSpace(kind))}
	if hasValue {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: filter value %q", ErrInvalidRequest, raw)
		}
		f.Value = n
	}
	return f, nil
}

func (f Filter) String() string {
	if f.Kind == "" {
		return string(FilterTopN)
	}
	if f.Value == 0 {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s=%d", f.Kind, f.Value)
}

func (f Filter) normalize(defaultTopN int) (Filter, error) {
	if f.Kind == "" {
		f.Kind = FilterTopN
	}
	bounds, ok := filterBounds[f.Kind]
	if !ok {
		return Filter{}, fmt.Errorf("%w: unknown filter %q", ErrInvalidRequest, f.Kind)
	}
	if f.Value == 0 {
		if f.Kind != FilterTopN {
			return Filter{}, fmt.Errorf("%w: filter %s needs a value", ErrInvalidRequest, f.Kind)
		}
		f.Value = defaultTopN
	}
	if f.Value < bounds[0] || f.Value > bounds[1] {
		return Filter{}, fmt.Errorf("%w: %s must be within %d-%d, got %d",
			ErrInvalidRequest, f.Kind, bounds[0], bounds[1], f.Value)
	}
	return f, nil
}

// apply expects scored to be sorted by descending error rate.
func (f Filter) apply(scored []scoredCard) []scoredCard {
	switch f.Kind {
	case FilterMinErrors:
		out := scored[:0]
		for _, s := range scored {
			if s.stats.WrongCount >= f.Value {
				out = append(out, s)
			}
		}
		return out
	case FilterMinErrorRate:
		out := scored[:0]
		for _, s := range scored {
			if s.rate >= float64(f.Value) {
				out = append(out, s)
			}
		}
		return out
	default:
		if len(scored) > f.Value {
			return scored[:f.Value]
		}
		return scored
	}
}
