package entity

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

var directionNames = map[string]Direction{
	"neutral": Neutral, "none": Neutral,
	"negative": Negative, "left": Negative,
	"positive": Positive, "right": Positive,
}

var gravityNames = map[string]Gravity{
	"default": GravityDefault,
	"normal":  GravityNormal, "down": GravityNormal,
	"neutral": GravityNeutral, "none": GravityNeutral,
	"inverted": GravityInverted, "up": GravityInverted,
}

// UnmarshalYAML accepts a direction name (left, right, none, ...) or its
// numeric code.
func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	if v, ok := directionNames[node.Value]; ok {
		*d = v
		return nil
	}
	n, err := strconv.ParseUint(node.Value, 10, 8)
	if err != nil || !Direction(n).Valid() {
		return fmt.Errorf("line %d: unknown direction %q", node.Line, node.Value)
	}
	*d = Direction(n)
	return nil
}

// UnmarshalYAML accepts a gravity mode name (normal, neutral, inverted,
// default) or its numeric code.
func (g *Gravity) UnmarshalYAML(node *yaml.Node) error {
	if v, ok := gravityNames[node.Value]; ok {
		*g = v
		return nil
	}
	n, err := strconv.ParseUint(node.Value, 10, 8)
	if err != nil || !Gravity(n).Valid() {
		return fmt.Errorf("line %d: unknown gravity mode %q", node.Line, node.Value)
	}
	*g = Gravity(n)
	return nil
}

// UnmarshalYAML accepts an element name or its numeric code.
func (e *Element) UnmarshalYAML(node *yaml.Node) error {
	if v, ok := ParseElement(node.Value); ok {
		*e = v
		return nil
	}
	n, err := strconv.ParseUint(node.Value, 10, 8)
	if err != nil || n >= uint64(NumElements) {
		return fmt.Errorf("line %d: unknown element %q", node.Line, node.Value)
	}
	*e = Element(n)
	return nil
}

// MarshalYAML emits the element name.
func (e Element) MarshalYAML() (interface{}, error) { return e.String(), nil }
