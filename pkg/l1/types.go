// Package l1 identifies robots on a shared broker.
package l1

import "strings"

// Ref is a reference to a robot.
type Ref struct {
	// Type is the robot type.
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref, also the topic prefix of the robot.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is valid.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != "" &&
		!strings.ContainsAny(r.Type+r.ID, "/+#")
}

// ParseRef parses "type/id".
func ParseRef(name string) (Ref, bool) {
	items := strings.Split(name, "/")
	if len(items) != 2 {
		return Ref{}, false
	}
	ref := Ref{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// Meta describes a robot.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Protocol    string            `json:"protocol,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Info provides information of a robot.
type Info struct {
	Ref  Ref  `json:"-"`
	Meta Meta `json:"meta"`
}
