package see

// Message is one line of the visualizer stream.
type Message struct {
	Action string `json:"action"`
	Object Object `json:"object,omitempty"`
}

const (
	// ActionReset clears the scene.
	ActionReset = "reset"
	// ActionObject creates or updates an object by id.
	ActionObject = "object"
)

// Property keys understood by the visualizer.
const (
	PropID     = "id"
	PropType   = "type"
	PropRect   = "rect"
	PropOrigin = "origin"
	PropRadius = "radius"
	PropRotate = "rotate"
	PropStyle  = "style"
)

// Rect is an axis-aligned area, in mm.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pos is a point, in mm.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is a free-form set of properties. Setters return the Object
// so they chain.
type Object map[string]interface{}

// NewObject starts an Object with its type and id.
func NewObject(typ, id string) Object {
	return Object{PropType: typ, PropID: id}
}

// With sets any property.
func (o Object) With(key string, val interface{}) Object {
	o[key] = val
	return o
}

func (o Object) Rc(x, y, w, h float64) Object { return o.With(PropRect, Rect{x, y, w, h}) }
func (o Object) At(x, y float64) Object       { return o.With(PropOrigin, Pos{x, y}) }
func (o Object) Radius(r float64) Object      { return o.With(PropRadius, r) }

// Rotate sets the heading in degrees.
func (o Object) Rotate(deg float64) Object { return o.With(PropRotate, deg) }

// Style picks one of the styles the visualizer has a theme for.
func (o Object) Style(style string) Object { return o.With(PropStyle, style) }
