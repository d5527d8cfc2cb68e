package state

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Uniform is a named shader constant. Value holds one of the value types
// float32, int32, uint32, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4, mgl32.Mat3 or mgl32.Mat4,
// so copying a Uniform copies its data.
type Uniform struct {
	Name  string
	Value any
}

// Uniforms is an ordered set of named shader constants. Setting an existing name replaces its
// value in place so push order stays stable across frames.
type Uniforms struct {
	items []Uniform
	index map[string]int
}

// NewUniforms creates an empty uniform set with room for n entries.
func NewUniforms(n int) *Uniforms {
	return &Uniforms{
		items: make([]Uniform, 0, n),
		index: make(map[string]int, n),
	}
}

// Set assigns a value to name, appending it if the name is new.
//
// Parameters:
//   - name: the uniform name as declared in the shader
//   - value: a value type accepted by Uniform
func (u *Uniforms) Set(name string, value any) {
	if u.index == nil {
		u.index = make(map[string]int)
	}
	if i, ok := u.index[name]; ok {
		u.items[i].Value = value
		return
	}
	u.index[name] = len(u.items)
	u.items = append(u.items, Uniform{Name: name, Value: value})
}

// Get returns the value stored under name.
func (u *Uniforms) Get(name string) (any, bool) {
	if u == nil {
		return nil, false
	}
	i, ok := u.index[name]
	if !ok {
		return nil, false
	}
	return u.items[i].Value, true
}

// Len returns the number of uniforms in the set.
func (u *Uniforms) Len() int {
	if u == nil {
		return 0
	}
	return len(u.items)
}

// Each visits uniforms in insertion order.
func (u *Uniforms) Each(fn func(name string, value any)) {
	if u == nil {
		return
	}
	for _, it := range u.items {
		fn(it.Name, it.Value)
	}
}

// Merge copies every uniform of o into u, overriding values with the same name.
func (u *Uniforms) Merge(o *Uniforms) {
	o.Each(u.Set)
}

// Clone returns an independent copy. Values are copied by value, so later Set calls on either
// set are not observed by the other. Slice values are copied element-wise.
func (u *Uniforms) Clone() *Uniforms {
	if u == nil {
		return NewUniforms(0)
	}
	c := NewUniforms(len(u.items))
	for _, it := range u.items {
		c.Set(it.Name, cloneValue(it.Value))
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []float32:
		return append([]float32(nil), t...)
	case []mgl32.Vec4:
		return append([]mgl32.Vec4(nil), t...)
	case []mgl32.Mat4:
		return append([]mgl32.Mat4(nil), t...)
	default:
		return v
	}
}
