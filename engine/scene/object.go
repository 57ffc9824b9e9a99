package scene

import (
	"github.com/google/uuid"
)

/**
 * @brief A node of the parsed scene graph. The root returned by a mesh
 * loader is an Object3D whose children hold the individual meshes.
 */
type Object3D struct {
	/** @brief Unique identifier of the node. */
	ID uuid.UUID
	/** @brief The node name, as found in the source file. */
	Name string
	/** @brief Optional geometry attached to this node. */
	Geometry *Geometry
	/** @brief Optional material used by the geometry. */
	Material *Material
	/** @brief Child nodes, in file order. */
	Children []*Object3D
	/** @brief The parent node, nil for the root. */
	Parent *Object3D
}

func NewObject3D(name string) *Object3D {
	return &Object3D{
		ID:   uuid.New(),
		Name: name,
	}
}

func (o *Object3D) AddChild(child *Object3D) {
	child.Parent = o
	o.Children = append(o.Children, child)
}

func (o *Object3D) NumChildren() int {
	return len(o.Children)
}

func (o *Object3D) Child(i int) *Object3D {
	if i < 0 || i >= len(o.Children) {
		return nil
	}
	return o.Children[i]
}

// Walk visits the node and its descendants depth first. Returning false from
// fn stops the walk.
func (o *Object3D) Walk(fn func(node *Object3D, depth int) bool) {
	o.walk(fn, 0)
}

func (o *Object3D) walk(fn func(*Object3D, int) bool, depth int) bool {
	if !fn(o, depth) {
		return false
	}
	for _, c := range o.Children {
		if !c.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// Find returns the first node named name, or nil.
func (o *Object3D) Find(name string) *Object3D {
	var found *Object3D
	o.Walk(func(n *Object3D, _ int) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Stats counts the nodes, vertices and triangles below and including o.
func (o *Object3D) Stats() (nodes, vertices, triangles int) {
	o.Walk(func(n *Object3D, _ int) bool {
		nodes++
		if n.Geometry != nil {
			vertices += n.Geometry.VertexCount()
			triangles += n.Geometry.TriangleCount()
		}
		return true
	})
	return nodes, vertices, triangles
}
