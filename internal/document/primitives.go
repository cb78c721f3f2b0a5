package document

// NewCube builds a unit cube mesh object: 8 vertices, 12 edges, 6 quads.
// Edges 0-3 ring the bottom, 4-7 the top, 8-11 are the verticals.
func NewCube(name string) *Object {
	mesh := &Mesh{
		Vertices: 8,
		Edges: []Edge{
			{V1: 0, V2: 1}, {V1: 1, V2: 2}, {V1: 2, V2: 3}, {V1: 3, V2: 0},
			{V1: 4, V2: 5}, {V1: 5, V2: 6}, {V1: 6, V2: 7}, {V1: 7, V2: 4},
			{V1: 0, V2: 4}, {V1: 1, V2: 5}, {V1: 2, V2: 6}, {V1: 3, V2: 7},
		},
		Faces: []Face{
			{Edges: []int{0, 1, 2, 3}},
			{Edges: []int{4, 5, 6, 7}},
			{Edges: []int{0, 9, 4, 8}},
			{Edges: []int{1, 10, 5, 9}},
			{Edges: []int{2, 11, 6, 10}},
			{Edges: []int{3, 8, 7, 11}},
		},
	}
	return &Object{Name: name, Type: ObjectMesh, Mesh: mesh}
}

// NewEmpty builds a helper object without mesh data.
func NewEmpty(name string, location Vec3) *Object {
	return &Object{Name: name, Type: ObjectEmpty, Location: location}
}

// NewSample returns a document with an empty "Root" helper and a cube
// parented to it, active and selected.
func NewSample() *Document {
	doc := New()
	root := NewEmpty("Root", Vec3{})
	cube := NewCube("Cube")
	cube.Parent = root.Name
	cube.Location = Vec3{0, 1.5, 0}
	_ = doc.AddObject(root)
	_ = doc.AddObject(cube)
	_ = doc.SetActive(cube.Name)
	return doc
}
