package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/vantage/pkg/cull"
	"github.com/taigrr/vantage/pkg/math3d"
)

// LoadGLTF reads a glTF or GLB file and adds one scene object per mesh
// node, bounded by that node's world-space AABB. Returns the handles of
// the added objects.
func (s *Scene) LoadGLTF(path string) ([]cull.Handle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return s.ImportDocument(doc)
}

// ImportDocument walks a glTF document's node hierarchy and adds a scene
// object for every node that references a mesh. Each object's bounds are
// the mesh's position bounds transformed by the node's flattened world
// matrix (conservative 8-corner transform, so rotation only grows boxes).
func (s *Scene) ImportDocument(doc *gltf.Document) ([]cull.Handle, error) {
	roots, err := rootNodes(doc)
	if err != nil {
		return nil, err
	}

	var handles []cull.Handle
	for _, root := range roots {
		if err := s.importNode(doc, root, math3d.Identity(), &handles); err != nil {
			return handles, err
		}
	}
	return handles, nil
}

func rootNodes(doc *gltf.Document) ([]int, error) {
	if len(doc.Scenes) == 0 {
		// No scene graph: every node is its own root.
		roots := make([]int, len(doc.Nodes))
		for i := range doc.Nodes {
			roots[i] = i
		}
		return roots, nil
	}

	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx >= len(doc.Scenes) {
		return nil, fmt.Errorf("gltf: scene index %d out of range", idx)
	}
	return doc.Scenes[idx].Nodes, nil
}

func (s *Scene) importNode(doc *gltf.Document, nodeIdx int, parent math3d.Mat4, handles *[]cull.Handle) error {
	if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
		return fmt.Errorf("gltf: node index %d out of range", nodeIdx)
	}
	node := doc.Nodes[nodeIdx]
	world := parent.Mul(nodeMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("gltf: mesh index %d out of range", *node.Mesh)
		}
		mesh := doc.Meshes[*node.Mesh]
		local, ok, err := meshBounds(doc, mesh)
		if err != nil {
			return fmt.Errorf("mesh %q: %w", mesh.Name, err)
		}
		if ok {
			name := node.Name
			if name == "" {
				name = mesh.Name
			}
			*handles = append(*handles, s.Add(name, local.Transform(world)))
		}
	}

	for _, child := range node.Children {
		if err := s.importNode(doc, child, world, handles); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns a node's local transform. glTF stores either an
// explicit column-major matrix or a translation/rotation/scale triple.
func nodeMatrix(node *gltf.Node) math3d.Mat4 {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math3d.Mat4(m)
	}

	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	sc := node.ScaleOrDefault()

	return math3d.Translate(math3d.V3(t[0], t[1], t[2])).
		Mul(math3d.FromQuaternion(r[0], r[1], r[2], r[3])).
		Mul(math3d.Scale(math3d.V3(sc[0], sc[1], sc[2])))
}

// meshBounds unions the position bounds of every primitive in the mesh.
// Returns ok=false for meshes with no position data.
func meshBounds(doc *gltf.Document, mesh *gltf.Mesh) (cull.AABB, bool, error) {
	var bounds cull.AABB
	found := false

	for _, prim := range mesh.Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if posIdx >= len(doc.Accessors) {
			return cull.AABB{}, false, fmt.Errorf("position accessor %d out of range", posIdx)
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return cull.AABB{}, false, fmt.Errorf("read positions: %w", err)
		}
		if len(positions) == 0 {
			continue
		}

		b := cull.AABB{
			Min: v3From(positions[0]),
			Max: v3From(positions[0]),
		}
		for _, p := range positions[1:] {
			v := v3From(p)
			b.Min = b.Min.Min(v)
			b.Max = b.Max.Max(v)
		}

		if !found {
			bounds = b
			found = true
		} else {
			bounds = bounds.Union(b)
		}
	}

	return bounds, found, nil
}

func v3From(p [3]float32) math3d.Vec3 {
	return math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))
}
