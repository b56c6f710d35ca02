package models

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/lumen"
	"github.com/taigrr/lumen/pkg/math3d"
)

// LoadGLTF loads a .gltf or .glb file.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return FromDocument(doc, filepath.Base(path))
}

// FromDocument converts a decoded glTF document. Nodes of the default scene
// are walked depth first, composing their transforms; every primitive of
// every mesh node becomes a Part.
func FromDocument(doc *gltf.Document, name string) (*Model, error) {
	model := NewModel(name)

	for _, root := range rootNodes(doc) {
		if err := walkNode(doc, model, root, math3d.Identity(), 0); err != nil {
			return nil, err
		}
	}

	lumen.Logger().Debug("imported model", "name", name, "parts", len(model.Parts))
	return model, nil
}

// rootNodes returns the nodes of the default scene, the first scene if none
// is marked default, or every parentless node if the document has no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

func walkNode(doc *gltf.Document, model *Model, idx int, parent math3d.Mat4, depth int) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}

	node := doc.Nodes[idx]
	world := parent.Mul(localTransform(node))

	if node.Mesh != nil {
		if err := addMesh(doc, model, *node.Mesh, world); err != nil {
			return fmt.Errorf("node %q: %w", node.Name, err)
		}
	}
	for _, c := range node.Children {
		if err := walkNode(doc, model, c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func localTransform(node *gltf.Node) math3d.Mat4 {
	if m := math3d.Mat4(node.MatrixOrDefault()); m != math3d.Identity() {
		return m
	}
	t := node.TranslationOrDefault()
	s := node.ScaleOrDefault()
	return math3d.TRS(
		math3d.V3(t[0], t[1], t[2]),
		node.RotationOrDefault(),
		math3d.V3(s[0], s[1], s[2]),
	)
}

func addMesh(doc *gltf.Document, model *Model, meshIdx int, world math3d.Mat4) error {
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIdx)
	}
	mesh := doc.Meshes[meshIdx]

	for i, prim := range mesh.Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		lo, hi, err := positionBounds(doc, posIdx)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
		}

		wlo, whi := transformBounds(world, lo, hi)
		model.AddPart(Part{
			Name:     fmt.Sprintf("%s/%d", mesh.Name, i),
			Min:      wlo,
			Max:      whi,
			Material: readMaterial(doc, prim.Material),
		})
	}
	return nil
}

// positionBounds returns the local-space bounds of a POSITION accessor,
// from its min/max when present and by scanning the data otherwise.
func positionBounds(doc *gltf.Document, accessorIdx int) (math3d.Vec3, math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return math3d.Vec3{}, math3d.Vec3{}, fmt.Errorf("accessor index %d out of range", accessorIdx)
	}
	acc := doc.Accessors[accessorIdx]
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		return math3d.V3(acc.Min[0], acc.Min[1], acc.Min[2]),
			math3d.V3(acc.Max[0], acc.Max[1], acc.Max[2]), nil
	}

	positions, err := readVec3Accessor(doc, acc)
	if err != nil {
		return math3d.Vec3{}, math3d.Vec3{}, fmt.Errorf("read positions: %w", err)
	}
	if len(positions) == 0 {
		return math3d.Vec3{}, math3d.Vec3{}, fmt.Errorf("empty POSITION accessor")
	}
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		lo, hi = lo.Min(p), hi.Max(p)
	}
	return lo, hi, nil
}

// transformBounds transforms all eight corners of a box and returns their
// axis-aligned bounds.
func transformBounds(m math3d.Mat4, lo, hi math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	var outLo, outHi math3d.Vec3
	for i := range 8 {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		p := m.MulVec3(c)
		if i == 0 {
			outLo, outHi = p, p
			continue
		}
		outLo, outHi = outLo.Min(p), outHi.Max(p)
	}
	return outLo, outHi
}

func readMaterial(doc *gltf.Document, idx *int) Material {
	if idx == nil || *idx < 0 || *idx >= len(doc.Materials) {
		return DefaultMaterial
	}
	src := doc.Materials[*idx]

	mat := DefaultMaterial
	mat.Name = src.Name
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		mat.BaseColor = pbr.BaseColorFactorOrDefault()
		mat.Metallic = pbr.MetallicFactorOrDefault()
		mat.Roughness = pbr.RoughnessFactorOrDefault()
	}
	mat.Transparent = src.AlphaMode == gltf.AlphaBlend
	return mat
}

// readVec3Accessor reads float VEC3 data from a buffer-backed accessor.
func readVec3Accessor(doc *gltf.Document, acc *gltf.Accessor) ([]math3d.Vec3, error) {
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", acc.Type, acc.ComponentType)
	}
	if acc.BufferView == nil || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor has no buffer view")
	}

	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := view.ByteOffset + acc.ByteOffset
	stride := view.ByteStride
	if stride == 0 {
		stride = 12 // 3 floats * 4 bytes
	}
	if end := start + (acc.Count-1)*stride + 12; acc.Count > 0 && end > len(data) {
		return nil, fmt.Errorf("accessor reads past end of buffer (%d > %d)", end, len(data))
	}

	out := make([]math3d.Vec3, acc.Count)
	for i := range acc.Count {
		off := start + i*stride
		out[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return out, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
