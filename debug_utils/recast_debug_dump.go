package debug_utils

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/message"
	"github.com/gorustyt/planarnav/common/rw"
	"github.com/gorustyt/planarnav/recast"
)

const (
	navMeshDumpFormat  = "planarnav.navmesh"
	navMeshDumpVersion = 1
	navMeshBinMagic    = 'P'<<24 | 'N'<<16 | 'A'<<8 | 'V'
)

var ErrBadDump = errors.New("malformed navmesh dump")

// DuDumpNavMeshToObj writes the triangles as a Wavefront OBJ, y up.
func DuDumpNavMeshToObj(mesh *recast.TriMesh, w *rw.ReaderWriter) bool {
	if w == nil || mesh == nil {
		return false
	}
	w.WriteString("# planarnav navmesh\n")
	w.WriteString("o NavMesh\n")
	w.WriteString("\n")
	for _, v := range mesh.Verts {
		w.WriteString(fmt.Sprintf("v %f 0 %f\n", v[0], v[1]))
	}
	w.WriteString("\n")
	for _, t := range mesh.Tris {
		w.WriteString(fmt.Sprintf("f %d %d %d\n", t[0]+1, t[1]+1, t[2]+1))
	}
	return true
}

func numberList[T int | float64](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func flattenMesh(mesh *recast.TriMesh) (verts []float64, tris, nbrs []int) {
	verts = make([]float64, 0, 2*len(mesh.Verts))
	for _, v := range mesh.Verts {
		verts = append(verts, v[0], v[1])
	}
	tris = make([]int, 0, 3*len(mesh.Tris))
	nbrs = make([]int, 0, 3*len(mesh.Tris))
	for t := range mesh.Tris {
		tris = append(tris, mesh.Tris[t][:]...)
		nbrs = append(nbrs, mesh.Neighbors[t][:]...)
	}
	return
}

// EncodeNavMesh snapshots the mesh and its source contours as a protobuf
// Struct.
func EncodeNavMesh(mesh *recast.TriMesh, polys []common.Polygon) ([]byte, error) {
	if mesh == nil {
		mesh = &recast.TriMesh{}
	}
	verts, tris, nbrs := flattenMesh(mesh)
	contours := make([]any, len(polys))
	for i, p := range polys {
		flat := make([]float64, 0, 2*len(p))
		for _, v := range p {
			flat = append(flat, v[0], v[1])
		}
		contours[i] = numberList(flat)
	}
	st, err := structpb.NewStruct(map[string]any{
		"format":    navMeshDumpFormat,
		"version":   navMeshDumpVersion,
		"verts":     numberList(verts),
		"tris":      numberList(tris),
		"neighbors": numberList(nbrs),
		"polygons":  contours,
	})
	if err != nil {
		return nil, fmt.Errorf("build navmesh dump: %w", err)
	}
	return message.Encode(st)
}

func numbers(v *structpb.Value) []float64 {
	list := v.GetListValue().GetValues()
	out := make([]float64, len(list))
	for i, x := range list {
		out[i] = x.GetNumberValue()
	}
	return out
}

func toInts(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

// DecodeNavMesh reverses EncodeNavMesh and validates the topology.
func DecodeNavMesh(data []byte) (*recast.TriMesh, []common.Polygon, error) {
	st := &structpb.Struct{}
	if err := message.Decode(data, st); err != nil {
		return nil, nil, err
	}
	f := st.GetFields()
	if got := f["format"].GetStringValue(); got != navMeshDumpFormat {
		return nil, nil, fmt.Errorf("%w: format %q", ErrBadDump, got)
	}
	if v := int(f["version"].GetNumberValue()); v != navMeshDumpVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrBadDump, v)
	}
	mesh, err := assembleMesh(numbers(f["verts"]), toInts(numbers(f["tris"])), toInts(numbers(f["neighbors"])))
	if err != nil {
		return nil, nil, err
	}
	var polys []common.Polygon
	for _, c := range f["polygons"].GetListValue().GetValues() {
		flat := numbers(c)
		if len(flat)%2 != 0 {
			return nil, nil, fmt.Errorf("%w: odd polygon coordinate count", ErrBadDump)
		}
		poly := make(common.Polygon, len(flat)/2)
		for i := range poly {
			poly[i] = common.Vec2{flat[2*i], flat[2*i+1]}
		}
		polys = append(polys, poly)
	}
	return mesh, polys, nil
}

func assembleMesh(verts []float64, tris, nbrs []int) (*recast.TriMesh, error) {
	if len(verts)%2 != 0 || len(tris)%3 != 0 || len(nbrs) != len(tris) {
		return nil, fmt.Errorf("%w: %d coords, %d indices, %d neighbors", ErrBadDump, len(verts), len(tris), len(nbrs))
	}
	nv, nt := len(verts)/2, len(tris)/3
	mesh := &recast.TriMesh{
		Verts:     make([]common.Vec2, nv),
		Tris:      make([][3]int, nt),
		Neighbors: make([][3]int, nt),
	}
	for i := range mesh.Verts {
		mesh.Verts[i] = common.Vec2{verts[2*i], verts[2*i+1]}
	}
	for t := 0; t < nt; t++ {
		for e := 0; e < 3; e++ {
			v, nb := tris[3*t+e], nbrs[3*t+e]
			if v < 0 || v >= nv {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d", ErrBadDump, t, v)
			}
			if nb < -1 || nb >= nt {
				return nil, fmt.Errorf("%w: triangle %d references neighbor %d", ErrBadDump, t, nb)
			}
			mesh.Tris[t][e], mesh.Neighbors[t][e] = v, nb
		}
	}
	return mesh, nil
}

// EncodeNavMeshBin writes the compact little endian layout: magic, version,
// vertex count, coordinates, triangle count, indices, neighbors.
func EncodeNavMeshBin(mesh *recast.TriMesh) []byte {
	if mesh == nil {
		mesh = &recast.TriMesh{}
	}
	verts, tris, nbrs := flattenMesh(mesh)
	w := rw.NewBinWriter()
	w.WriteUInt32(navMeshBinMagic)
	w.WriteInt32(navMeshDumpVersion)
	w.WriteInt32(int32(len(mesh.Verts)))
	w.WriteFloat64s(verts)
	w.WriteInt32(int32(len(mesh.Tris)))
	for _, v := range tris {
		w.WriteInt32(int32(v))
	}
	for _, v := range nbrs {
		w.WriteInt32(int32(v))
	}
	return w.GetWriteBytes()
}

func DecodeNavMeshBin(data []byte) (*recast.TriMesh, error) {
	r := rw.NewBinReader(data)
	if magic := r.ReadUInt32(); r.Err() == nil && magic != navMeshBinMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrBadDump, magic)
	}
	if v := r.ReadInt32(); r.Err() == nil && v != navMeshDumpVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDump, v)
	}
	verts := make([]float64, 2*r.ReadCount(16))
	r.ReadFloat64s(verts)
	nt := r.ReadCount(24)
	idx := make([]int32, 6*nt)
	r.ReadInt32s(idx)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDump, err)
	}
	tris := make([]int, 3*nt)
	nbrs := make([]int, 3*nt)
	for i := range tris {
		tris[i] = int(idx[i])
		nbrs[i] = int(idx[3*nt+i])
	}
	return assembleMesh(verts, tris, nbrs)
}
