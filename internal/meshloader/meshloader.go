// Package meshloader decodes referenced mesh assets into indexed triangle
// data for scene authoring. STL is supported in both binary and ASCII
// encodings; other formats report ErrUnsupportedFormat so the caller can
// warn and continue.
package meshloader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnsupportedFormat marks mesh formats the loader cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Data is indexed polygon data in the authoring layout: flat point array,
// per-face vertex counts, and a flat index array.
type Data struct {
	Points            []r3.Vec
	FaceVertexCounts  []int
	FaceVertexIndices []int
	Normals           []r3.Vec
}

// Load decodes the mesh at path. Format is chosen by file extension.
func Load(path string) (*Data, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return loadSTL(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadSTL(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	if isASCIISTL(raw) {
		return decodeASCIISTL(raw)
	}
	return decodeBinarySTL(raw)
}

// isASCIISTL sniffs the encoding. The "solid" keyword alone is not enough;
// binary exporters sometimes start their 80-byte header with it, so the
// body must also contain a facet keyword.
func isASCIISTL(raw []byte) bool {
	head := bytes.TrimLeft(raw[:min(len(raw), 6)], " \t\r\n")
	if !bytes.HasPrefix(head, []byte("solid")) {
		return false
	}
	return bytes.Contains(raw[:min(len(raw), 1024)], []byte("facet"))
}

func decodeBinarySTL(raw []byte) (*Data, error) {
	if len(raw) < 84 {
		return nil, fmt.Errorf("binary STL truncated: %d bytes", len(raw))
	}
	count := binary.LittleEndian.Uint32(raw[80:84])
	const record = 50 // normal + 3 vertices (12 floats) + attribute count
	if len(raw) < 84+int(count)*record {
		return nil, fmt.Errorf("binary STL truncated: %d facets declared, %d bytes", count, len(raw))
	}

	d := &Data{
		Points:            make([]r3.Vec, 0, count*3),
		FaceVertexCounts:  make([]int, 0, count),
		FaceVertexIndices: make([]int, 0, count*3),
		Normals:           make([]r3.Vec, 0, count),
	}
	off := 84
	for i := uint32(0); i < count; i++ {
		d.Normals = append(d.Normals, readVec(raw[off:]))
		off += 12
		for v := 0; v < 3; v++ {
			d.FaceVertexIndices = append(d.FaceVertexIndices, len(d.Points))
			d.Points = append(d.Points, readVec(raw[off:]))
			off += 12
		}
		d.FaceVertexCounts = append(d.FaceVertexCounts, 3)
		off += 2
	}
	return d.Compact(), nil
}

func readVec(raw []byte) r3.Vec {
	return r3.Vec{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[8:]))),
	}
}

func decodeASCIISTL(raw []byte) (*Data, error) {
	d := &Data{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var facetVerts int
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			// "facet normal nx ny nz"
			if len(fields) >= 5 {
				n, err := parseVec(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("ASCII STL facet normal: %w", err)
				}
				d.Normals = append(d.Normals, n)
			}
			facetVerts = 0
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("ASCII STL vertex: %q", sc.Text())
			}
			v, err := parseVec(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("ASCII STL vertex: %w", err)
			}
			d.FaceVertexIndices = append(d.FaceVertexIndices, len(d.Points))
			d.Points = append(d.Points, v)
			facetVerts++
		case "endfacet":
			if facetVerts != 3 {
				return nil, fmt.Errorf("ASCII STL facet with %d vertices", facetVerts)
			}
			d.FaceVertexCounts = append(d.FaceVertexCounts, 3)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ASCII STL: %w", err)
	}
	if len(d.FaceVertexCounts) == 0 {
		return nil, fmt.Errorf("ASCII STL contains no facets")
	}
	return d.Compact(), nil
}

func parseVec(fields []string) (r3.Vec, error) {
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, err
		}
		out[i] = v
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// Compact deduplicates identical points and rewrites the index array to
// the surviving points. STL stores every triangle corner independently, so
// this typically shrinks the point array about sixfold.
func (d *Data) Compact() *Data {
	index := make(map[r3.Vec]int, len(d.Points))
	remap := make([]int, len(d.Points))
	var points []r3.Vec
	for i, p := range d.Points {
		if j, ok := index[p]; ok {
			remap[i] = j
			continue
		}
		index[p] = len(points)
		remap[i] = len(points)
		points = append(points, p)
	}
	indices := make([]int, len(d.FaceVertexIndices))
	for i, idx := range d.FaceVertexIndices {
		indices[i] = remap[idx]
	}
	d.Points = points
	d.FaceVertexIndices = indices
	return d
}
