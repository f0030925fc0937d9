package matrix

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
)

// serialize the matrix to a text file: the first line holds the
// shape "rows,cols" and every following line one "r,c,value" entry
func Float32Serialize(m *Float32Matrix, fn string) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	r, c := m.Shape()
	// write the matrix shape
	fmt.Fprintf(w, "%d,%d\n", r, c)

	var val float32
	for ridx := 0; ridx < r; ridx += 1 {
		for cidx := 0; cidx < c; cidx += 1 {
			val = m.Get(ridx, cidx)
			if val != 0 { // zeros are implied by the shape
				fmt.Fprintf(w, "%d,%d,%e\n", ridx, cidx, val)
			}
		}
	}
	return w.Flush()
}

// deserialize a matrix written by Float32Serialize
func Float32Deserialize(fn string) (*Float32Matrix, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lineIdx := 0
	var tmp *Float32Matrix

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			shape := strings.Split(txt, ",")
			if len(shape) != 2 {
				return nil, fmt.Errorf("%w: shape not found: %s", ErrCorrupted, txt)
			}
			row, err := strconv.Atoi(shape[0])
			if err != nil {
				return nil, err
			}
			col, err := strconv.Atoi(shape[1])
			if err != nil {
				return nil, err
			}
			if row <= 0 || col <= 0 {
				return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, row, col)
			}
			tmp = NewFloat32Matrix(row, col)
			lineIdx += 1
			continue
		}

		value := strings.Split(txt, ",")
		if len(value) != 3 {
			log.Warningf("data corrupted, row %d, data %s", lineIdx, txt)
			lineIdx += 1
			continue
		}
		ridx, err := strconv.Atoi(value[0])
		if err != nil {
			return nil, err
		}
		cidx, err := strconv.Atoi(value[1])
		if err != nil {
			return nil, err
		}
		val, err := strconv.ParseFloat(value[2], 32)
		if err != nil {
			return nil, err
		}
		if ridx < 0 || cidx < 0 || ridx >= tmp.nrow || cidx >= tmp.ncol {
			return nil, fmt.Errorf("%w: entry %d,%d outside %dx%d",
				ErrCorrupted, ridx, cidx, tmp.nrow, tmp.ncol)
		}
		tmp.Set(ridx, cidx, float32(val))

		lineIdx += 1
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, fmt.Errorf("%w: empty file %s", ErrCorrupted, fn)
	}

	return tmp, nil
}

// MarshalBinary encodes the shape as two little-endian uint32 values
// followed by the row major float32 payload.
func (m *Float32Matrix) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+4*len(m.data))
	binary.LittleEndian.PutUint32(buf[0:], uint32(m.nrow))
	binary.LittleEndian.PutUint32(buf[4:], uint32(m.ncol))
	for i, v := range m.data {
		binary.LittleEndian.PutUint32(buf[8+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary into m.
func (m *Float32Matrix) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: short header", ErrCorrupted)
	}
	r := int(binary.LittleEndian.Uint32(data[0:]))
	c := int(binary.LittleEndian.Uint32(data[4:]))
	if r <= 0 || c <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadShape, r, c)
	}
	payload := data[8:]
	if len(payload) != 4*r*c {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrCorrupted, 4*r*c, len(payload))
	}
	vals := make([]float32, r*c)
	rd := bytes.NewReader(payload)
	if err := binary.Read(rd, binary.LittleEndian, vals); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	m.nrow, m.ncol, m.data = r, c, vals
	return nil
}
