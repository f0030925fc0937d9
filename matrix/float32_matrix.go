package matrix

// internal Float32 matrix representation
type Float32Matrix struct {
	nrow int
	ncol int
	data []float32
}

// NewFloat32Matrix creates a new zero valued Float32Matrix with r rows and
// c columns. If r or c is not positive, it will panic. A float32 slice is
// used as the underlying storage and the data layout is in row major order,
// i.e. the (i*c + j)-th element in the data slice is the [i, j]-th element
// in the matrix.
func NewFloat32Matrix(r, c int) *Float32Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	return &Float32Matrix{
		nrow: r,
		ncol: c,
		data: make([]float32, r*c),
	}
}

// NewFloat32MatrixFrom wraps data, which must hold exactly r*c values,
// without copying it.
func NewFloat32MatrixFrom(r, c int, data []float32) *Float32Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	if len(data) != r*c {
		panic(ErrIndexOutOfRange)
	}
	return &Float32Matrix{
		nrow: r,
		ncol: c,
		data: data,
	}
}

// get the shape of the matrix
func (m *Float32Matrix) Shape() (int, int) {
	return m.nrow, m.ncol
}

// get the [r, c]-th element of the matrix
func (m *Float32Matrix) Get(r, c int) float32 {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// set val to the [r, c]-th element of the matrix
func (m *Float32Matrix) Set(r, c int, val float32) {
	if r < 0 || c < 0 || r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// Row returns the r-th row as a slice sharing storage with the matrix,
// writes through it are visible in the matrix.
func (m *Float32Matrix) Row(r int) []float32 {
	if r < 0 || r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol : (r+1)*m.ncol]
}

// Data exposes the row major backing slice.
func (m *Float32Matrix) Data() []float32 {
	return m.data
}

// Clone returns a deep copy of the matrix.
func (m *Float32Matrix) Clone() *Float32Matrix {
	data := make([]float32, len(m.data))
	copy(data, m.data)
	return &Float32Matrix{
		nrow: m.nrow,
		ncol: m.ncol,
		data: data,
	}
}

// Gather copies the given rows, in order, into a new len(rows) x ncol
// matrix. It returns nil when rows is empty.
func (m *Float32Matrix) Gather(rows []int32) *Float32Matrix {
	if len(rows) == 0 {
		return nil
	}
	out := NewFloat32Matrix(len(rows), m.ncol)
	for i, r := range rows {
		copy(out.Row(i), m.Row(int(r)))
	}
	return out
}

// Zero resets every element to 0.
func (m *Float32Matrix) Zero() {
	clear(m.data)
}
