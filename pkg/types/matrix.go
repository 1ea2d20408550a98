package types

import "fmt"

// PlaceholderCols is the column count of the sentinel matrix returned for an
// empty store, signalling that the embedding dimension is not yet known
const PlaceholderCols = 1

// Matrix is a dense row-major float32 matrix. Row i holds the embedding of
// chunk i in the store.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// EmptyMatrix returns the zero-row placeholder matrix
func EmptyMatrix() *Matrix {
	return &Matrix{Rows: 0, Cols: PlaceholderCols, Data: []float32{}}
}

// NewMatrix builds a matrix from equally sized rows
func NewMatrix(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return EmptyMatrix(), nil
	}

	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: zero-width rows", ErrInvalidMatrix)
	}

	data := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidMatrix, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return &Matrix{Rows: len(rows), Cols: cols, Data: data}, nil
}

// IsPlaceholder reports whether m is the sentinel "dimension unknown" matrix
func (m *Matrix) IsPlaceholder() bool {
	return m.Rows == 0 && m.Cols == PlaceholderCols
}

// Row returns a view of row i; callers must not modify it
func (m *Matrix) Row(i int) []float32 {
	start := i * m.Cols
	return m.Data[start : start+m.Cols]
}

// Validate checks that the backing slice matches the declared shape
func (m *Matrix) Validate() error {
	if m.Rows < 0 || m.Cols <= 0 {
		return fmt.Errorf("%w: shape %dx%d", ErrInvalidMatrix, m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%w: %d values for shape %dx%d", ErrInvalidMatrix, len(m.Data), m.Rows, m.Cols)
	}
	return nil
}

// Stack returns a new matrix holding the rows of m followed by the rows of other
func (m *Matrix) Stack(other *Matrix) (*Matrix, error) {
	if m.Cols != other.Cols {
		return nil, fmt.Errorf("%w: stacking width %d onto width %d", ErrDimensionMismatch, other.Cols, m.Cols)
	}

	data := make([]float32, 0, len(m.Data)+len(other.Data))
	data = append(data, m.Data...)
	data = append(data, other.Data...)

	return &Matrix{Rows: m.Rows + other.Rows, Cols: m.Cols, Data: data}, nil
}

// Clone returns a deep copy of m
func (m *Matrix) Clone() *Matrix {
	data := make([]float32, len(m.Data))
	copy(data, m.Data)
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}
