package refaudio

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix returns a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// Row returns row i, sharing the backing array.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Fit returns a copy with exactly rows rows, truncating extra rows or
// appending zero rows.
func (m Matrix) Fit(rows int) Matrix {
	out := NewMatrix(rows, m.Cols)
	for i := range min(rows, m.Rows) {
		copy(out.Row(i), m.Row(i))
	}

	return out
}
