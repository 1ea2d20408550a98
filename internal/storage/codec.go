package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

const (
	matrixMagic   = "PQAM"
	matrixVersion = byte(1)

	// magic + version + rows + cols
	matrixHeaderSize = len(matrixMagic) + 1 + 4 + 4

	// maxLineBytes bounds a single JSONL record
	maxLineBytes = 16 * 1024 * 1024
)

// serializeVector converts a float32 slice to a little-endian byte blob
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob length %d is not a multiple of 4", ErrCorrupt, len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}

// encodeMatrix writes m in the binary matrix format:
// magic, version, rows (uint32 LE), cols (uint32 LE), then rows*cols float32 LE
func encodeMatrix(w io.Writer, m *types.Matrix) error {
	header := make([]byte, matrixHeaderSize)
	copy(header, matrixMagic)
	header[len(matrixMagic)] = matrixVersion
	binary.LittleEndian.PutUint32(header[len(matrixMagic)+1:], uint32(m.Rows))
	binary.LittleEndian.PutUint32(header[len(matrixMagic)+5:], uint32(m.Cols))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write matrix header: %w", err)
	}
	if _, err := w.Write(serializeVector(m.Data)); err != nil {
		return fmt.Errorf("failed to write matrix data: %w", err)
	}
	return nil
}

// decodeMatrixHeader validates the fixed-size header and returns the shape
func decodeMatrixHeader(data []byte) (rows, cols int, err error) {
	if len(data) < matrixHeaderSize {
		return 0, 0, fmt.Errorf("%w: matrix file too short (%d bytes)", ErrCorrupt, len(data))
	}
	if string(data[:len(matrixMagic)]) != matrixMagic {
		return 0, 0, fmt.Errorf("%w: bad matrix magic", ErrCorrupt)
	}
	if v := data[len(matrixMagic)]; v != matrixVersion {
		return 0, 0, fmt.Errorf("%w: unsupported matrix version %d", ErrCorrupt, v)
	}

	rows = int(binary.LittleEndian.Uint32(data[len(matrixMagic)+1:]))
	cols = int(binary.LittleEndian.Uint32(data[len(matrixMagic)+5:]))
	return rows, cols, nil
}

// decodeMatrix reads a matrix written by encodeMatrix
func decodeMatrix(data []byte) (*types.Matrix, error) {
	rows, cols, err := decodeMatrixHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[matrixHeaderSize:]
	if len(body) != rows*cols*4 {
		return nil, fmt.Errorf("%w: matrix %dx%d needs %d bytes, found %d", ErrCorrupt, rows, cols, rows*cols*4, len(body))
	}

	values, err := deserializeVector(body)
	if err != nil {
		return nil, err
	}

	m := &types.Matrix{Rows: rows, Cols: cols, Data: values}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return m, nil
}

// encodeChunks writes one JSON object per line
func encodeChunks(w io.Writer, chunks []types.Chunk) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range chunks {
		if err := enc.Encode(&chunks[i]); err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", chunks[i].ChunkID, err)
		}
	}
	return nil
}

// decodeChunks reads the JSONL chunk list, skipping blank lines
func decodeChunks(data []byte) ([]types.Chunk, error) {
	chunks := []types.Chunk{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c types.Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	return chunks, nil
}
