package tensorfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	headerMatrix = "%%MatrixMarket matrix coordinate real general"
	headerTensor = "%%MatrixMarket tensor coordinate real general"
)

// WriteTTX writes entries in the ttx format of spec §3: a MatrixMarket
// style header (the "matrix" variant for rank 2, "tensor" otherwise), a
// dimensions+nonzero-count line, then the coordinate list.
func WriteTTX(path string, e *Entries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tensorfile: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if len(e.Shape) == 2 {
		fmt.Fprintln(w, headerMatrix)
	} else {
		fmt.Fprintln(w, headerTensor)
	}

	for _, d := range e.Shape {
		fmt.Fprintf(w, "%d ", d)
	}
	fmt.Fprintf(w, "%d\n", len(e.List))

	for _, entry := range e.List {
		for _, c := range entry.Coord {
			fmt.Fprintf(w, "%d ", c)
		}
		fmt.Fprintf(w, "%s\n", strconv.FormatFloat(entry.Value, 'f', 2, 64))
	}
	return w.Flush()
}

// ReadTTX parses a ttx file, skipping the header comment line and reading
// the declared shape from the dimensions line.
func ReadTTX(path string) (*Entries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorfile: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, fmt.Errorf("tensorfile: %s: missing header", path)
	}
	if !strings.HasPrefix(strings.TrimSpace(sc.Text()), "%%MatrixMarket") {
		return nil, fmt.Errorf("tensorfile: %s: missing MatrixMarket header", path)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("tensorfile: %s: missing dimensions line", path)
	}
	fields := strings.Fields(strings.TrimSpace(sc.Text()))
	if len(fields) < 1 {
		return nil, fmt.Errorf("tensorfile: %s: malformed dimensions line", path)
	}
	shape := make([]int, len(fields)-1)
	for i := 0; i < len(fields)-1; i++ {
		d, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("tensorfile: %s: bad dimension %q: %w", path, fields[i], err)
		}
		shape[i] = d
	}
	nnz, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("tensorfile: %s: bad nonzero count %q: %w", path, fields[len(fields)-1], err)
	}

	out := &Entries{Shape: shape, List: make([]Entry, 0, nnz)}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lf := strings.Fields(line)
		if len(lf) < 1 {
			return nil, fmt.Errorf("tensorfile: %s: malformed line %q", path, line)
		}
		entry := Entry{Coord: make([]int, len(lf)-1)}
		for i := 0; i < len(lf)-1; i++ {
			c, err := strconv.Atoi(lf[i])
			if err != nil {
				return nil, fmt.Errorf("tensorfile: %s: bad coordinate %q: %w", path, lf[i], err)
			}
			entry.Coord[i] = c
		}
		v, err := strconv.ParseFloat(lf[len(lf)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("tensorfile: %s: bad value %q: %w", path, lf[len(lf)-1], err)
		}
		entry.Value = v
		out.List = append(out.List, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tensorfile: %s: scan: %w", path, err)
	}
	if len(out.List) != nnz {
		return nil, fmt.Errorf("tensorfile: %s: declared %d nonzeros, found %d", path, nnz, len(out.List))
	}
	return out, nil
}
