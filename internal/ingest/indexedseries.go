package ingest

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// IndexedSeries is the parsed shape shared by inflow and action files: a
// header declares which node ids occupy which columns, and every
// subsequent row is a timestamp followed by one value per declared column.
// Node ids not named in the header are left at the caller's pre-zeroed
// default for every timestep, matching Dataset's pre-zeroed inflow/action
// arrays in the original.
type IndexedSeries struct {
	NodeIDs []int
	Year, Month, Day, Hour []int
	Values  [][]float64 // Values[col][t], one slice per declared node id
}

// readIndexedSeriesFile parses the Date_NodeID <id...> header format shared
// by inflow and action files. kind names the file in error messages.
func readIndexedSeriesFile(path, kind string) (*IndexedSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("open %s file: %w", kind, err))
	}
	defer f.Close()

	lr := newLineReader(f)
	header, err := lr.next()
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("missing %s header: %w", kind, err))
	}
	if header[0] != "Date_NodeID" {
		return nil, newParseError(path, lr.lineNo, fmt.Errorf("expected Date_NodeID, got %q", header[0]))
	}

	out := &IndexedSeries{}
	for _, s := range header[1:] {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("ingest: %s file %s: line %d: bad node id %q: %w", kind, path, lr.lineNo, s, err)
		}
		out.NodeIDs = append(out.NodeIDs, id)
	}
	out.Values = make([][]float64, len(out.NodeIDs))

	for {
		fields, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		date, ferr := field(fields, 0, lr.lineNo, kind+" row date")
		if ferr != nil {
			return nil, ferr
		}
		y, m, d, h, ferr := parseDateHour(date)
		if ferr != nil {
			return nil, fmt.Errorf("ingest: %s file %s: line %d: %w", kind, path, lr.lineNo, ferr)
		}
		out.Year = append(out.Year, y)
		out.Month = append(out.Month, m)
		out.Day = append(out.Day, d)
		out.Hour = append(out.Hour, h)

		for c := range out.NodeIDs {
			s, ferr := field(fields, c+1, lr.lineNo, kind+" row value")
			if ferr != nil {
				return nil, ferr
			}
			v, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return nil, fmt.Errorf("ingest: %s file %s: line %d: bad value %q: %w", kind, path, lr.lineNo, s, ferr)
			}
			out.Values[c] = append(out.Values[c], v)
		}
	}
	return out, nil
}

// ReadInflowFile parses an inflow file.
func ReadInflowFile(path string) (*IndexedSeries, error) {
	return readIndexedSeriesFile(path, "inflow")
}

// ReadActionFile parses an action file.
func ReadActionFile(path string) (*IndexedSeries, error) {
	return readIndexedSeriesFile(path, "action")
}

// Stps returns the number of timesteps in the series, 0 if empty.
func (s *IndexedSeries) Stps() int {
	return len(s.Year)
}

// ColumnFor returns the column index of nodeID in NodeIDs, or -1 if the
// node id is not declared in this file's header — the node's value for
// every timestep then stays at the caller-provided default, normally 0.
func (s *IndexedSeries) ColumnFor(nodeID int) int {
	for i, id := range s.NodeIDs {
		if id == nodeID {
			return i
		}
	}
	return -1
}
