package ingest

import "testing"

func TestReadInflowFileParsesColumnsByNodeID(t *testing.T) {
	path := writeTempFile(t, `Date_NodeID 0 2
2024010100 10.0 20.0
2024010101 11.0 21.0
`)
	series, err := ReadInflowFile(path)
	if err != nil {
		t.Fatalf("ReadInflowFile: %v", err)
	}
	if series.Stps() != 2 {
		t.Fatalf("expected 2 timesteps, got %d", series.Stps())
	}
	if series.ColumnFor(0) != 0 || series.ColumnFor(2) != 1 {
		t.Errorf("unexpected column mapping: %v", series.NodeIDs)
	}
	if series.ColumnFor(99) != -1 {
		t.Errorf("expected -1 for an undeclared node id, got %d", series.ColumnFor(99))
	}
	if series.Values[1][1] != 21.0 {
		t.Errorf("expected node 2's second value to be 21.0, got %v", series.Values[1][1])
	}
}

func TestReadActionFileRejectsMissingHeader(t *testing.T) {
	path := writeTempFile(t, `2024010100 1.0
`)
	if _, err := ReadActionFile(path); err == nil {
		t.Error("expected an error when the Date_NodeID header is missing")
	}
}

func TestReadIndexedSeriesRejectsShortRow(t *testing.T) {
	path := writeTempFile(t, `Date_NodeID 0 1
2024010100 1.0
`)
	if _, err := ReadInflowFile(path); err == nil {
		t.Error("expected an error when a row is missing a declared column's value")
	}
}
