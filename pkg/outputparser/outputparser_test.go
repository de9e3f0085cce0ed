package outputparser

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")
	writeFile(t, path, "$t\tV\n0\t1.5\n0.1\t2.5\n")

	p := New(0)
	if err := p.Parse(path); err != nil {
		t.Fatal(err)
	}
	if len(p.Columns) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(p.Columns))
	}
	v := p.GetColumn("V")
	if v == nil {
		t.Fatal("expected a column named V")
	}
	if got := v.Values[len(v.Values)-2]; got != 1.5 {
		t.Fatalf("second-to-last V value = %v, want 1.5", got)
	}
	if got := v.Values[len(v.Values)-1]; got != 2.5 {
		t.Fatalf("last V value = %v, want 2.5", got)
	}
	if p.Rows != 2 {
		t.Fatalf("Rows = %d, want 2", p.Rows)
	}
	if !p.TimeFound || p.Time.Header != "$t" {
		t.Fatalf("expected $t to be recognised as the time column, got %q", p.Time.Header)
	}
}

func TestComputeStatsAllNonFiniteCollapsesToZero(t *testing.T) {
	c := &Column{Values: []float64{math.Inf(1), math.NaN(), math.Inf(-1)}}
	c.computeStats()
	if c.Minimum != 0 || c.Maximum != 0 || c.Range != 0 {
		t.Fatalf("all-non-finite column should collapse to zero, got min=%v max=%v range=%v", c.Minimum, c.Maximum, c.Range)
	}
}

func TestComputeStatsMixedFinite(t *testing.T) {
	c := &Column{Values: []float64{1, math.NaN(), 3, -2}}
	c.computeStats()
	if c.Minimum != -2 || c.Maximum != 3 || c.Range != 5 {
		t.Fatalf("min=%v max=%v range=%v, want -2 3 5", c.Minimum, c.Maximum, c.Range)
	}
}

func TestColumnsSidecarOverridesHeaderAndAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")
	writeFile(t, path, "0\t1\t2\n1\t3\t4\n")
	writeFile(t, path+".columns", "N2A.schema=3\n1:voltage\n color:blue\n scale:2\n")

	p := New(0)
	if err := p.Parse(path); err != nil {
		t.Fatal(err)
	}
	col := p.Columns[1]
	if col.Header != "voltage" {
		t.Fatalf("Header = %q, want voltage", col.Header)
	}
	if col.Color != "blue" || col.Scale != "2" {
		t.Fatalf("attributes = color=%q scale=%q, want blue/2", col.Color, col.Scale)
	}
}

func TestMissingSidecarIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")
	writeFile(t, path, "0\t1\n")

	p := New(0)
	if err := p.Parse(path); err != nil {
		t.Fatalf("parsing without a sidecar should succeed: %v", err)
	}
}
