package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWithoutCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "usage:") {
		t.Fatalf("stderr: %q", errOut.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"frobnicate"}, &out, &errOut); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunKinds(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"kinds"}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut.String())
	}
	for _, want := range []string{"Multiplicity", "particle_type (string)", "harmonic_n (harmonic)", "pT_bins (bins)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("kinds output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunIngestThenQuery(t *testing.T) {
	t.Setenv("HICDATA_STORE_DRIVER", "sqlite")
	t.Setenv("HICDATA_SQLITE_PATH", filepath.Join(t.TempDir(), "catalog.db"))
	t.Setenv("HICDATA_BLOB_DRIVER", "fs")
	t.Setenv("HICDATA_BLOB_FS_ROOT", t.TempDir())

	dataRoot := t.TempDir()
	dir := filepath.Join(dataRoot, "Pb-Pb-2760", "ALICE")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dat := "# 1012.1657\n0 5 2.5 1601 60\n5 10 7.5 1294 49\n"
	if err := os.WriteFile(filepath.Join(dir, "dNch_deta.dat"), []byte(dat), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"ingest", "-dir", dataRoot}, &out, &errOut); code != 0 {
		t.Fatalf("ingest exit = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "ingested 1, skipped 0") {
		t.Fatalf("ingest output: %q", out.String())
	}

	out.Reset()
	if code := run([]string{"query", "-observable", "dNch_deta"}, &out, &errOut); code != 0 {
		t.Fatalf("query exit = %d, stderr = %s", code, errOut.String())
	}
	for _, want := range []string{"Pb-Pb-2760", "ALICE", "1601", "1012.1657"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("query output missing %q", want)
		}
	}

	out.Reset()
	if code := run([]string{"query", "-observable", "dNch_deta",
		"-system", "Pb-Pb-2760", "-collaboration", "ALICE", "-arxiv", "1012.1657"}, &out, &errOut); code != 0 {
		t.Fatalf("triple query exit = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "\"collaboration\": \"ALICE\"") {
		t.Errorf("triple query output: %q", out.String())
	}
}

func TestRunQueryNotFound(t *testing.T) {
	t.Setenv("HICDATA_STORE_DRIVER", "memory")
	var out, errOut bytes.Buffer
	if code := run([]string{"query", "-observable", "nonexistent_observable"}, &out, &errOut); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "not found") {
		t.Fatalf("stderr: %q", errOut.String())
	}
}

func TestRunIngestRequiresDir(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"ingest"}, &out, &errOut); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
