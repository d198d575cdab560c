package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/physics"
)

func runResult(t *testing.T) (dynamo.Config, *dynamo.Result) {
	t.Helper()
	cfg := dynamo.Config{Steps: 100, Dt: 0.01, SampleEvery: 25}
	result, err := dynamo.New().Run(physics.NewSystem(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	result.Metrics["energy_drift"] = 1.5e-6
	return cfg, result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, result := runResult(t)
	runID, err := st.Save(cfg, time.Millisecond, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", meta.Steps)
	}
	if meta.FinalEnergy != result.FinalEnergy {
		t.Errorf("final energy %v != %v", meta.FinalEnergy, result.FinalEnergy)
	}
	if meta.Metrics["energy_drift"] != 1.5e-6 {
		t.Errorf("expected drift metric 1.5e-6, got %v", meta.Metrics["energy_drift"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}

	if len(samples) != len(result.Samples) {
		t.Fatalf("expected %d samples, got %d", len(result.Samples), len(samples))
	}
	for i := range samples {
		if samples[i].Energy != result.Samples[i].Energy {
			t.Errorf("sample %d energy %v != %v", i, samples[i].Energy, result.Samples[i].Energy)
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg, result := runResult(t)
	if _, err := st.Save(cfg, 0, result); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, result := runResult(t)
	runID, err := st.Save(cfg, 0, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "energy.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreExport(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, result := runResult(t)
	runID, err := st.Save(cfg, 0, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid export json: %v", err)
	}
	if data.ID != runID {
		t.Errorf("expected id %s, got %s", runID, data.ID)
	}
	if len(data.Samples) != len(result.Samples) {
		t.Errorf("expected %d samples, got %d", len(result.Samples), len(data.Samples))
	}
}

func TestStoreLoad_Unknown(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
}

type failingCloser struct {
	bytes.Buffer
}

func (f *failingCloser) Close() error { return errors.New("disk full") }

func TestStoreSave_CloseError(t *testing.T) {
	orig := createFile
	defer func() { createFile = orig }()
	createFile = func(string) (io.WriteCloser, error) { return &failingCloser{}, nil }

	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	cfg, result := runResult(t)
	if _, err := st.Save(cfg, time.Second, result); err == nil {
		t.Fatal("expected save to report the close error")
	}
}
