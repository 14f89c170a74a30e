// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/humaidq/hemoscan/archive"
	"github.com/humaidq/hemoscan/augment"
	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/pipeline"
)

const yamlSample = `sex: female
age: 30
hemoglobin: 10.5
rbc_count: 4.5
hematocrit: 33
mcv: 70
mch: 25
mchc: 30
rdw: 14
`

const jsonSample = `{"sex":"Male","age":52,"hemoglobin":7.0,"rbc_count":3.1,"hematocrit":24,` +
	`"mcv":88,"mch":29,"mchc":33,"rdw":18}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadSampleFile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		file     string
		content  string
		wantSex  cbc.Sex
		wantHb   float64
		wantSeve cbc.Severity
	}{
		{name: "yaml", file: "sample.yaml", content: yamlSample, wantSex: cbc.SexFemale, wantHb: 10.5, wantSeve: cbc.SeverityModerate},
		{name: "json", file: "sample.json", content: jsonSample, wantSex: cbc.SexMale, wantHb: 7.0, wantSeve: cbc.SeveritySevere},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in, err := loadSampleFile(writeFile(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("loadSampleFile failed: %v", err)
			}

			s, err := in.Validate()
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if s.Sex != tc.wantSex || s.Hemoglobin != tc.wantHb {
				t.Fatalf("unexpected sample: %+v", s)
			}

			d, err := cbc.DefaultEngine().Classify(s)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if d.Severity != tc.wantSeve {
				t.Fatalf("expected severity %s, got %s", tc.wantSeve, d.Severity)
			}
		})
	}
}

func TestLoadSampleFileErrors(t *testing.T) {
	t.Parallel()

	if _, err := loadSampleFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	if _, err := loadSampleFile(writeFile(t, "bad.yaml", "sex: [unterminated")); err == nil {
		t.Fatal("expected error for unparsable file")
	}

	in, err := loadSampleFile(writeFile(t, "partial.yaml", strings.Replace(yamlSample, "rdw: 14\n", "", 1)))
	if err != nil {
		t.Fatalf("loadSampleFile failed: %v", err)
	}
	if _, err := in.Validate(); !errors.Is(err, cbc.ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for missing rdw, got %v", err)
	}
}

func TestBuildAugmenter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	a, err := buildAugmenter(ctx, augmenterOptions{Backend: augmenterNone})
	if err != nil {
		t.Fatalf("buildAugmenter(none) failed: %v", err)
	}
	if _, ok := a.(augment.Disabled); !ok {
		t.Fatalf("expected Disabled augmenter, got %T", a)
	}

	a, err = buildAugmenter(ctx, augmenterOptions{Backend: "Ollama", OllamaURL: "http://localhost:11434", OllamaModel: "llama3"})
	if err != nil {
		t.Fatalf("buildAugmenter(ollama) failed: %v", err)
	}
	if _, ok := a.(*augment.Ollama); !ok {
		t.Fatalf("expected *augment.Ollama, got %T", a)
	}

	a, err = buildAugmenter(ctx, augmenterOptions{Backend: augmenterNone, Rate: 2})
	if err != nil {
		t.Fatalf("buildAugmenter with rate failed: %v", err)
	}
	if _, ok := a.(augment.Disabled); ok {
		t.Fatal("expected rate-limited wrapper around the augmenter")
	}

	failures := []struct {
		name string
		opts augmenterOptions
	}{
		{name: "unknown backend", opts: augmenterOptions{Backend: "openai"}},
		{name: "ollama without url", opts: augmenterOptions{Backend: augmenterOllama, OllamaModel: "llama3"}},
		{name: "gemini without key", opts: augmenterOptions{Backend: augmenterGemini}},
		{name: "anthropic without key", opts: augmenterOptions{Backend: augmenterAnthropic}},
		{name: "negative rate", opts: augmenterOptions{Backend: augmenterNone, Rate: -1}},
	}

	for _, tc := range failures {
		if _, err := buildAugmenter(ctx, tc.opts); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func tableYAML(version string, skip cbc.Marker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "version: %s\nmarkers:\n", version)
	for _, m := range cbc.Markers {
		if m == skip {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", m)
		for _, sex := range []cbc.Sex{cbc.SexMale, cbc.SexFemale} {
			r, err := cbc.DefaultTable().RangeFor(m, sex)
			if err != nil {
				panic(err)
			}
			fmt.Fprintf(&b, "    %s: {low: %g, high: %g}\n", strings.ToLower(string(sex)), r.Low, r.High)
		}
	}
	return b.String()
}

func TestLoadEngine(t *testing.T) {
	t.Parallel()

	e, err := loadEngine("")
	if err != nil {
		t.Fatalf("loadEngine default failed: %v", err)
	}
	if got := e.Table().Version(); got != cbc.DefaultTableVersion {
		t.Fatalf("expected default table, got %s", got)
	}

	e, err = loadEngine(writeFile(t, "ranges.yaml", tableYAML("lab-2025", "")))
	if err != nil {
		t.Fatalf("loadEngine from file failed: %v", err)
	}
	if got := e.Table().Version(); got != "lab-2025" {
		t.Fatalf("expected lab-2025 table, got %s", got)
	}

	if _, err := loadEngine(writeFile(t, "partial.yaml", tableYAML("lab-2025", cbc.MarkerRDW))); !errors.Is(err, cbc.ErrRangeMissing) {
		t.Fatalf("expected ErrRangeMissing for incomplete table, got %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, "", "")
	if err != nil {
		t.Fatalf("openStore memory failed: %v", err)
	}
	closeStore()
	if _, ok := store.(*archive.Memory); !ok {
		t.Fatalf("expected in-memory archive, got %T", store)
	}

	store, closeStore, err = openStore(ctx, "", filepath.Join(t.TempDir(), "hemoscan.db"))
	if err != nil {
		t.Fatalf("openStore sqlite failed: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*archive.SQLite); !ok {
		t.Fatalf("expected SQLite archive, got %T", store)
	}
}

func testSamples(t *testing.T) []sampleFile {
	t.Helper()

	var samples []sampleFile
	for name, content := range map[string]string{"a.yaml": yamlSample, "b.json": jsonSample} {
		path := writeFile(t, name, content)
		in, err := loadSampleFile(path)
		if err != nil {
			t.Fatalf("loadSampleFile failed: %v", err)
		}
		samples = append(samples, sampleFile{Path: path, Input: in})
	}
	return samples
}

func TestRunAnalyses(t *testing.T) {
	t.Parallel()

	mem := archive.NewMemory()
	p := pipeline.New(pipeline.Config{Augmenter: augment.Disabled{}, Archive: mem})
	samples := testSamples(t)

	var out bytes.Buffer
	if err := runAnalyses(context.Background(), &out, p, samples, false); err != nil {
		t.Fatalf("runAnalyses failed: %v", err)
	}

	text := out.String()
	for _, s := range samples {
		if !strings.Contains(text, "== "+s.Path) {
			t.Fatalf("report for %s missing from output:\n%s", s.Path, text)
		}
	}
	for _, want := range []string{"waiting for guidance", "Guidance (fallback)", "Diet plan:", "Findings:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}

	records, err := mem.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != len(samples) {
		t.Fatalf("expected %d archived reports, got %d", len(samples), len(records))
	}
}

func TestRunAnalysesJSON(t *testing.T) {
	t.Parallel()

	p := pipeline.New(pipeline.Config{Augmenter: augment.Disabled{}})
	samples := testSamples(t)

	var out bytes.Buffer
	if err := runAnalyses(context.Background(), &out, p, samples, true); err != nil {
		t.Fatalf("runAnalyses failed: %v", err)
	}

	var results []analyzedFile
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(results) != len(samples) {
		t.Fatalf("expected %d results, got %d", len(samples), len(results))
	}
	for i, r := range results {
		if r.Path != samples[i].Path {
			t.Fatalf("result %d is for %s, want %s", i, r.Path, samples[i].Path)
		}
		if r.State != pipeline.StateFallback || !r.Result.Settled() {
			t.Fatalf("result %d not settled on fallback: %+v", i, r)
		}
	}
}

func TestListReports(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := archive.NewMemory()

	var out bytes.Buffer
	if err := listReports(ctx, &out, mem, 0, false); err != nil {
		t.Fatalf("listReports failed: %v", err)
	}
	if !strings.Contains(out.String(), "No reports archived") {
		t.Fatalf("unexpected output for empty archive: %q", out.String())
	}

	p := pipeline.New(pipeline.Config{Archive: mem})
	if err := runAnalyses(ctx, &bytes.Buffer{}, p, testSamples(t), true); err != nil {
		t.Fatalf("runAnalyses failed: %v", err)
	}

	out.Reset()
	if err := listReports(ctx, &out, mem, 1, false); err != nil {
		t.Fatalf("listReports failed: %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(out.String()), "\n") + 1; lines != 1 {
		t.Fatalf("expected 1 line with limit 1, got %d:\n%s", lines, out.String())
	}

	out.Reset()
	if err := listReports(ctx, &out, mem, 0, true); err != nil {
		t.Fatalf("listReports failed: %v", err)
	}
	var records []archive.Record
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
