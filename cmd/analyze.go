/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/humaidq/hemoscan/augment"
	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/pipeline"
)

// maxConcurrentAnalyses bounds the analyses started by one analyze run.
const maxConcurrentAnalyses = 4

var CmdAnalyze = &cli.Command{
	Name:      "analyze",
	Usage:     "Analyze CBC sample files (YAML or JSON)",
	ArgsUsage: "FILE...",
	Flags: flags(
		[]cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print settled results as JSON",
			},
		},
		storeFlags(),
		engineFlags(),
		augmenterFlags(),
	),
	Action: analyze,
}

// sampleFile is a parsed sample waiting for analysis.
type sampleFile struct {
	Path  string
	Input cbc.Input
}

// analyzedFile is the settled analysis of one file.
type analyzedFile struct {
	Path      string         `json:"path"`
	RequestID string         `json:"request_id"`
	State     pipeline.State `json:"state"`
	Result    augment.Result `json:"result"`
	Warning   string         `json:"warning,omitempty"`
}

func loadSampleFile(path string) (cbc.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cbc.Input{}, fmt.Errorf("failed to read sample file: %w", err)
	}

	// YAML is a superset of JSON, so one decoder serves both.
	var in cbc.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return cbc.Input{}, fmt.Errorf("failed to parse sample file %s: %w", path, err)
	}

	return in, nil
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errSampleFileRequired
	}

	samples := make([]sampleFile, 0, len(paths))
	for _, path := range paths {
		in, err := loadSampleFile(path)
		if err != nil {
			return err
		}
		if _, err := in.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		samples = append(samples, sampleFile{Path: path, Input: in})
	}

	p, closeStore, err := newPipeline(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	return runAnalyses(ctx, cmd.Root().Writer, p, samples, cmd.Bool("json"))
}

// runAnalyses analyzes samples concurrently. Local results are printed as
// they become ready; settled results follow in argument order.
func runAnalyses(ctx context.Context, w io.Writer, p *pipeline.Pipeline, samples []sampleFile, asJSON bool) error {
	var outMu sync.Mutex

	results := make([]analyzedFile, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyses)

	for i, s := range samples {
		g.Go(func() error {
			observer := func(u pipeline.Update) {
				if asJSON || u.State != pipeline.StateLocalReady {
					return
				}
				outMu.Lock()
				defer outMu.Unlock()
				fmt.Fprintf(w, "%s: %s anemia screen ready (%s risk), waiting for guidance...\n",
					s.Path, u.Result.Severity, u.Result.RiskLevel)
			}

			out, err := p.Run(gctx, s.Input, observer)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Path, err)
			}

			res := analyzedFile{
				Path:      s.Path,
				RequestID: out.RequestID,
				State:     out.State,
				Result:    out.Result,
			}
			if out.ArchiveErr != nil {
				res.Warning = out.ArchiveErr.Error()
			}
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		printReport(w, r)
	}

	return nil
}

func printReport(w io.Writer, r analyzedFile) {
	res := r.Result

	fmt.Fprintf(w, "\n== %s (%s)\n", r.Path, r.RequestID)

	anemic := "no"
	if res.IsAnemic {
		anemic = "yes"
	}
	fmt.Fprintf(w, "Anemic: %s   Severity: %s   Risk: %s\n", anemic, res.Severity, res.RiskLevel)
	fmt.Fprintf(w, "Morphology: %s   Mentzer index: %.1f\n", res.MorphologyType, res.MentzerIndex)

	fmt.Fprintln(w, "Markers:")
	for _, m := range res.Markers {
		flag := ""
		if m.Status != cbc.StatusNormal {
			flag = " [" + strings.ToUpper(string(m.Status)) + "]"
		}
		fmt.Fprintf(w, "  %-28s %7.2f %-6s (%.2f - %.2f)%s\n",
			m.Marker.Label(), m.Value, m.Unit, m.Range.Low, m.Range.High, flag)
	}

	fmt.Fprintln(w, "Findings:")
	for _, e := range res.Explanations {
		fmt.Fprintf(w, "  - %s\n", e)
	}

	if res.Guidance != nil {
		fmt.Fprintf(w, "Guidance (%s): %s\n", res.Source, *res.Guidance)
	}

	if len(res.DietPlan) > 0 {
		fmt.Fprintln(w, "Diet plan:")
		for _, meal := range res.DietPlan {
			fmt.Fprintf(w, "  %s: %s\n", meal.Label, strings.Join(meal.Suggestions, "; "))
		}
	}

	if r.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", r.Warning)
	}
}
