// File: cmd/layout.go
package cmd

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/spindle/internal/wheel"
)

// SegmentLayout is one row of the layout command's output.
type SegmentLayout struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
	Share  float64 `json:"share"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Mid    float64 `json:"mid"`
	// Landing is the wheel rotation, mod one turn, that puts Mid under the pointer.
	Landing float64 `json:"landing"`
	// Sampled is the observed frequency over --samples draws, when requested.
	Sampled *float64 `json:"sampled,omitempty"`
}

func newLayoutCmd() *cobra.Command {
	var (
		degrees bool
		samples int
		seed    int64
		format  string
	)

	layoutCmd := &cobra.Command{
		Use:   "layout [wheel-id...]",
		Short: "Print the segment geometry of configured wheels",
		Long: `Prints each wheel's angular intervals, measured clockwise from the pointer at the top.
With --samples the sampler is run that many times so its frequencies can be compared
with the segment shares.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			content := cfg.Content()

			defs := content.Wheels
			if len(args) > 0 {
				defs = defs[:0:0]
				for _, id := range args {
					def, ok := content.Wheel(id)
					if !ok {
						return fmt.Errorf("unknown wheel %q", id)
					}
					defs = append(defs, def)
				}
			}

			rng := rand.New(rand.NewSource(resolveSeed(seed)))
			out := make(map[string][]SegmentLayout, len(defs))
			order := make([]wheel.Definition, 0, len(defs))
			for _, def := range defs {
				rows, err := layoutRows(def.Segments, degrees, samples, rng)
				if err != nil {
					return fmt.Errorf("wheel %s: %w", def.ID, err)
				}
				out[def.ID] = rows
				order = append(order, def)
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "text":
				return writeLayoutText(cmd.OutOrStdout(), order, out, degrees)
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}

	layoutCmd.Flags().BoolVar(&degrees, "degrees", false, "report angles in degrees instead of radians")
	layoutCmd.Flags().IntVar(&samples, "samples", 0, "draw this many samples per wheel and report frequencies")
	layoutCmd.Flags().Int64Var(&seed, "seed", 0, "seed for --samples (0 picks one from the clock)")
	layoutCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	return layoutCmd
}

func layoutRows(opts []wheel.Option, degrees bool, samples int, rng wheel.Rand) ([]SegmentLayout, error) {
	intervals, err := wheel.Layout(opts)
	if err != nil {
		return nil, err
	}
	unit := func(a float64) float64 {
		if degrees {
			return a * 180 / math.Pi
		}
		return a
	}

	var counts []int
	if samples > 0 {
		counts = make([]int, len(opts))
		for i := 0; i < samples; i++ {
			idx, err := wheel.Sample(opts, rng)
			if err != nil {
				return nil, err
			}
			counts[idx]++
		}
	}

	rows := make([]SegmentLayout, len(opts))
	for i, o := range opts {
		iv := intervals[i]
		rows[i] = SegmentLayout{
			Key:     o.Key,
			Label:   o.Label,
			Weight:  wheel.CoerceWeight(o.Weight),
			Share:   iv.Span() / wheel.FullTurn,
			Start:   unit(iv.Start),
			End:     unit(iv.End),
			Mid:     unit(iv.Mid),
			Landing: unit(wheel.LandingAngle(intervals, i)),
		}
		if counts != nil {
			f := float64(counts[i]) / float64(samples)
			rows[i].Sampled = &f
		}
	}
	return rows, nil
}

func writeLayoutText(w io.Writer, order []wheel.Definition, rows map[string][]SegmentLayout, degrees bool) error {
	unit := "rad"
	if degrees {
		unit = "deg"
	}
	var b strings.Builder
	for _, def := range order {
		fmt.Fprintf(&b, "%s (%s) [%s]\n", def.Title, def.ID, unit)
		for _, r := range rows[def.ID] {
			fmt.Fprintf(&b, "  %-14s %6.1f%%  %9.3f .. %9.3f  mid %9.3f", r.Label, 100*r.Share, r.Start, r.End, r.Mid)
			if r.Sampled != nil {
				fmt.Fprintf(&b, "  sampled %5.1f%%", 100*(*r.Sampled))
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
