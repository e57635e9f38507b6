package app

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/storage"
)

// LoadCollection reads every collection file in dir.
func LoadCollection(dir string) (*axl.Collection, error) {
	paths, err := storage.Collections(dir)
	if err != nil {
		return nil, err
	}
	var all []*axl.Packet
	for _, p := range paths {
		pcks, err := storage.ReadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, pcks...)
	}
	if len(all) == 0 {
		return nil, errors.Errorf("no packages in %s", dir)
	}
	return axl.NewCollection(all), nil
}

// WriteSegments prints the continuous segments of c between start and end.
func WriteSegments(w io.Writer, c *axl.Collection, start, end time.Time, maxGap time.Duration) int {
	c.Clip(start, end)
	segs := c.Segments(maxGap)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Start", "End", "Duration", "Packages", "Max gap"})
	for i, s := range segs {
		t.AppendRow(table.Row{
			i,
			s.Start().Format(time.RFC3339),
			s.End().Format(time.RFC3339),
			s.Duration().Round(time.Second),
			s.Len(),
			s.MaxGap(),
		})
	}
	t.Render()
	return len(segs)
}

// WriteFile prints one row per package of a collection file.
func WriteFile(w io.Writer, path string) error {
	pcks, err := storage.ReadFile(path)
	if err != nil {
		return err
	}
	sort.SliceStable(pcks, func(i, j int) bool { return pcks[i].Timestamp < pcks[j].Timestamp })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Storage ID", "End", "Freq", "Offset", "Samples", "Lat", "Lon", "Mean z"})
	for _, p := range pcks {
		id := "-"
		if p.StorageID != nil {
			id = fmt.Sprint(*p.StorageID)
		}
		t.AppendRow(table.Row{
			id,
			p.End().Format(time.RFC3339),
			p.Freq,
			p.Offset,
			p.Len(),
			fmt.Sprintf("%.5f", p.Lat),
			fmt.Sprintf("%.5f", p.Lon),
			fmt.Sprintf("%.3f", mean(p.Axis(2))),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", len(pcks)})
	t.Render()
	return nil
}

func mean(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	f := make([]float64, len(v))
	for i, x := range v {
		f[i] = float64(x)
	}
	return floats.Sum(f) / float64(len(f))
}
