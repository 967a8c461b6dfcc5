// internal/session/sinks.go
package session

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ColonelBlimp/audiogram/internal/history"
	"github.com/ColonelBlimp/audiogram/internal/result"
	"github.com/ColonelBlimp/audiogram/internal/search"
)

// CSVSink writes HearingThreshold_<stamp>.csv into Dir.
type CSVSink struct {
	Dir string
	Out io.Writer // receives "Results saved to ..."; nil for silence
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, res *Result) error {
	path, err := result.SaveCSV(s.Dir, res.FinishedAt, res.Rows)
	if err != nil {
		return err
	}
	if s.Out != nil {
		fmt.Fprintf(s.Out, "Results saved to %s\n", path)
	}
	return nil
}

// PlotSink writes HearingThreshold_<stamp>.png into Dir.
type PlotSink struct {
	Dir string
}

func (s *PlotSink) Name() string { return "plot" }

func (s *PlotSink) Write(ctx context.Context, res *Result) error {
	path := filepath.Join(s.Dir, result.PlotFileName(result.BaseName(res.FinishedAt)))
	return result.WritePlot(path, res.Rows)
}

// HistorySink stores the session for later comparison.
type HistorySink struct {
	Store history.Store
}

func (s *HistorySink) Name() string { return "history" }

func (s *HistorySink) Write(ctx context.Context, res *Result) error {
	return s.Store.Save(ctx, HistoryRecord(res))
}

// HistoryRecord converts a Result to its stored form.
func HistoryRecord(res *Result) *history.Session {
	points := make([]history.Point, res.Curve.Len())
	for i := range points {
		t := res.Curve.At(i)
		p := history.Point{
			FrequencyHz: res.Frequencies.At(i),
			Detected:    t.Status == search.Found,
			Amplitude:   t.Value(),
			Power:       res.Power[i],
		}
		if p.Detected {
			k := t.LadderIndex
			p.LadderIndex = &k
		}
		points[i] = p
	}
	return &history.Session{
		ID:         res.ID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Seed:       res.Seed,
		LadderSize: res.Ladder.Len(),
		Points:     points,
	}
}

// Archiver is the subset of storage.S3Archive the archive sink needs.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ArchiveSink uploads the CSV document under Prefix.
type ArchiveSink struct {
	Archive Archiver
	Prefix  string
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Write(ctx context.Context, res *Result) error {
	data, err := result.EncodeCSV(res.Rows)
	if err != nil {
		return err
	}
	return s.Archive.Put(ctx, s.Prefix+result.FileName(res.FinishedAt), data, "text/csv")
}
