// cmd/sinks.go
package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ColonelBlimp/audiogram/internal/config"
	"github.com/ColonelBlimp/audiogram/internal/history"
	"github.com/ColonelBlimp/audiogram/internal/session"
	"github.com/ColonelBlimp/audiogram/internal/storage"
)

// optionalSinks builds the plot, history and archive outputs enabled in
// settings. Backends that cannot be reached are skipped with a warning so a
// session is never blocked by them.
func optionalSinks(ctx context.Context, s *config.Settings, log zerolog.Logger) ([]session.Sink, func()) {
	var sinks []session.Sink
	var closers []func()

	if s.PlotEnabled {
		sinks = append(sinks, &session.PlotSink{Dir: s.OutputDir})
	}

	if s.DatabaseURL != "" {
		store, err := history.Open(ctx, s.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			sinks = append(sinks, &session.HistorySink{Store: store})
			closers = append(closers, func() { store.Close() })
		}
	}

	if s.S3Bucket != "" {
		archive, err := openArchive(ctx, s)
		if err != nil {
			log.Warn().Err(err).Msg("archive disabled")
		} else {
			sinks = append(sinks, &session.ArchiveSink{Archive: archive, Prefix: storage.SessionPrefix})
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func openArchive(ctx context.Context, s *config.Settings) (*storage.S3Archive, error) {
	archive, err := storage.NewS3Archive(ctx, storage.S3Config{
		Bucket:   s.S3Bucket,
		Endpoint: s.S3Endpoint,
		Region:   s.S3Region,
	})
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}
