package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

// SynthesizeLines issues one speech request per line with at most workers in
// flight. The first failure cancels the rest and is returned; results are
// stored by line index, never by completion order.
func SynthesizeLines(ctx context.Context, synth ports.SpeechSynthesizer, lines []domain.SpeakerLine, workers int) ([]domain.AudioChunk, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	if synth == nil {
		return nil, fmt.Errorf("speech synthesizer is not configured")
	}
	if workers <= 0 {
		workers = 1
	}

	chunks := make([]domain.AudioChunk, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, line := range lines {
		g.Go(func() error {
			data, err := synth.Synthesize(gctx, line)
			if err != nil {
				return fmt.Errorf("line %d (%s): %w", line.Index, line.Speaker, err)
			}
			chunks[i] = domain.AudioChunk{Index: line.Index, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
