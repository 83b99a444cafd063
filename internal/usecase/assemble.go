package usecase

import (
	"bytes"
	"fmt"
	"time"

	"DailyCast/internal/domain"
)

// EpisodeFileName derives "<slug>-<YYYY-MM-DD>.mp3".
func EpisodeFileName(slug string, date time.Time) string {
	return fmt.Sprintf("%s-%s.mp3", slug, date.Format(time.DateOnly))
}

// AssembleEpisode concatenates chunks strictly by line index, after the
// optional intro. Every index in [0, total) must be present exactly once;
// arrival order of chunks is irrelevant.
func AssembleEpisode(fileName string, intro []byte, chunks []domain.AudioChunk, total int) (domain.EpisodeAudio, error) {
	if total < 0 {
		return domain.EpisodeAudio{}, fmt.Errorf("assemble: negative line count %d", total)
	}

	slots := make([][]byte, total)
	filled := make([]bool, total)
	for _, chunk := range chunks {
		if chunk.Index < 0 || chunk.Index >= total {
			return domain.EpisodeAudio{}, fmt.Errorf("assemble: chunk index %d out of range [0,%d)", chunk.Index, total)
		}
		if filled[chunk.Index] {
			return domain.EpisodeAudio{}, fmt.Errorf("assemble: duplicate chunk for line %d", chunk.Index)
		}
		slots[chunk.Index] = chunk.Data
		filled[chunk.Index] = true
	}
	for i, ok := range filled {
		if !ok {
			return domain.EpisodeAudio{}, fmt.Errorf("assemble: missing audio for line %d", i)
		}
	}

	var buf bytes.Buffer
	buf.Write(intro)
	for _, data := range slots {
		buf.Write(data)
	}

	data := buf.Bytes()
	return domain.EpisodeAudio{
		FileName:  fileName,
		Data:      data,
		Size:      len(data),
		LineCount: total,
		HasIntro:  len(intro) > 0,
	}, nil
}
