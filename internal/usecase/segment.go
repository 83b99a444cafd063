package usecase

import (
	"strings"

	"DailyCast/internal/domain"
)

// SegmentScript splits a dialogue script into speaker lines. Only lines that
// start with a configured "TAG:" prefix are kept; the tag is stripped and the
// host's voice attached. Indices are zero-based in script order.
func SegmentScript(script string, hosts []domain.Host) []domain.SpeakerLine {
	var lines []domain.SpeakerLine
	for _, raw := range strings.Split(script, "\n") {
		raw = strings.TrimSpace(raw)
		host, text, ok := matchSpeaker(raw, hosts)
		if !ok || text == "" {
			continue
		}
		lines = append(lines, domain.SpeakerLine{
			Index:   len(lines),
			Speaker: host.Tag,
			Text:    text,
			VoiceID: host.VoiceID,
		})
	}

	for i := range lines {
		lines[i].Total = len(lines)
	}
	return lines
}

func matchSpeaker(line string, hosts []domain.Host) (domain.Host, string, bool) {
	for _, host := range hosts {
		if host.Tag == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, host.Tag+":"); ok {
			return host, strings.TrimSpace(rest), true
		}
	}
	return domain.Host{}, "", false
}
