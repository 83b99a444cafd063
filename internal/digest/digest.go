// Package digest renders the post-publish chat summary of an episode.
package digest

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"DailyCast/internal/domain"
)

const processing = "(processing)"

// markdownEscaper covers the entity markers of Telegram's legacy Markdown mode.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// Formatter builds Markdown digests for the operator chat.
type Formatter struct {
	showTitle string
	md        *converter.Converter
	strict    *bluemonday.Policy
}

// New creates a Formatter for the named show.
func New(showTitle string) *Formatter {
	return &Formatter{
		showTitle: showTitle,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		strict: bluemonday.StrictPolicy(),
	}
}

// Episode renders title, description, deep dives and the audio link.
func (f *Formatter) Episode(script domain.EpisodeScript, published domain.PublishedEpisode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📻 *%s — %s*\n\n", Escape(f.showTitle), Escape(script.Title))
	b.WriteString(f.description(script.Description))
	b.WriteString("\n\n📖 *Deep Dives:*\n")

	dives := make([]string, 0, len(script.DeepDives))
	for _, d := range script.DeepDives {
		dives = append(dives, fmt.Sprintf("• %s\n  %s", Escape(d.Tease), d.URL))
	}
	b.WriteString(strings.Join(dives, "\n"))

	audio := published.AudioURL
	if audio == "" {
		audio = processing
	}
	fmt.Fprintf(&b, "\n\n🎧 %s", audio)
	return b.String()
}

// Markdown converts HTML to Markdown. Plain text passes through unchanged;
// when conversion fails all tags are stripped instead.
func (f *Formatter) Markdown(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "<") {
		return text
	}
	out, err := f.md.ConvertString(text)
	if err != nil {
		return strings.TrimSpace(f.strict.Sanitize(text))
	}
	return strings.TrimSpace(out)
}

// Escape neutralizes Markdown markers in model-generated text.
func Escape(text string) string {
	return markdownEscaper.Replace(text)
}

// description escapes plain text; HTML goes through the converter, which
// escapes literal markers itself.
func (f *Formatter) description(text string) string {
	if !strings.Contains(text, "<") {
		return Escape(strings.TrimSpace(text))
	}
	return f.Markdown(text)
}
