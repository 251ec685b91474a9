package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"coinforge/internal/domain"
)

// Slot is a named placeholder token in the generated document destined to be
// replaced by an inline image asset.
type Slot struct {
	Name   string
	Token  string
	Width  int
	Height int
}

// defaultSlots is the fixed slot set every generated page carries: the coin
// mark and the hero backdrop. Prompt text and resolutions are data so a
// variant can swap them without touching the pipeline.
var defaultSlots = []Slot{
	{Name: "logo", Token: "{{COIN_LOGO}}", Width: 512, Height: 512},
	{Name: "hero", Token: "{{HERO_BACKGROUND}}", Width: 1792, Height: 1024},
}

var pageSections = []string{
	"a hero header with the coin name and a one-line hook",
	"an about section describing the project",
	"a tokenomics section with supply highlights",
	"a how-to-buy section with three numbered steps",
	"a roadmap section with short milestones",
	"a community footer with social links left as '#' anchors",
}

var titleCaser = cases.Title(language.English)

// Inputs are the user-supplied branding parameters for one generation.
type Inputs struct {
	CoinName           string
	ColorPalette       string
	ProjectDescription string
}

// Validate checks the required fields. ProjectDescription is optional.
func (in Inputs) Validate() error {
	if strings.TrimSpace(in.CoinName) == "" {
		return fmt.Errorf("%w: coinName is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.ColorPalette) == "" {
		return fmt.Errorf("%w: colorPalette is required", domain.ErrInvalidInput)
	}
	return nil
}

// DisplayName is the coin name as rendered into prompts and filenames.
func (in Inputs) DisplayName() string {
	return titleCaser.String(strings.TrimSpace(in.CoinName))
}

func buildPagePrompt(in Inputs, slots []Slot) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Create a complete single-file HTML landing page for a cryptocurrency called %q.\n", in.DisplayName())
	fmt.Fprintf(sb, "Use this color palette throughout: %s.\n", strings.TrimSpace(in.ColorPalette))
	if desc := strings.TrimSpace(in.ProjectDescription); desc != "" {
		fmt.Fprintf(sb, "Project description: %s\n", desc)
	}
	sb.WriteString("The page must contain, in order:\n")
	for i, section := range pageSections {
		fmt.Fprintf(sb, "%d. %s\n", i+1, section)
	}
	sb.WriteString("All CSS must be inline in a single <style> block. No JavaScript, no external resources.\n")
	sb.WriteString("Where images belong, place these tokens verbatim as the src attribute value:\n")
	for _, slot := range slots {
		fmt.Fprintf(sb, "- %s for the %s image\n", slot.Token, slot.Name)
	}
	sb.WriteString("Respond with the HTML document only, no explanation and no markdown fences.")
	return sb.String()
}

func buildSlotPrompt(slot Slot, in Inputs) string {
	switch slot.Name {
	case "logo":
		return fmt.Sprintf(
			"A clean circular coin logo mark for a cryptocurrency named %s, colors %s, flat vector style, centered on a plain background, no text.",
			in.DisplayName(), strings.TrimSpace(in.ColorPalette))
	case "hero":
		prompt := fmt.Sprintf(
			"A wide abstract website hero background in the colors %s, subtle gradients, no text, no logos.",
			strings.TrimSpace(in.ColorPalette))
		if desc := strings.TrimSpace(in.ProjectDescription); desc != "" {
			prompt += " Mood: " + desc + "."
		}
		return prompt
	default:
		return fmt.Sprintf("An illustration for the %s section of a %s website, colors %s.",
			slot.Name, in.DisplayName(), strings.TrimSpace(in.ColorPalette))
	}
}

// stripCodeFences removes residual markdown fences around the document. The
// model is asked not to emit them but is not contractually guaranteed to obey.
func stripCodeFences(doc string) string {
	trimmed := strings.TrimSpace(doc)
	for _, prefix := range []string{"```html", "```HTML", "```"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)
			break
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// redactedMarker replaces inline image payloads in stored history so the
// durable copy stays small while the tracker keeps the full document.
const redactedMarker = "[inline-image]"

var dataURIPattern = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]*`)

func redactInlineImages(doc string) string {
	return dataURIPattern.ReplaceAllString(doc, redactedMarker)
}
