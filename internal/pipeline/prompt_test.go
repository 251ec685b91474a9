package pipeline

import (
	"strings"
	"testing"
)

func TestValidateRequiresNameAndPalette(t *testing.T) {
	cases := []struct {
		name    string
		in      Inputs
		wantErr bool
	}{
		{"complete", Inputs{CoinName: "moon", ColorPalette: "blue"}, false},
		{"missing name", Inputs{ColorPalette: "blue"}, true},
		{"blank name", Inputs{CoinName: "   ", ColorPalette: "blue"}, true},
		{"missing palette", Inputs{CoinName: "moon"}, true},
		{"description optional", Inputs{CoinName: "moon", ColorPalette: "blue", ProjectDescription: ""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBuildPagePromptCarriesInputsAndTokens(t *testing.T) {
	in := Inputs{CoinName: "moon cat", ColorPalette: "purple and silver", ProjectDescription: "a cat coin"}
	prompt := buildPagePrompt(in, defaultSlots)
	if !strings.Contains(prompt, `"Moon Cat"`) {
		t.Fatalf("prompt missing title-cased coin name:\n%s", prompt)
	}
	if !strings.Contains(prompt, "purple and silver") || !strings.Contains(prompt, "a cat coin") {
		t.Fatal("prompt missing palette or description")
	}
	for _, slot := range defaultSlots {
		if !strings.Contains(prompt, slot.Token) {
			t.Fatalf("prompt missing slot token %s", slot.Token)
		}
	}
}

func TestBuildSlotPromptPerSlot(t *testing.T) {
	in := Inputs{CoinName: "moon", ColorPalette: "green"}
	for _, slot := range defaultSlots {
		prompt := buildSlotPrompt(slot, in)
		if prompt == "" {
			t.Fatalf("empty prompt for slot %s", slot.Name)
		}
		if !strings.Contains(prompt, "green") {
			t.Fatalf("slot %s prompt missing palette: %s", slot.Name, prompt)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "<html></html>", "<html></html>"},
		{"plain fences", "```\n<html></html>\n```", "<html></html>"},
		{"html fences", "```html\n<html></html>\n```", "<html></html>"},
		{"upper fences", "```HTML\n<html></html>\n```", "<html></html>"},
		{"surrounding whitespace", "  \n```html\n<html></html>\n```  \n", "<html></html>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.in); got != tc.want {
				t.Fatalf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRedactInlineImagesReplacesAllPayloads(t *testing.T) {
	doc := `<img src="data:image/png;base64,AAAA"><img src="data:image/jpeg;base64,BBBB==">`
	got := redactInlineImages(doc)
	if strings.Contains(got, "base64,") {
		t.Fatalf("payloads remain: %s", got)
	}
	if strings.Count(got, redactedMarker) != 2 {
		t.Fatalf("marker count = %d, want 2: %s", strings.Count(got, redactedMarker), got)
	}
}
