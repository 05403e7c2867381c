package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

const testStylesheet = `/* header { background: blue } */
@import url("base.css");
body { margin: 0; background-color: #ffffff; }
.nav a,
.nav b { background: red !important; color: #000 }
@media (min-width: 600px) {
  .hero { background: linear-gradient(to right, #f00, rgb(0, 0, 255)) }
}
.card { background-color: rgba(0, 0, 0, 0.5) }
.plain { background: none; }
.alt { background-color: #ffffff }
`

func writeStylesheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.css")
	if err := os.WriteFile(path, []byte(testStylesheet), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStylesheetScan(t *testing.T) {
	path := writeStylesheet(t)

	scan, err := NewStylesheet(path, nil).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.Website != "site.css" {
		t.Errorf("Website = %q, want site.css", scan.Website)
	}

	want := []palette.Element{
		{Node: "body", Color: "rgb(255, 255, 255)", CSS: "background-color"},
		{Node: ".nav a, .nav b", Color: "rgb(255, 0, 0)", CSS: "background"},
		{Node: ".hero", Color: "linear-gradient(to right, rgb(255, 0, 0), rgb(0, 0, 255))", CSS: "background"},
		{Node: ".card", Color: "rgba(0, 0, 0, 0.5)", CSS: "background-color"},
		{Node: ".alt", Color: "rgb(255, 255, 255)", CSS: "background-color"},
	}
	if len(scan.Colors) != len(want) {
		t.Fatalf("Scan() returned %d elements, want %d: %+v", len(scan.Colors), len(want), scan.Colors)
	}
	for i := range want {
		if scan.Colors[i] != want[i] {
			t.Errorf("Colors[%d] = %+v, want %+v", i, scan.Colors[i], want[i])
		}
	}
}

func TestStylesheetApply(t *testing.T) {
	ctx := context.Background()
	path := writeStylesheet(t)
	sheet := NewStylesheet(path, nil)

	scan, err := sheet.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}

	err = sheet.Apply(ctx, substitute.Request{
		NewColourValue:       "#123456",
		PreviousColourValue:  "rgb(255, 255, 255)",
		UserFilteredElements: scan.Colors,
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{
		"body { margin: 0; background-color: #123456; }",
		".alt { background-color: #123456 }",
		"/* header { background: blue } */",
		".card { background-color: rgba(0, 0, 0, 0.5) }",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("stylesheet missing %q:\n%s", want, content)
		}
	}

	rescan, err := sheet.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := rescan.Colors[0].Color; got != "rgb(18, 52, 86)" {
		t.Errorf("body colour = %q, want rgb(18, 52, 86)", got)
	}
}

func TestStylesheetApplyKeepsImportant(t *testing.T) {
	ctx := context.Background()
	path := writeStylesheet(t)
	sheet := NewStylesheet(path, nil)

	err := sheet.Apply(ctx, substitute.Request{
		NewColourValue:      "blue",
		PreviousColourValue: "rgb(255, 0, 0)",
		UserFilteredElements: []palette.Element{
			{Node: ".nav a, .nav b", Color: "rgb(255, 0, 0)", CSS: "background"},
		},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), ".nav b { background: blue !important; color: #000 }") {
		t.Errorf("important flag not kept:\n%s", data)
	}
}

func TestStylesheetApplyOnlyListedElements(t *testing.T) {
	ctx := context.Background()
	path := writeStylesheet(t)
	sheet := NewStylesheet(path, nil)

	err := sheet.Apply(ctx, substitute.Request{
		NewColourValue:      "#000",
		PreviousColourValue: "rgb(255, 255, 255)",
		UserFilteredElements: []palette.Element{
			{Node: ".alt", Color: "rgb(255, 255, 255)", CSS: "background-color"},
		},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "background-color: #ffffff;") {
		t.Errorf("body declaration should be untouched:\n%s", content)
	}
	if !strings.Contains(content, ".alt { background-color: #000 }") {
		t.Errorf(".alt declaration not rewritten:\n%s", content)
	}
}

func TestStylesheetApplyNoMatch(t *testing.T) {
	path := writeStylesheet(t)

	err := NewStylesheet(path, nil).Apply(context.Background(), substitute.Request{
		NewColourValue:      "#000",
		PreviousColourValue: "rgb(1, 2, 3)",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != testStylesheet {
		t.Errorf("stylesheet changed without a match:\n%s", data)
	}
}

func TestStylesheetRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/css" {
			t.Errorf("Accept = %q, want text/css", got)
		}
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte(testStylesheet))
	}))
	defer server.Close()

	ctx := context.Background()
	sheet := NewStylesheet(server.URL+"/site.css", nil)

	scan, err := sheet.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	u, _ := url.Parse(server.URL)
	if scan.Website != u.Host {
		t.Errorf("Website = %q, want %q", scan.Website, u.Host)
	}
	if len(scan.Colors) != 5 {
		t.Errorf("Scan() returned %d elements, want 5", len(scan.Colors))
	}

	err = sheet.Apply(ctx, substitute.Request{
		NewColourValue:       "#000",
		PreviousColourValue:  "rgb(255, 255, 255)",
		UserFilteredElements: scan.Colors,
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("Apply() error = %v, want ErrReadOnly", err)
	}
}

func TestStylesheetMissingFile(t *testing.T) {
	_, err := NewStylesheet(filepath.Join(t.TempDir(), "missing.css"), nil).Scan(context.Background())
	if err == nil {
		t.Error("Scan() expected error for missing file")
	}
}

func TestColourOf(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"#fff", "rgb(255, 255, 255)"},
		{"#00FF00 !important", "rgb(0, 255, 0)"},
		{"rgb(1, 2, 3)", "rgb(1, 2, 3)"},
		{"url(bg.png) no-repeat rebeccapurple", "rgb(102, 51, 153)"},
		{"none", ""},
		{"inherit", ""},
		{"linear-gradient(#000, #fff)", "linear-gradient(rgb(0, 0, 0), rgb(255, 255, 255))"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := colourOf(tt.value); got != tt.want {
				t.Errorf("colourOf(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
