package ui

import (
	"bytes"
	"strings"
	"testing"
)

func newTestPrinter(theme string) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	t, _ := ThemeByName(theme)
	return NewPrinter(&out, &errOut, t), &out, &errOut
}

func TestThemeByName(t *testing.T) {
	for _, name := range Themes {
		th, ok := ThemeByName(strings.ToUpper(name))
		if !ok || th.Name != name {
			t.Fatalf("ThemeByName(%q) = %q, %v", name, th.Name, ok)
		}
	}
	if th, ok := ThemeByName("sepia"); ok || th.Name != "classic" {
		t.Fatalf("unknown theme must fall back to classic, got %q %v", th.Name, ok)
	}
}

func TestOKAndFailStreams(t *testing.T) {
	p, out, errOut := newTestPrinter("mono")
	p.OK("logged in")
	p.Fail("not logged in")
	if out.String() != "ok logged in\n" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
	if errOut.String() != "x not logged in\n" {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestPanelMono(t *testing.T) {
	p, out, _ := newTestPrinter("mono")
	p.Panel("Japan", "East Asia")
	got := out.String()
	for _, want := range []string{"+", "| Japan", "East Asia"} {
		if !strings.Contains(got, want) {
			t.Fatalf("panel %q does not contain %q", got, want)
		}
	}
}

func TestBar(t *testing.T) {
	p, _, _ := newTestPrinter("mono")
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 50, 10, "[..........] 0/50"},
		{25, 50, 10, "[#####.....] 25/50"},
		{50, 50, 10, "[##########] 50/50"},
		{60, 50, 4, "[####] 60/50"},
	}
	for _, tt := range tests {
		if got := p.Bar(tt.done, tt.total, tt.width); got != tt.want {
			t.Fatalf("Bar(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}
