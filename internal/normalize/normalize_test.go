package normalize

import (
	"strings"
	"testing"
)

func TestStorage_Headings(t *testing.T) {
	raw := `<h1>Getting Started</h1><p>Install the plugin first.</p><h2>Configuration</h2>`

	got, err := Storage(raw)
	if err != nil {
		t.Fatalf("Storage failed: %v", err)
	}

	want := "Getting Started\nInstall the plugin first.\nConfiguration"
	if got != want {
		t.Errorf("Storage() = %q, want %q", got, want)
	}
}

func TestStorage_TableRowsPipeDelimited(t *testing.T) {
	raw := `<table>
		<tr><th>Name</th><th>Role</th></tr>
		<tr><td>Ada</td><td>Engineer</td></tr>
	</table>`

	got, err := Storage(raw)
	if err != nil {
		t.Fatalf("Storage failed: %v", err)
	}

	want := "Name | Role\nAda | Engineer"
	if got != want {
		t.Errorf("Storage() = %q, want %q", got, want)
	}
}

func TestStorage_StructuredMacroTitleOnly(t *testing.T) {
	raw := `<p>Before</p>` +
		`<ac:structured-macro ac:name="info">` +
		`<ac:parameter ac:name="title">Deployment checklist</ac:parameter>` +
		`<ac:rich-text-body><p>macro body that should vanish</p></ac:rich-text-body>` +
		`</ac:structured-macro>` +
		`<p>After</p>`

	got, err := Storage(raw)
	if err != nil {
		t.Fatalf("Storage failed: %v", err)
	}

	if !strings.Contains(got, "Deployment checklist") {
		t.Errorf("macro title missing from output: %q", got)
	}
	if strings.Contains(got, "vanish") {
		t.Errorf("macro body leaked into output: %q", got)
	}
	if !strings.Contains(got, "Before") || !strings.Contains(got, "After") {
		t.Errorf("surrounding paragraphs lost: %q", got)
	}
}

func TestStorage_InlineMarkupJoinedWithSpaces(t *testing.T) {
	raw := `<p>The <strong>quick</strong> <em>brown</em> fox</p>`

	got, err := Storage(raw)
	if err != nil {
		t.Fatalf("Storage failed: %v", err)
	}

	if got != "The quick brown fox" {
		t.Errorf("Storage() = %q, want %q", got, "The quick brown fox")
	}
}

func TestStorage_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Storage(tt.raw)
			if err != nil {
				t.Fatalf("Storage should not fail on empty input: %v", err)
			}
			if got != "" {
				t.Errorf("expected empty output, got %q", got)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "emoji shortcode stripped",
			in:   "deploy finished :tada: everyone",
			want: "deploy finished everyone",
		},
		{
			name: "emoji symbol stripped",
			in:   "ship it \U0001F680 now",
			want: "ship it now",
		},
		{
			name: "hex color stripped",
			in:   "background is #ff8800 by default",
			want: "background is by default",
		},
		{
			name: "short hex color stripped",
			in:   "use #fff for cards",
			want: "use for cards",
		},
		{
			name: "isolated numeric token stripped",
			in:   "version 42 of the doc",
			want: "version of the doc",
		},
		{
			name: "alphanumeric token kept",
			in:   "release v42 is out",
			want: "release v42 is out",
		},
		{
			name: "whitespace collapsed and trimmed",
			in:   "  too   many\t\tspaces \n here  ",
			want: "too many spaces here",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkdown(t *testing.T) {
	raw := "# Release Notes\n\nThe *quick* fix shipped.\n\n- item one\n- item two\n"

	got, err := Markdown(raw)
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}

	for _, want := range []string{"Release Notes", "The quick fix shipped.", "item one", "item two"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
	if strings.ContainsAny(got, "#*<>") {
		t.Errorf("markup leaked into output: %q", got)
	}
}

func TestMarkdown_EmptyInput(t *testing.T) {
	got, err := Markdown("   \n  ")
	if err != nil {
		t.Fatalf("Markdown should not fail on empty input: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
