package output

import "testing"

func TestNewReportWriter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
	}{
		{name: "Console", format: FormatConsole},
		{name: "JSON", format: FormatJSON},
		{name: "Markdown", format: FormatMarkdown},
		{name: "Unknown defaults to Console", format: "unknown"},
		{name: "Empty defaults to Console", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewReportWriter(tt.format)
			if writer == nil {
				t.Fatal("NewReportWriter returned nil")
			}

			switch tt.format {
			case FormatJSON:
				if _, ok := writer.(*JSONWriter); !ok {
					t.Errorf("Expected *JSONWriter for format %q", tt.format)
				}
			case FormatMarkdown:
				if _, ok := writer.(*MarkdownWriter); !ok {
					t.Errorf("Expected *MarkdownWriter for format %q", tt.format)
				}
			default:
				if _, ok := writer.(*ConsoleWriter); !ok {
					t.Errorf("Expected *ConsoleWriter for format %q", tt.format)
				}
			}
		})
	}
}
