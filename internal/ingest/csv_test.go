package ingest

import (
	"reflect"
	"testing"
)

func TestParseDelimitedLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "Nome,CPF,Cargo",
			want: []string{"Nome", "CPF", "Cargo"},
		},
		{
			name: "fields are trimmed",
			line: "  Nome , CPF ,Cargo  ",
			want: []string{"Nome", "CPF", "Cargo"},
		},
		{
			name: "quoted comma stays literal",
			line: `"Silva, Ana",Analista`,
			want: []string{"Silva, Ana", "Analista"},
		},
		{
			name: "quotes are stripped",
			line: `"Nome","Cargo"`,
			want: []string{"Nome", "Cargo"},
		},
		{
			name: "quote mid-field toggles quoting",
			line: `ab"cd,ef"gh,ij`,
			want: []string{"abcd,efgh", "ij"},
		},
		{
			name: "trailing separator yields empty last field",
			line: "a,b,",
			want: []string{"a", "b", ""},
		},
		{
			name: "empty fields preserved",
			line: ",,",
			want: []string{"", "", ""},
		},
		{
			name: "unterminated quote consumes rest of line",
			line: `a,"b,c`,
			want: []string{"a", "b,c"},
		},
		{
			name: "single field",
			line: "valor",
			want: []string{"valor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDelimitedLine(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDelimitedLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty content", "", nil},
		{"single line no newline", "a,b", []string{"a,b"}},
		{"trailing LF dropped", "a,b\n", []string{"a,b"}},
		{"CRLF endings", "a,b\r\nc,d\r\n", []string{"a,b", "c,d"}},
		{"interior blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLines(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestBlankRow(t *testing.T) {
	if !blankRow(nil) {
		t.Error("nil row must be blank")
	}
	if !blankRow([]string{"", "  ", "\t"}) {
		t.Error("whitespace-only cells must be blank")
	}
	if blankRow([]string{"", "x"}) {
		t.Error("row with content must not be blank")
	}
}
