package runtime

import "testing"

func TestParseVariableRef(t *testing.T) {
	tests := []struct {
		in   string
		want VariableRef
	}{
		{"SCORE", VariableRef{Name: "SCORE"}},
		{"Q01.RESPONSE", VariableRef{Prefix: "Q01", Name: "RESPONSE"}},
		{"Q01.3.RESPONSE", VariableRef{Prefix: "Q01", Sequence: 3, Name: "RESPONSE"}},
		{"_tpl.duration", VariableRef{Prefix: "_tpl", Name: "duration"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariableRef(tt.in)
			if err != nil {
				t.Fatalf("ParseVariableRef() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVariableRef() = %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestParseVariableRefErrors(t *testing.T) {
	tests := []string{
		"",
		"1SCORE",
		"Q01.0.RESPONSE",
		"Q01.-1.RESPONSE",
		"Q01.x.RESPONSE",
		"Q01.1.2.RESPONSE",
		"Q 01.RESPONSE",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseVariableRef(in); err == nil {
				t.Errorf("ParseVariableRef(%q) expected error", in)
			}
		})
	}
}

func TestOccurrenceIndex(t *testing.T) {
	if got := (VariableRef{Prefix: "Q01", Name: "X"}).OccurrenceIndex(); got != 0 {
		t.Errorf("absent sequence OccurrenceIndex() = %d, want 0", got)
	}
	if got := (VariableRef{Prefix: "Q01", Sequence: 3, Name: "X"}).OccurrenceIndex(); got != 2 {
		t.Errorf("sequence 3 OccurrenceIndex() = %d, want 2", got)
	}
}
