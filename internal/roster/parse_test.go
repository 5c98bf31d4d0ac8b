package roster

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantName    string
		wantCredits int
		wantErr     bool
	}{
		{name: "bare_name", input: "赵四", wantName: "赵四", wantCredits: 1},
		{name: "ascii_open", input: "钱五(3", wantName: "钱五", wantCredits: 3},
		{name: "full_open", input: "钱五（3", wantName: "钱五", wantCredits: 3},
		{name: "ascii_closed", input: "孙六(2)", wantName: "孙六", wantCredits: 2},
		{name: "full_closed", input: "孙六（2）", wantName: "孙六", wantCredits: 2},
		{name: "surrounding_space", input: "  李七 （ 4 ）  ", wantName: "李七", wantCredits: 4},
		{name: "bracket_in_name", input: "小明(哈哈)", wantName: "小明(哈哈)", wantCredits: 1},
		{name: "last_bracket_wins", input: "a(b)（5", wantName: "a(b)", wantCredits: 5},
		{name: "zero_kept", input: "周八（0", wantName: "周八", wantCredits: 0},
		{name: "empty_name", input: "（3", wantErr: true},
		{name: "junk_after_count", input: "吴九(3x", wantErr: true},
		{name: "mixed_brackets", input: "吴九(3）", wantErr: true},
		{name: "overflow", input: "郑十(99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, credits, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = (%q, %d), want error", tt.input, name, credits)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if name != tt.wantName || credits != tt.wantCredits {
				t.Errorf("Parse(%q) = (%q, %d), want (%q, %d)", tt.input, name, credits, tt.wantName, tt.wantCredits)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		credits int
		want    string
	}{
		{"赵四", 1, "赵四"},
		{"钱五", 2, "钱五（2"},
		{"孙六", 9999, "孙六（9999"},
		{"周八", 0, "周八（0"},
	}

	for _, tt := range tests {
		if got := Format(tt.name, tt.credits); got != tt.want {
			t.Errorf("Format(%q, %d) = %q, want %q", tt.name, tt.credits, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, credits := range []int{1, 2, 9999} {
		formatted := Format("王五", credits)

		// Both canonical bracket widths must read back identically.
		variants := []string{formatted}
		if credits > 1 {
			variants = append(variants, "王五("+formatted[len("王五（"):])
		}

		for _, line := range variants {
			name, got, err := Parse(line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", line, err)
			}
			if name != "王五" || got != credits {
				t.Errorf("Parse(%q) = (%q, %d), want (%q, %d)", line, name, got, "王五", credits)
			}
		}
	}
}

func TestParseBlank(t *testing.T) {
	if _, _, err := Parse("   "); err != errBlank {
		t.Fatalf("Parse(blank) err = %v, want errBlank", err)
	}
}
