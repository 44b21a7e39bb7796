package cli

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1572864, "1.50 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatSerial(t *testing.T) {
	if got := FormatSerial(42); got != "0000002a" {
		t.Errorf("FormatSerial(42) = %q", got)
	}
	if got := FormatSerial(0xDEADBEEF); got != "deadbeef" {
		t.Errorf("FormatSerial(0xDEADBEEF) = %q", got)
	}
}

func TestParseSerial(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0000002a", 42, false},
		{"2a", 42, false},
		{"0x2A", 42, false},
		{"deadbeef", 0xDEADBEEF, false},
		{"", 0, true},
		{"xyz", 0, true},
		{"100000000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSerial(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSerial(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSerial(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatGranule(t *testing.T) {
	if got := FormatGranule(-1); got != "-" {
		t.Errorf("FormatGranule(-1) = %q", got)
	}
	if got := FormatGranule(48000); got != "48000" {
		t.Errorf("FormatGranule(48000) = %q", got)
	}
}

func TestFormatFlags(t *testing.T) {
	tests := []struct {
		bos, eos, cont bool
		want           string
	}{
		{false, false, false, "-"},
		{true, false, false, "bos"},
		{false, true, true, "eos|cont"},
		{true, true, true, "bos|eos|cont"},
	}
	for _, tt := range tests {
		if got := FormatFlags(tt.bos, tt.eos, tt.cont); got != tt.want {
			t.Errorf("FormatFlags(%v, %v, %v) = %q, want %q", tt.bos, tt.eos, tt.cont, got, tt.want)
		}
	}
}
