package binary

import "testing"

func TestLookup3Checksum(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{"empty", []byte{}, 0xdeadbeef},
		{"reference vector", []byte("Four score and seven years ago"), 0x17770551},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup3Checksum(tt.input); got != tt.want {
				t.Errorf("Lookup3Checksum = 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

func TestLookup3ChecksumLengthVariations(t *testing.T) {
	seen := make(map[uint32]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		seen[Lookup3Checksum(data)] = length
	}
	if len(seen) != 25 {
		t.Errorf("expected 25 distinct checksums for lengths 0-24, got %d", len(seen))
	}
}

func TestFletcher32(t *testing.T) {
	if got := Fletcher32(nil); got != 0 {
		t.Errorf("Fletcher32(empty) = 0x%08x, want 0", got)
	}
	if got := Fletcher32([]byte{0x01, 0x02}); got != 0x01020102 {
		t.Errorf("Fletcher32 = 0x%08x, want 0x01020102", got)
	}
}

func TestFletcher32OddLength(t *testing.T) {
	odd := Fletcher32([]byte{0x01, 0x02, 0x03})
	even := Fletcher32([]byte{0x01, 0x02, 0x03, 0x00})
	if odd != even {
		t.Errorf("odd input should be zero padded: odd=0x%08x even=0x%08x", odd, even)
	}
}

func TestFletcher32LongInput(t *testing.T) {
	// Crosses the 360-word block boundary twice.
	data := make([]byte, 2000)
	for i := range data {
		data[i] = 0xff
	}
	got := Fletcher32(data)
	if got == 0 {
		t.Fatal("expected non-zero checksum")
	}
	data[1500] = 0
	if Fletcher32(data) == got {
		t.Error("checksum did not change after modifying input")
	}
}

func BenchmarkLookup3Checksum(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Lookup3Checksum(data)
	}
}
