package codec

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		codec string
		in    string
		want  string
	}{
		{"rot13", "Hello Kitty", "Uryyb Xvggl"},
		{"rot_13", "foo", "sbb"},
		{"ROT13", "FOO", "SBB"},
		{"base64", "synth", "c3ludGg="},
		{"hex", "hi", "6869"},
		{"url", "a b&c", "a+b%26c"},
		{"html", "<a>", "&lt;a&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			got, err := Encode(tt.codec, tt.in)
			if err != nil {
				t.Fatalf("Encode(%q, %q) error: %v", tt.codec, tt.in, err)
			}

			if got != tt.want {
				t.Errorf("Encode(%q, %q) = %q, want %q", tt.codec, tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{"", "Hello Kitty", "unicode ✓ ünïcödé", "a+b=c&d"}

	for _, name := range Names() {
		for _, in := range inputs {
			enc, err := Encode(name, in)
			if err != nil {
				t.Fatalf("Encode(%q) error: %v", name, err)
			}

			dec, err := Decode(name, enc)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", name, err)
			}

			if dec != in {
				t.Errorf("%s: Decode(Encode(%q)) = %q", name, in, dec)
			}
		}
	}
}

func TestRot13_Involutive(t *testing.T) {
	c, ok := Lookup("rot13")
	if !ok {
		t.Fatal("rot13 not registered")
	}

	if !c.Involutive() {
		t.Error("rot13 should be involutive")
	}

	once, _ := c.Encode("Hello Kitty")
	twice, _ := c.Encode(once)

	if twice != "Hello Kitty" {
		t.Errorf("rot13 applied twice = %q", twice)
	}
}

func TestUnknownCodec(t *testing.T) {
	_, err := Encode("nope", "x")
	if !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}

	_, err = Decode("nope", "x")
	if !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode("base64", "!!!"); err == nil {
		t.Error("expected error decoding invalid base64")
	}

	if _, err := Decode("hex", "zz"); err == nil {
		t.Error("expected error decoding invalid hex")
	}
}
