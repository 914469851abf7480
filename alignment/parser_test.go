package alignment

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	p := NewParser(100)

	engineID, word, err := p.ParseLine("spk-00 120 10,15,20 HELLO h_B eh_I l_E")
	if err != nil {
		t.Fatalf("ParseLine: unexpected error: %v", err)
	}
	if engineID != "spk-00" {
		t.Errorf("engineID = %q, want %q", engineID, "spk-00")
	}
	if word.Word != "HELLO" {
		t.Errorf("word = %q, want %q", word.Word, "HELLO")
	}

	want := []Phone{
		{Start: 1.20, Duration: 0.10, Phone: "h"},
		{Start: 1.30, Duration: 0.15, Phone: "eh"},
		{Start: 1.45, Duration: 0.20, Phone: "l"},
	}
	if len(word.Phones) != len(want) {
		t.Fatalf("got %d phones, want %d", len(word.Phones), len(want))
	}
	for i, w := range want {
		got := word.Phones[i]
		if got.Phone != w.Phone || !almostEqual(got.Start, w.Start) || !almostEqual(got.Duration, w.Duration) {
			t.Errorf("phone[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestParseLineFramesPerSecond(t *testing.T) {
	t.Parallel()

	p := NewParser(50)
	_, word, err := p.ParseLine("spk-0 100 25 YES j")
	if err != nil {
		t.Fatalf("ParseLine: unexpected error: %v", err)
	}
	if !almostEqual(word.Phones[0].Start, 2.0) || !almostEqual(word.Phones[0].Duration, 0.5) {
		t.Errorf("phone = %+v, want start 2.0 duration 0.5", word.Phones[0])
	}
}

func TestParseLineMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "spk-0 120 10"},
		{"non-numeric start", "spk-0 x 10 HELLO h"},
		{"negative start", "spk-0 -1 10 HELLO h"},
		{"non-numeric duration", "spk-0 120 10,x HELLO h eh"},
		{"label count below durations", "spk-0 120 10,15 HELLO h"},
		{"label count above durations", "spk-0 120 10 HELLO h eh"},
	}

	p := NewParser(100)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := p.ParseLine(tt.line)
			var malformed *MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Fatalf("ParseLine(%q): err = %v, want MalformedRecordError", tt.line, err)
			}
			if malformed.Line != tt.line {
				t.Errorf("error line = %q, want the offending line", malformed.Line)
			}
		})
	}
}

func TestStripPositionSuffix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  string
	}{
		{"h_B", "h"},
		{"eh_I", "eh"},
		{"l_E", "l"},
		{"SIL", "SIL"},
		{"t͡ʃ_S", "t͡ʃ"},
		{"_", "_"},       // leading underscore is not a separator
		{"_pad", "_pad"}, // ditto
		{"a_b_c", "a_b"}, // only the last tag is stripped
	}
	for _, tt := range tests {
		if got := stripPositionSuffix(tt.label); got != tt.want {
			t.Errorf("stripPositionSuffix(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestAccumulatorGroupsByUtterance(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(map[string]string{"u1": "spk", "u2": "spk"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	input := strings.Join([]string{
		"spk-0 0 5 <eps> SIL",
		"spk-0 5 10,12 HELLO h_B l_E",
		"",
		"spk-1 0 7 WORLD w_S",
	}, "\n")

	acc := NewAccumulator(NewParser(100), reg)
	if err := acc.ReadFrom(strings.NewReader(input)); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	utts := acc.Utterances()
	if len(utts) != 2 {
		t.Fatalf("got %d utterances, want 2", len(utts))
	}
	if utts[0].ID != "u1" || utts[1].ID != "u2" {
		t.Errorf("utterance order = [%q, %q], want first-seen [u1, u2]", utts[0].ID, utts[1].ID)
	}
	if len(utts[0].Words) != 2 {
		t.Fatalf("u1 has %d words, want 2", len(utts[0].Words))
	}
	if utts[0].Words[0].Word != EpsilonWord || utts[0].Words[1].Word != "HELLO" {
		t.Errorf("u1 words = [%q, %q], want [<eps>, HELLO]", utts[0].Words[0].Word, utts[0].Words[1].Word)
	}
}

func TestAccumulatorUnknownEngineID(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(map[string]string{"u1": "spk"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	acc := NewAccumulator(NewParser(100), reg)
	err = acc.Add("ghost-9 0 5 HELLO h")
	if !errors.Is(err, ErrUnknownID) {
		t.Fatalf("Add with unregistered engine id: err = %v, want ErrUnknownID", err)
	}
	if !strings.Contains(err.Error(), "ghost-9") {
		t.Errorf("error %q does not name the offending id", err)
	}
}
