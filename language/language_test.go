package language

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
)

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	the
-0.7	cat	-0.3

\2-grams:
-0.3	<s>	the
-0.4	the	cat
-0.2	cat	</s>

\end\
`

const testTrigramARPA = `\data\
ngram 1=5
ngram 2=3
ngram 3=1

\1-grams:
-1.0	</s>
-1.0	<s>	-0.1
-0.5	a	-0.2
-0.6	b	-0.2
-2.0	<unk>

\2-grams:
-0.3	<s>	a	-0.4
-0.4	a	b	-0.1
-0.2	b	</s>

\3-grams:
-0.05	<s>	a	b

\end\
`

func TestLoadARPA(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	if model.Order != 2 {
		t.Errorf("Order = %d, want 2", model.Order)
	}
	if len(model.Unigrams) != 4 {
		t.Errorf("len(Unigrams) = %d, want 4", len(model.Unigrams))
	}
	if len(model.Bigrams) != 3 {
		t.Errorf("len(Bigrams) = %d, want 3", len(model.Bigrams))
	}

	// log10 prob = -0.5 -> ln prob = -0.5 * ln(10)
	if e, ok := model.Unigrams["the"]; ok {
		want := -0.5 * math.Ln10
		if math.Abs(e.LogProb-want) > 1e-10 {
			t.Errorf("the unigram LogProb = %f, want %f", e.LogProb, want)
		}
	} else {
		t.Error("missing unigram for the")
	}
}

func TestLoadARPAErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no_header", "ngram 1=1\n"},
		{"no_counts", "\\data\\\n\n\\end\\\n"},
		{"order_too_high", "\\data\\\nngram 1=1\nngram 4=1\n\n\\1-grams:\n-1.0\ta\n\\end\\\n"},
		{"bad_prob", "\\data\\\nngram 1=1\n\n\\1-grams:\nx\ta\n\\end\\\n"},
		{"short_line", "\\data\\\nngram 1=1\nngram 2=1\n\n\\1-grams:\n-1.0\ta\n\n\\2-grams:\n-1.0\ta\n\\end\\\n"},
		{"empty_unigrams", "\\data\\\nngram 1=0\n\n\\1-grams:\n\n\\end\\\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadARPA(strings.NewReader(tt.input)); err == nil {
				t.Error("LoadARPA succeeded, want error")
			}
		})
	}
}

func TestLogProb_Bigram(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	lp := model.LogProb([]string{"<s>"}, "the")
	want := -0.3 * math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(<s>, the) = %f, want %f", lp, want)
	}
}

func TestLogProb_Backoff(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// P(the | cat) -- no bigram exists, should backoff
	lp := model.LogProb([]string{"cat"}, "the")
	want := -0.3*math.Ln10 + -0.5*math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(cat, the) = %f, want %f", lp, want)
	}
}

func TestLogProb_Trigram(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testTrigramARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if model.Order != 3 {
		t.Fatalf("Order = %d, want 3", model.Order)
	}

	lp := model.LogProb([]string{"<s>", "a"}, "b")
	if want := -0.05 * math.Ln10; math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(<s> a, b) = %f, want %f", lp, want)
	}

	// (a b) -> </s>: no trigram, back off through bigram (a b) to P(</s> | b).
	lp = model.LogProb([]string{"a", "b"}, "</s>")
	if want := -0.1*math.Ln10 + -0.2*math.Ln10; math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(a b, </s>) = %f, want %f", lp, want)
	}
}

func TestSentenceLogProb(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	lp := model.SentenceLogProb([]string{"the", "cat"})
	want := -0.3*math.Ln10 + -0.4*math.Ln10 + -0.2*math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("SentenceLogProb = %f, want %f", lp, want)
	}
}

func TestScoreAdvancesState(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testTrigramARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	s := model.BeginState()
	if h := s.History(); len(h) != 1 || h[0] != "<s>" {
		t.Fatalf("BeginState history = %v, want [<s>]", h)
	}
	_, s = model.Score(s, "a")
	lp, s := model.Score(s, "b")
	if want := -0.05 * math.Ln10; math.Abs(lp-want) > 1e-10 {
		t.Errorf("Score(b) = %f, want trigram %f", lp, want)
	}
	h := s.History()
	if len(h) != 2 || h[0] != "a" || h[1] != "b" {
		t.Errorf("history = %v, want [a b]", h)
	}
}

func TestUnknownLogProb(t *testing.T) {
	withUnk, err := LoadARPA(strings.NewReader(testTrigramARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if got, want := withUnk.UnknownLogProb(), -2.0*math.Ln10; math.Abs(got-want) > 1e-10 {
		t.Errorf("UnknownLogProb = %f, want %f", got, want)
	}

	plain, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if got := plain.UnknownLogProb(); got != mathutil.LogZero {
		t.Errorf("UnknownLogProb without <unk> = %f, want LogZero", got)
	}
	plain.OOVLogProb = -7
	if got := plain.LogProb(nil, "dog"); got != -7 {
		t.Errorf("LogProb(dog) = %f, want OOVLogProb -7", got)
	}
	if plain.Has("dog") || !plain.Has("cat") {
		t.Error("Has reports wrong vocabulary membership")
	}
}

func TestMinWordLogProb(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	// <s> and </s> score -1.0 but are not words.
	got, ok := model.MinWordLogProb()
	if want := -0.7 * math.Ln10; !ok || math.Abs(got-want) > 1e-10 {
		t.Errorf("MinWordLogProb = %f, %v, want %f, true", got, ok, want)
	}

	if _, ok := NewNGramModel(1).MinWordLogProb(); ok {
		t.Error("MinWordLogProb on empty model reported a word")
	}
}

func TestVocab(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	vocab := model.Vocab()
	if len(vocab) != 4 {
		t.Errorf("len(Vocab) = %d, want 4", len(vocab))
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testTrigramARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	var buf bytes.Buffer
	if err := model.Save(&buf); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	first := append([]byte(nil), buf.Bytes()...)

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Order != model.Order {
		t.Errorf("Order = %d, want %d", loaded.Order, model.Order)
	}
	sentence := []string{"a", "b", "a"}
	if got, want := loaded.SentenceLogProb(sentence), model.SentenceLogProb(sentence); got != want {
		t.Errorf("SentenceLogProb after round trip = %f, want %f", got, want)
	}

	var again bytes.Buffer
	if err := loaded.Save(&again); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !bytes.Equal(first, again.Bytes()) {
		t.Error("Save output is not deterministic")
	}
}

func TestLoadSniffsARPA(t *testing.T) {
	model, err := Load(strings.NewReader("\n\n" + testARPA))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(model.Unigrams) != 4 {
		t.Errorf("len(Unigrams) = %d, want 4", len(model.Unigrams))
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(strings.NewReader("definitely not a model")); err == nil {
		t.Error("Load succeeded on garbage input")
	}
}
