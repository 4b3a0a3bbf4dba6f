package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"

	ctcdecode "github.com/ieee0824/ctcdecode-go"
	"github.com/ieee0824/ctcdecode-go/decoder"
	"github.com/ieee0824/ctcdecode-go/internal/config"
	"github.com/ieee0824/ctcdecode-go/internal/logging"
	"github.com/ieee0824/ctcdecode-go/internal/metrics"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/scorer"
)

// input is one decode request file.
type input struct {
	Probs      [][][]float32 `json:"probs"` // [time][batch][class]
	SeqLen     []int         `json:"seq_len,omitempty"`
	References []string      `json:"references,omitempty"`
}

type output struct {
	File  string       `json:"file"`
	Items []itemOutput `json:"items"`
}

type itemOutput struct {
	Found     int          `json:"found"`
	Paths     []pathOutput `json:"paths"`
	Reference string       `json:"reference,omitempty"`
	LER       *float64     `json:"label_error_rate,omitempty"`
}

type pathOutput struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Length int     `json:"length"`
	Labels []int   `json:"labels"`
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage reports bad command-line usage that has already been printed.
var errUsage = errors.New("usage")

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ctcdecode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "YAML configuration file")
	lmPath := fs.String("lm", "", "language model (ARPA or binary), overrides config")
	triePath := fs.String("trie", "", "trie artifact from gentrie, overrides config")
	beam := fs.Int("beam", 0, "beam width, overrides config")
	topPaths := fs.Int("top-paths", 0, "paths per batch item, overrides config")
	lmWeight := fs.Float64("lm-weight", 1.0, "language model weight, overrides config")
	wordWeight := fs.Float64("word-weight", 0, "per-word bonus, overrides config")
	validWordWeight := fs.Float64("valid-word-weight", 0, "lexicon word bonus, overrides config")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ctcdecode [options] input.json...")
		fmt.Fprintln(stderr, "  Decodes CTC probability files and prints JSON results.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lm":
			cfg.Scorer.LMPath = *lmPath
		case "trie":
			cfg.Scorer.TriePath = *triePath
		case "beam":
			cfg.Decoder.BeamWidth = *beam
		case "top-paths":
			cfg.Decoder.TopPaths = *topPaths
		case "lm-weight":
			cfg.Scorer.LMWeight = *lmWeight
		case "word-weight":
			cfg.Scorer.WordWeight = *wordWeight
		case "valid-word-weight":
			cfg.Scorer.ValidWordWeight = *validWordWeight
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.Logging, stderr)
	log := logging.WithComponent("ctcdecode")
	log.Debug().Str("config", cfg.ToString()).Msg("configuration")

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	d, err := newDecoder(cfg, m)
	if err != nil {
		return err
	}

	enc := sonic.ConfigDefault.NewEncoder(stdout)
	for _, path := range fs.Args() {
		out, err := decodeFile(d, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		log.Info().Str("file", path).Int("items", len(out.Items)).Msg("decoded")
	}
	return nil
}

func newDecoder(cfg *config.Config, m *metrics.Metrics) (*decoder.Decoder, error) {
	labels := lexicon.SplitLabels(cfg.Labels)
	var sc scorer.Scorer = ctcdecode.NewScorer()
	if cfg.UseLM() {
		lm, err := ctcdecode.NewKenLMScorer(labels, cfg.Scorer.LMPath, cfg.Scorer.TriePath,
			cfg.Decoder.BlankIndex, cfg.Decoder.SpaceIndex,
			scorer.WithLogger(logging.WithComponent("scorer")),
			scorer.WithMetrics(m),
		)
		if err != nil {
			return nil, err
		}
		if err := cfg.Scorer.Apply(lm); err != nil {
			return nil, err
		}
		sc = lm
	}
	return decoder.New(labels, sc, cfg.Decoder,
		decoder.WithLogger(logging.WithComponent("decoder")),
		decoder.WithMetrics(m),
	)
}

func decodeFile(d *decoder.Decoder, path string) (*output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := decodeReader(d, f)
	if err != nil {
		return nil, err
	}
	out.File = path
	return out, nil
}

func decodeReader(d *decoder.Decoder, r io.Reader) (*output, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var in input
	if err := sonic.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	probs, err := decoder.TensorFromSlices(in.Probs)
	if err != nil {
		return nil, err
	}
	if len(in.References) > 0 && len(in.References) != probs.Batch {
		return nil, fmt.Errorf("%d references for batch of %d", len(in.References), probs.Batch)
	}

	res, err := d.Decode(probs, in.SeqLen)
	if err != nil {
		return nil, err
	}
	return buildOutput(d, res, in.References), nil
}

func buildOutput(d *decoder.Decoder, res *decoder.Result, refs []string) *output {
	out := &output{Items: make([]itemOutput, len(res.Found))}
	for b, found := range res.Found {
		item := itemOutput{Found: found, Paths: make([]pathOutput, found)}
		for k := range found {
			labels := append([]int(nil), res.Path(k, b)...)
			item.Paths[k] = pathOutput{
				Text:   d.Text(labels),
				Score:  res.Scores[k][b],
				Length: res.Lengths[k][b],
				Labels: labels,
			}
		}
		if b < len(refs) {
			item.Reference = refs[b]
			if ler, ok := labelErrorRate(d.Alphabet(), item.Paths, refs[b]); ok {
				item.LER = &ler
			}
		}
		out.Items[b] = item
	}
	return out
}

// labelErrorRate compares the best path with ref. It is undefined when there
// is no path or ref has characters outside the alphabet.
func labelErrorRate(alpha *lexicon.Alphabet, paths []pathOutput, ref string) (float64, bool) {
	if len(paths) == 0 {
		return 0, false
	}
	want, err := alpha.Encode(ref)
	if err != nil {
		return 0, false
	}
	return lexicon.ErrorRate(paths[0].Labels, want), true
}
