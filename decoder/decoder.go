// Package decoder implements CTC prefix beam search over per-timestep class
// probabilities, optionally rescored by a language model scorer.
package decoder

import (
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ieee0824/ctcdecode-go/internal/metrics"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/scorer"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger for per-call debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// WithMetrics records decode calls on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) { d.metrics = m }
}

// Decoder decodes batches of CTC output. It is safe for concurrent use; the
// scorer is pinned per Decode call.
type Decoder struct {
	cfg     Config
	alpha   *lexicon.Alphabet
	sc      scorer.Scorer
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New validates cfg against labels and sc and returns a decoder.
func New(labels []string, sc scorer.Scorer, cfg Config, opts ...Option) (*Decoder, error) {
	if err := cfg.validate(len(labels)); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("%w: nil scorer", ErrConfig)
	}
	alpha, err := lexicon.NewAlphabet(labels, cfg.BlankIndex, cfg.SpaceIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := scorer.Compatible(sc, alpha); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	d := &Decoder{cfg: cfg, alpha: alpha, sc: sc, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the effective configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Alphabet returns the decoder alphabet.
func (d *Decoder) Alphabet() *lexicon.Alphabet { return d.alpha }

// Text maps decoded labels back to a string.
func (d *Decoder) Text(labels []int) string { return d.alpha.Decode(labels) }

// Decode runs beam search over every batch item of probs. seqLens gives the
// number of valid timesteps per item; nil means every item uses MaxTime.
// Input is validated before any decoding work starts.
func (d *Decoder) Decode(probs *Tensor, seqLens []int) (*Result, error) {
	began := time.Now()
	log := d.log.With().Str("request_id", uuid.NewString()).Logger()
	seqLens, err := d.check(probs, seqLens)
	if err != nil {
		d.metrics.RecordDecodeError("shape")
		log.Debug().Err(err).Msg("input rejected")
		return nil, err
	}
	log.Debug().
		Int("batch", probs.Batch).
		Int("max_time", probs.MaxTime).
		Int("workers", d.cfg.Workers).
		Msg("decode started")

	snap := d.sc.Acquire()
	defer snap.Release()

	res := newResult(d.cfg.TopPaths, probs.Batch, probs.MaxTime, d.cfg.BlankIndex)
	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for b := range probs.Batch {
		g.Go(func() error {
			found := d.decodeItem(snap, probs, b, seqLens[b], res)
			log.Debug().Int("item", b).Int("seq_len", seqLens[b]).Int("found", found).Msg("item decoded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	steps := 0
	for _, n := range seqLens {
		steps += n
	}
	elapsed := time.Since(began)
	shortfall := res.Shortfall()
	d.metrics.RecordDecode(probs.Batch, steps, shortfall, elapsed.Seconds())
	log.Debug().
		Int("timesteps", steps).
		Int("shortfall", shortfall).
		Dur("elapsed", elapsed).
		Msg("decoded")
	return res, nil
}

func (d *Decoder) check(probs *Tensor, seqLens []int) ([]int, error) {
	if err := probs.validate(); err != nil {
		return nil, err
	}
	if probs.Classes != d.alpha.Size() {
		return nil, fmt.Errorf("%w: tensor has %d classes, alphabet has %d", ErrShape, probs.Classes, d.alpha.Size())
	}
	if seqLens == nil {
		seqLens = make([]int, probs.Batch)
		for i := range seqLens {
			seqLens[i] = probs.MaxTime
		}
		return seqLens, nil
	}
	if len(seqLens) != probs.Batch {
		return nil, fmt.Errorf("%w: %d sequence lengths for batch of %d", ErrShape, len(seqLens), probs.Batch)
	}
	for i, n := range seqLens {
		if n < 0 || n > probs.MaxTime {
			return nil, fmt.Errorf("%w: sequence length %d of item %d outside [0, %d]", ErrShape, n, i, probs.MaxTime)
		}
	}
	return seqLens, nil
}

// decodeItem searches batch item b, writes its paths into res and returns
// how many it found. Each call touches only its own column of res.
func (d *Decoder) decodeItem(snap scorer.Snapshot, probs *Tensor, b, seqLen int, res *Result) int {
	bm := newBeam(snap, d.cfg, probs.Classes)
	for t := range seqLen {
		bm.step(probs.Row(t, b))
	}

	paths := bm.finish()
	found := min(len(paths), d.cfg.TopPaths)
	for k := range found {
		res.Lengths[k][b] = bm.labels(paths[k].node, res.Labels[k][b])
		res.Scores[k][b] = paths[k].score
	}
	res.Found[b] = found
	return found
}
