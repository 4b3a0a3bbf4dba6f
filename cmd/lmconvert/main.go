package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ieee0824/ctcdecode-go/internal/logging"
	"github.com/ieee0824/ctcdecode-go/language"
)

func main() {
	input := flag.String("input", "", "ARPA or binary language model (default: stdin)")
	output := flag.String("output", "", "binary model file (default: stdout)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmconvert [-input model.arpa] [-output model.bin]")
		fmt.Fprintln(os.Stderr, "  Converts an ARPA n-gram language model to the binary form")
		fmt.Fprintln(os.Stderr, "  loaded by the decoder. Binary input is re-encoded.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()
	logging.Init(logging.DefaultConfig(), nil)
	log := logging.WithComponent("lmconvert")

	if err := convert(*input, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("input", *input).Str("output", *output).Msg("language model converted")
}

func convert(input, output string) error {
	var r io.Reader = os.Stdin
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open %s: %w", input, err)
		}
		defer f.Close()
		r = f
	}
	lm, err := language.Load(r)
	if err != nil {
		return fmt.Errorf("load language model: %w", err)
	}

	if output == "" {
		return lm.Save(os.Stdout)
	}
	w, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := lm.Save(w); err != nil {
		w.Close()
		os.Remove(output)
		return fmt.Errorf("write binary model: %w", err)
	}
	return w.Close()
}
