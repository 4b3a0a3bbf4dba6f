package main

import (
	"flag"
	"fmt"
	"os"

	ctcdecode "github.com/ieee0824/ctcdecode-go"
	"github.com/ieee0824/ctcdecode-go/internal/logging"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/trie"
)

func main() {
	dictPath := flag.String("dict", "", "dictionary word list, one word per line")
	lmPath := flag.String("lm", "", "language model (ARPA or binary)")
	labels := flag.String("labels", lexicon.DefaultLabels, "alphabet, one label per character")
	blank := flag.Int("blank", lexicon.DefaultBlankIndex, "blank label index")
	space := flag.Int("space", lexicon.DefaultSpaceIndex, "space label index")
	output := flag.String("output", "", "trie artifact to write")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if *dictPath == "" || *lmPath == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: gentrie -dict WORDS -lm LM -output TRIE [-labels LABELS -blank N -space N]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := logging.DefaultConfig()
	cfg.Level = *level
	logging.Init(cfg, nil)

	err := ctcdecode.GenerateLMTrie(*dictPath, *lmPath, *output, lexicon.SplitLabels(*labels), *blank, *space,
		trie.WithLogger(logging.WithComponent("gentrie")),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", *output)
}
