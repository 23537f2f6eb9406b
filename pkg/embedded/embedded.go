package embedded

import (
	_ "embed"
)

// Default model data, used when VOCAB_PATH / CORPUS_PATH are not set
//
//go:embed data/mapping.json
var MappingJSON []byte

// Songs in the time-series encoding, one per line, each terminated by "/"
//
//go:embed data/corpus.txt
var CorpusTxt []byte
