package services

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/oracle"
	"github.com/Conceptual-Machines/melody-api/internal/vocab"
	"github.com/Conceptual-Machines/melody-api/pkg/embedded"
)

// LoadVocabulary reads cfg.VocabPath, or the embedded mapping when unset
func LoadVocabulary(cfg *config.Config) (*vocab.Vocabulary, error) {
	if cfg.VocabPath == "" {
		return vocab.Load(bytes.NewReader(embedded.MappingJSON))
	}
	return vocab.LoadFile(cfg.VocabPath)
}

// BuildOracle returns the oracle selected by cfg.Oracle
func BuildOracle(cfg *config.Config, v *vocab.Vocabulary) (melody.Oracle, error) {
	switch cfg.Oracle {
	case config.OracleRemote:
		logger.Info("Using remote oracle", logger.Fields{
			"url":   cfg.OracleURL,
			"model": cfg.OracleModel,
		})
		return oracle.NewRemote(cfg.OracleURL, cfg.OracleModel, v.Size(), cfg.OracleTimeout), nil

	case config.OracleMarkov:
		songs, err := loadCorpus(cfg.CorpusPath)
		if err != nil {
			return nil, err
		}
		m, err := oracle.TrainMarkov(v, songs, cfg.MarkovOrder, cfg.MarkovAlpha)
		if err != nil {
			return nil, fmt.Errorf("failed to train markov oracle: %w", err)
		}
		logger.Info("Trained markov oracle", logger.Fields{
			"order": cfg.MarkovOrder,
			"songs": len(songs),
		})
		return m, nil

	default:
		return nil, fmt.Errorf("unknown oracle %q", cfg.Oracle)
	}
}

func loadCorpus(path string) ([][]string, error) {
	var r io.Reader = bytes.NewReader(embedded.CorpusTxt)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus: %w", err)
		}
		defer f.Close()
		r = f
	}
	return oracle.ParseCorpus(r)
}
