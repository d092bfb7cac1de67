package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"newsgraph/backend/internal/postag"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	dataPath := flag.String("data", "training/data/poss_sentence.csv", "Training CSV, one sentence per row")
	outPath := flag.String("out", "", "Model output path (defaults to POS_MODEL_PATH)")
	version := flag.String("version", postag.DefaultVersion, "Version string stored in the model")
	flag.Parse()

	if err := logger.Init("development", ""); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	if *outPath == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("Failed to load configuration", zap.Error(err))
		}
		*outPath = cfg.POSModelPath
	}

	log.Info("Starting POS model training",
		zap.String("data", *dataPath),
		zap.String("out", *outPath),
	)

	f, err := os.Open(*dataPath)
	if err != nil {
		log.Fatal("Training data not found", zap.String("path", *dataPath), zap.Error(err))
	}
	defer f.Close()

	sentences, skipped, err := postag.ReadCorpus(f, log)
	if err != nil {
		log.Fatal("Failed to read training data", zap.Error(err))
	}
	if len(sentences) == 0 {
		log.Fatal("No sentences loaded, cannot train model")
	}
	log.Info("Training data loaded",
		zap.Int("sentences", len(sentences)),
		zap.Int("skipped_cells", skipped),
	)

	model, err := postag.Train(sentences, *version)
	if err != nil {
		log.Fatal("Training failed", zap.Error(err))
	}

	if err := model.Save(*outPath); err != nil {
		log.Fatal("Failed to save model", zap.Error(err))
	}

	log.Info("POS model saved",
		zap.String("path", *outPath),
		zap.String("version", model.Version),
		zap.Int("tokens", model.Tokens),
		zap.Strings("tags", model.Tags()),
	)
}
