package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/momoledger/internal/config"
	"github.com/vanshika/momoledger/internal/generator"
	"github.com/vanshika/momoledger/internal/logging"
)

func main() {
	appCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	cfg := generator.DefaultConfig()
	var (
		messages     = flag.Int("messages", cfg.NumMessages, "number of <sms> elements to generate")
		contacts     = flag.Int("contacts", cfg.NumContacts, "number of distinct counterparts")
		brokenChance = flag.Float64("broken-chance", cfg.BrokenChance, "probability of writing an element with broken markup")
		undated      = flag.Float64("missing-date-chance", cfg.MissingDateChance, "probability of omitting the date attribute")
		masked       = flag.Float64("masked-sender-chance", cfg.MaskedSenderChance, "probability of masking a sender's number")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outPath      = flag.String("out", appCfg.Data.XMLPath, "where to write the XML corpus")
		writeStdout  = flag.Bool("stdout", false, "write the corpus to stdout instead of a file")
	)
	flag.Parse()

	logger := logging.Component(logging.New(appCfg.Logging), "datagen")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(generator.Config{
		NumMessages:        *messages,
		NumContacts:        *contacts,
		BrokenChance:       *brokenChance,
		MissingDateChance:  *undated,
		MaskedSenderChance: *masked,
		Start:              cfg.Start,
		Seed:               *seed,
	})
	msgs, err := gen.Generate(ctx)
	if err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.WriteXML(os.Stdout, msgs); err != nil {
			logger.Error("failed to write corpus to stdout", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteFile(*outPath, msgs); err != nil {
		logger.Error("failed to write corpus", "error", err)
		os.Exit(1)
	}

	broken := 0
	for _, msg := range msgs {
		if msg.Broken {
			broken++
		}
	}
	logger.Info("corpus generated", "out", *outPath, "messages", len(msgs), "broken", broken, "seed", *seed)
}
