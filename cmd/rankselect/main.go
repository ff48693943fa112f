// Command rankselect estimates the intrinsic rank of windows of a wide-field
// imaging movie with PPCA cross-validation, the singular value hard
// threshold, AIC and BIC.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(ctx).Execute(); err != nil {
		log.Error().Err(err).Msg("rankselect failed")
		os.Exit(1)
	}
}
