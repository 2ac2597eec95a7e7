package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ulasan/internal/app"
	"ulasan/internal/config"
	"ulasan/internal/service"
)

var (
	trainFile        string
	trainCorrections bool
	verbose          bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trainer",
		Short:         "Offline fine-tuning and classification for the sentiment model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	train := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune from a CSV file or from stored corrections and publish the checkpoint",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}
	train.Flags().StringVar(&trainFile, "file", "", "CSV file with text,label columns")
	train.Flags().BoolVar(&trainCorrections, "corrections", false, "train from human corrections in the database")

	classify := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify a text with the active checkpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClassify,
	}

	aspects := &cobra.Command{
		Use:   "aspects [text]",
		Short: "Split a text into aspects and classify each segment",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAspects,
	}

	root.AddCommand(train, classify, aspects)
	return root
}

// trainingSource resuelve la fuente a partir de los flags; exactamente una es obligatoria.
func trainingSource(file string, corrections bool) (service.TrainingSource, error) {
	switch {
	case file != "" && corrections:
		return nil, errors.New("use either --file or --corrections, not both")
	case file != "":
		return service.FileSource{Path: file}, nil
	case corrections:
		return service.CorrectionSource{}, nil
	default:
		return nil, errors.New("one of --file or --corrections is required")
	}
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if verbose {
		logger = zap.NewExample()
	}
	return app.New(ctx, ctx, cfg, logger)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	src, err := trainingSource(trainFile, trainCorrections)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	examples, err := a.Loader.Load(ctx, src)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Training on %d examples from %s...\n", len(examples), src.Name())
	if err := a.Tuner.Run(ctx, examples); err != nil {
		return err
	}

	cp, _, _ := a.Models.ActiveCheckpoint()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nActive checkpoint: %s\n", a.Status.Snapshot().Message, cp)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	pred, err := a.Inference.Predict(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%.2f%%)\n", pred.Label, pred.Confidence*100)
	return nil
}

func runAspects(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.Segmenter.SegmentAndClassify(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No aspects found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %-8s %.2f  %q\n", r.Aspect, r.Prediction.Label, r.Prediction.Confidence, r.SegmentText)
	}
	return nil
}
