package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voicescribe/internal/history"
	"voicescribe/internal/language"
	"voicescribe/internal/logging"
	"voicescribe/internal/services"
	"voicescribe/internal/transcription"
)

const transcribeUsage = "usage: voicescribe transcribe <audio_file> [model]"

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var modelFlag string
	var languageFlag string
	var timeoutFlag time.Duration

	cmd := &cobra.Command{
		Use:   "transcribe <audio_file> [model]",
		Short: "Transcribe one audio file and print the result as JSON",
		Long: `Transcribe one audio file and print a single JSON object on stdout:

  {"text": "...", "lang": "zh", "seconds": 5.2}
  {"error": "...", "text": null, "lang": null, "seconds": null}

The command exits 0 when the result carries text and 1 otherwise.`,
		// Config errors are reported through the result object.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return emitResult(cmd, transcription.Failed(services.KindInputNotFound, transcribeUsage, nil), false)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				reason := fmt.Sprintf("%s: %v", services.ErrConfiguration, err)
				return emitResult(cmd, transcription.Failed(services.KindEngineExecutionFailed, reason, nil), false)
			}

			model := strings.TrimSpace(modelFlag)
			if len(args) == 2 {
				model = strings.TrimSpace(args[1])
			}
			lang := strings.TrimSpace(languageFlag)
			if lang != "" {
				canonical := language.Canonical(lang)
				if canonical == "" {
					reason := fmt.Sprintf("%s: unknown language %q", services.ErrValidation, lang)
					return emitResult(cmd, transcription.Failed(services.KindEngineExecutionFailed, reason, nil), false)
				}
				lang = canonical
			}

			tr := ctx.newTranscriber(cfg)
			result := tr.Transcribe(cmd.Context(), transcription.Request{
				AudioPath: args[0],
				Model:     model,
				Language:  lang,
				Timeout:   timeoutFlag,
			})
			recordHistory(cmd, ctx, result, args[0])
			return emitResult(cmd, result, cfg.Transcription.FailOnEmptyText)
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Engine model (overrides config and WHISPER_MODEL)")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language hint (overrides config)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Engine timeout (overrides config)")
	return cmd
}

// emitResult prints the result object and converts the outcome into the
// process exit status.
func emitResult(cmd *cobra.Command, result transcription.Result, failOnEmpty bool) error {
	if err := writeJSON(cmd, result); err != nil {
		return err
	}
	if code := transcription.ExitCode(result, failOnEmpty); code != 0 {
		return exitError{code: code}
	}
	return nil
}

func recordHistory(cmd *cobra.Command, ctx *commandContext, result transcription.Result, audioPath string) {
	cfg, _ := ctx.ensureConfig()
	store, err := ctx.openHistory(cfg)
	if store == nil && err == nil {
		return
	}
	logger := ctx.ensureLogger()
	if err != nil {
		logger.Warn("history unavailable", logging.Error(err))
		return
	}
	defer store.Close()
	if _, err := store.Record(cmd.Context(), history.FromResult(result, absPath(audioPath), history.SourceCLI)); err != nil {
		logger.Warn("failed to record history", logging.Error(err))
	}
}
