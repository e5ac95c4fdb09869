package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/textutil"
	"github.com/winedarkmoon/elevengui/internal/transcribe"
)

var (
	historyVoice string
	sayVoice     string
	sayOut       string
	sayStability float64
	sayClarity   float64
	sttBackend   string

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the voices on your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(settings)
			if err != nil {
				return err
			}
			voices, err := client.ListVoices(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}
			writeVoices(cmd.OutOrStdout(), voices)
			return nil
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show previously generated clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(settings)
			if err != nil {
				return err
			}
			items, err := client.FetchHistory(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}
			loc, err := settings.Location()
			if err != nil {
				return err
			}
			md := historyMarkdown(elevenlabs.FilterHistory(items, historyVoice), loc)
			return renderMarkdown(cmd.OutOrStdout(), md)
		},
	}

	quotaCmd = &cobra.Command{
		Use:   "quota",
		Short: "Show character usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(settings)
			if err != nil {
				return err
			}
			q, err := client.FetchQuota(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.String())
			return nil
		},
	}

	sayCmd = &cobra.Command{
		Use:     "say TEXT",
		Short:   "Speak text with a voice",
		Example: paragraph("elevengui say \"Hello there\" --voice Rachel\nelevengui say \"Hello\" --voice Adam --out hello.mp3"),
		Args:    cobra.ExactArgs(1),
		RunE:    runSay,
	}

	transcribeCmd = &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Convert an audio file to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := newRegistry(settings, audio.NewDecoder())
			backend := sttBackend
			if backend == "" {
				backend = settings.TranscribeBackend
			}
			text, err := transcribe.NewDispatcher(registry).Transcribe(cmd.Context(), args[0], backend)
			if err != nil {
				return err //nolint:wrapcheck
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
)

func init() {
	historyCmd.Flags().StringVar(&historyVoice, "voice", "", "only show clips generated with this voice")

	sayCmd.Flags().StringVarP(&sayVoice, "voice", "v", "", "voice name")
	sayCmd.Flags().StringVarP(&sayOut, "out", "o", "", "write the audio to a file instead of playing it")
	sayCmd.Flags().Float64Var(&sayStability, "stability", 0.75, "voice stability, 0 to 1")
	sayCmd.Flags().Float64Var(&sayClarity, "clarity", 0.75, "clarity and similarity enhancement, 0 to 1")
	_ = sayCmd.MarkFlagRequired("voice")

	transcribeCmd.Flags().StringVarP(&sttBackend, "backend", "b", "", "api or local")
}

func runSay(cmd *cobra.Command, args []string) error {
	text := args[0]
	if !textutil.CanGenerate(text) {
		if text == "" {
			return elevenlabs.ErrEmptyText
		}
		return elevenlabs.ErrTextTooLong
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client, err := newClient(settings)
	if err != nil {
		return err
	}
	voices, err := client.ListVoices(ctx)
	if err != nil {
		return err //nolint:wrapcheck
	}
	voice, ok := elevenlabs.FindVoice(voices, sayVoice)
	if !ok {
		return fmt.Errorf("%w: %q", elevenlabs.ErrUnknownVoice, sayVoice)
	}

	data, err := client.Synthesize(ctx, text, voice.VoiceID, sayStability, sayClarity)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if sayOut != "" {
		if err := os.WriteFile(sayOut, data, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("unable to write audio: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote", sayOut)
		return nil
	}

	buf, err := audio.NewDecoder().Decode(ctx, data)
	if err != nil {
		return err //nolint:wrapcheck
	}
	player, err := newPlayer()
	if err != nil {
		return err
	}
	defer func() { _ = player.Close() }()
	return playAndWait(ctx, player, buf, 100*time.Millisecond)
}

// playAndWait plays buf and returns once playback has finished or ctx is
// done.
func playAndWait(ctx context.Context, player *audio.Player, buf *audio.Buffer, poll time.Duration) error {
	if err := player.Load(buf); err != nil {
		return err //nolint:wrapcheck
	}
	if err := player.Play(); err != nil {
		return err //nolint:wrapcheck
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = player.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err() //nolint:wrapcheck
		case <-ticker.C:
			if player.State() == audio.StateStopped {
				return nil
			}
		}
	}
}

const voiceNameWidth = 28

func writeVoices(w io.Writer, voices []elevenlabs.Voice) {
	for _, v := range voices {
		fmt.Fprintf(w, "%s %s\n", runewidth.FillRight(runewidth.Truncate(v.Name, voiceNameWidth, ellipsis), voiceNameWidth), v.VoiceID)
	}
}

const (
	ellipsis          = "…"
	historyTextWidth  = 60
	markdownWordWrap  = 100
	markdownMinMargin = 4
)

// historyMarkdown renders items as a markdown table.
func historyMarkdown(items []elevenlabs.HistoryItem, loc *time.Location) string {
	if len(items) == 0 {
		return "_No history._\n"
	}

	var b strings.Builder
	b.WriteString("| Date | Voice | Chars | Settings | Text |\n")
	b.WriteString("|------|-------|------:|----------|------|\n")
	for _, it := range items {
		text := strings.Join(strings.Fields(it.Text), " ")
		text = truncate.StringWithTail(text, historyTextWidth, ellipsis)
		text = strings.ReplaceAll(text, "|", `\|`)
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f / %.2f | %s |\n",
			textutil.UnixToDate(it.DateUnix, loc),
			strings.ReplaceAll(it.VoiceName, "|", `\|`),
			it.CharacterCount,
			it.Settings.Stability, it.Settings.SimilarityBoost,
			text,
		)
	}
	return b.String()
}

// renderMarkdown pretty prints md on terminals and writes it verbatim
// otherwise.
func renderMarkdown(w io.Writer, md string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := io.WriteString(w, md)
		return err //nolint:wrapcheck
	}

	wrap := markdownWordWrap
	if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw-markdownMinMargin < wrap {
		wrap = tw - markdownMinMargin
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err //nolint:wrapcheck
}
