// main package for the voice-client CLI
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/voiceutils"
)

// Flag names.
const (
	flagServer     = "server"
	flagHealth     = "health"
	flagPreprocess = "preprocess"
	flagText       = "text"
	flagSpeaker    = "speaker"
	flagLanguage   = "language"
	flagOutput     = "output"
)

// Flag descriptions.
const (
	flagServerDesc     = "Base URL of the voice service"
	flagHealthDesc     = "Check voice service health and exit"
	flagPreprocessDesc = "Comma-separated list of audio URLs to preprocess"
	flagTextDesc       = "Text to synthesize with the cloned voice"
	flagSpeakerDesc    = "URL of the speaker reference audio"
	flagLanguageDesc   = "Language code for synthesis"
	flagOutputDesc     = "Path to save the generated audio to (optional)"
)

// API paths.
const (
	pathHealth     = "/health"
	pathPreprocess = "/voice/preprocess"
	pathGenerate   = "/voice/generate"
)

const (
	defaultServer   = "http://localhost:8000"
	defaultLanguage = "en"
	requestTimeout  = 5 * time.Minute
	contentTypeJSON = "application/json"
)

// ErrUsage indicates the flag combination was invalid.
var ErrUsage = errors.New("either --health, --preprocess, or --text must be provided")

type preprocessRequest struct {
	AudioURLs []string `json:"audio_urls"`
}

type generateResponse struct {
	AudioURL string `json:"audio_url"`
}

type options struct {
	server     string
	health     bool
	preprocess string
	textInput  string
	speaker    string
	language   string
	output     string
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.server, flagServer, defaultServer, flagServerDesc)
	flag.BoolVar(&opts.health, flagHealth, false, flagHealthDesc)
	flag.StringVar(&opts.preprocess, flagPreprocess, "", flagPreprocessDesc)
	flag.StringVar(&opts.textInput, flagText, "", flagTextDesc)
	flag.StringVar(&opts.speaker, flagSpeaker, "", flagSpeakerDesc)
	flag.StringVar(&opts.language, flagLanguage, defaultLanguage, flagLanguageDesc)
	flag.StringVar(&opts.output, flagOutput, "", flagOutputDesc)
	flag.Parse()

	return opts
}

func run() error {
	opts := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	client := &http.Client{Timeout: requestTimeout}

	switch {
	case opts.health:
		return checkHealth(ctx, client, opts.server)
	case opts.preprocess != "":
		return runPreprocess(ctx, client, opts)
	case opts.textInput != "":
		return runGenerate(ctx, client, opts)
	default:
		return ErrUsage
	}
}

func checkHealth(ctx context.Context, client *http.Client, server string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+pathHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("voice service is not healthy: %s", resp.Status)
	}

	fmt.Println("Voice service is healthy")

	return nil
}

func runPreprocess(ctx context.Context, client *http.Client, opts options) error {
	urls := strings.Split(opts.preprocess, ",")
	for i := range urls {
		urls[i] = strings.TrimSpace(urls[i])
	}

	var result core.PreprocessResult

	err := postJSON(ctx, client, opts.server+pathPreprocess, preprocessRequest{AudioURLs: urls}, &result)
	if err != nil {
		return err
	}

	fmt.Printf("Artifact: %s\n", result.ProcessedAudioURL)
	fmt.Printf("Duration: %s\n", voiceutils.FormatDuration(result.Duration))
	fmt.Printf("Quality:  %s (score %d)\n",
		result.QualityReport.OverallQuality, result.QualityReport.QualityScore)

	for _, message := range result.QualityReport.Messages {
		fmt.Printf("  %s\n", message)
	}

	return nil
}

func runGenerate(ctx context.Context, client *http.Client, opts options) error {
	request := core.GenerateRequest{
		SpeakerWavURL: opts.speaker,
		Text:          opts.textInput,
		Language:      opts.language,
	}

	var result generateResponse

	err := postJSON(ctx, client, opts.server+pathGenerate, request, &result)
	if err != nil {
		return err
	}

	fmt.Printf("Generated audio: %s\n", result.AudioURL)

	if opts.output == "" {
		return nil
	}

	return saveAudio(ctx, client, result.AudioURL, opts.output)
}

// saveAudio downloads the generated audio to a local file.
func saveAudio(ctx context.Context, client *http.Client, audioURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download generated audio: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audio download returned %s", resp.Status)
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}

	_, copyErr := io.Copy(outputFile, resp.Body)
	closeErr := outputFile.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, closeErr)
	}

	fmt.Printf("Saved to %s\n", outputPath)

	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("service returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	err = json.NewDecoder(resp.Body).Decode(result)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "voice-client: %v\n", err)
		os.Exit(1)
	}
}
