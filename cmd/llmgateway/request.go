package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/routing"
)

// requestFlags are the request fields shared by query and estimate.
type requestFlags struct {
	system      string
	feature     string
	tier        string
	format      string
	maxTokens   int
	temperature float64
	// temperatureSet is true when --temperature was given.
	temperatureSet bool
	timeout        time.Duration
	noCache        bool
	noCompress     bool
	output         string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.system, "system", "", "system prompt")
	flags.StringVar(&f.feature, "feature", "", "cost-tracking feature name (selects the cache TTL)")
	flags.StringVar(&f.tier, "tier", "", "force a complexity tier: SIMPLE, MEDIUM, COMPLEX, CRITICAL")
	flags.StringVar(&f.format, "format", "", "ask the provider for text or json")
	flags.IntVar(&f.maxTokens, "max-tokens", 0, "maximum output tokens (0 uses the provider default)")
	flags.Float64Var(&f.temperature, "temperature", 0, "sampling temperature")
	flags.DurationVar(&f.timeout, "timeout", 0, "per-attempt timeout (0 uses the configured default)")
	flags.BoolVar(&f.noCache, "no-cache", false, "bypass the response cache")
	flags.BoolVar(&f.noCompress, "no-compress", false, "never compress the prompt")
	flags.StringVarP(&f.output, "output", "o", "text", "output format: text, json, csv")
}

// request builds a gateway request for prompt from the flags.
func (f *requestFlags) request(prompt string) (gateway.Request, error) {
	req := gateway.Request{
		Prompt:       prompt,
		SystemPrompt: f.system,
		Feature:      f.feature,
		MaxTokens:    f.maxTokens,
		Timeout:      f.timeout,
	}

	if f.temperatureSet {
		t := f.temperature
		req.Temperature = &t
	}
	if f.tier != "" {
		tier, err := routing.ParseTier(f.tier)
		if err != nil {
			return gateway.Request{}, cli.NewConfigError("tier", err.Error())
		}
		req.Tier = &tier
	}

	switch strings.ToLower(f.format) {
	case "":
	case "text":
		req.OutputFormat = gateway.FormatText
	case "json":
		req.OutputFormat = gateway.FormatJSON
	default:
		return gateway.Request{}, cli.NewConfigError("format", fmt.Sprintf("unknown format %q (use text or json)", f.format))
	}

	if f.noCache {
		req.CacheEnabled = new(bool)
	}
	if f.noCompress {
		req.CompressionEnabled = new(bool)
	}
	return req, nil
}

// promptFromArgs joins args into one prompt. A single "-" reads stdin.
func promptFromArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		args = []string{string(data)}
	}
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}
	return prompt, nil
}

// readPrompts returns one prompt per non-blank line.
func readPrompts(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, errors.New("no prompts found")
	}
	return prompts, nil
}

// responseTable lays out responses for text and CSV output.
type responseTable struct {
	responses []gateway.Response
	// width truncates the text column. Zero keeps it whole.
	width int
}

func (t responseTable) Headers() []string {
	return []string{"#", "provider", "model", "tier", "cached", "tokens_in", "tokens_out", "cost_usd", "latency_ms", "error", "text"}
}

func (t responseTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.responses))
	for i, r := range t.responses {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Provider,
			r.Model,
			r.Tier,
			strconv.FormatBool(r.Cached),
			strconv.Itoa(r.TokensIn),
			strconv.Itoa(r.TokensOut),
			strconv.FormatFloat(r.CostUSD, 'f', 6, 64),
			strconv.FormatInt(r.LatencyMS, 10),
			r.Error,
			clip(r.Text, t.width),
		})
	}
	return rows
}

// clip flattens s to one line and cuts it to width runes.
func clip(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// summary is the one-line trailer printed after a text response.
func summary(r gateway.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider=%s model=%s tier=%s", r.Provider, r.Model, r.Tier)
	fmt.Fprintf(&b, " tokens=%d/%d cost=$%.6f latency=%dms", r.TokensIn, r.TokensOut, r.CostUSD, r.LatencyMS)
	if r.Cached {
		b.WriteString(" cached")
	}
	if r.Compressed {
		b.WriteString(" compressed")
	}
	if r.Retries > 0 {
		fmt.Fprintf(&b, " retries=%d", r.Retries)
	}
	if r.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", r.RequestID)
	}
	return b.String()
}
