package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/routing"
)

func TestRequestFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   requestFlags
		check   func(t *testing.T, req gateway.Request)
		wantErr bool
	}{
		{
			name:  "plain",
			flags: requestFlags{feature: "summaries", maxTokens: 200, timeout: 5 * time.Second},
			check: func(t *testing.T, req gateway.Request) {
				if req.Feature != "summaries" || req.MaxTokens != 200 || req.Timeout != 5*time.Second {
					t.Errorf("request = %+v", req)
				}
				if req.Tier != nil || req.CacheEnabled != nil || req.CompressionEnabled != nil {
					t.Errorf("unset flags should leave pointers nil: %+v", req)
				}
			},
		},
		{
			name:  "tier is case-insensitive",
			flags: requestFlags{tier: "critical"},
			check: func(t *testing.T, req gateway.Request) {
				if req.Tier == nil || *req.Tier != routing.Critical {
					t.Errorf("Tier = %v, want CRITICAL", req.Tier)
				}
			},
		},
		{
			name:  "opt-outs",
			flags: requestFlags{noCache: true, noCompress: true, format: "JSON"},
			check: func(t *testing.T, req gateway.Request) {
				if req.CacheEnabled == nil || *req.CacheEnabled {
					t.Error("--no-cache should set CacheEnabled to false")
				}
				if req.CompressionEnabled == nil || *req.CompressionEnabled {
					t.Error("--no-compress should set CompressionEnabled to false")
				}
				if req.OutputFormat != gateway.FormatJSON {
					t.Errorf("OutputFormat = %q", req.OutputFormat)
				}
			},
		},
		{
			name:  "temperature unset",
			flags: requestFlags{temperature: 0.7},
			check: func(t *testing.T, req gateway.Request) {
				if req.Temperature != nil {
					t.Errorf("Temperature = %v, want nil without --temperature", *req.Temperature)
				}
			},
		},
		{
			name:  "explicit zero temperature",
			flags: requestFlags{temperatureSet: true},
			check: func(t *testing.T, req gateway.Request) {
				if req.Temperature == nil || *req.Temperature != 0 {
					t.Errorf("Temperature = %v, want pointer to 0", req.Temperature)
				}
			},
		},
		{name: "unknown tier", flags: requestFlags{tier: "EXTREME"}, wantErr: true},
		{name: "unknown format", flags: requestFlags{format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.flags.request("hello")
			if (err != nil) != tt.wantErr {
				t.Fatalf("request() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if req.Prompt != "hello" {
				t.Errorf("Prompt = %q", req.Prompt)
			}
			tt.check(t, req)
		})
	}
}

func TestPromptFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "joined", args: []string{"what", "is", "Go?"}, want: "what is Go?"},
		{name: "stdin", args: []string{"-"}, stdin: "  from stdin\n", want: "from stdin"},
		{name: "empty", args: nil, wantErr: true},
		{name: "blank stdin", args: []string{"-"}, stdin: "\n\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := promptFromArgs(tt.args, strings.NewReader(tt.stdin))
			if (err != nil) != tt.wantErr {
				t.Fatalf("promptFromArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("promptFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadPrompts(t *testing.T) {
	got, err := readPrompts(strings.NewReader("first\n\n  second  \n\nthird"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1] != "second" {
		t.Errorf("readPrompts() = %q", got)
	}

	if _, err := readPrompts(strings.NewReader("\n  \n")); err == nil {
		t.Error("readPrompts() of blank input should fail")
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 0, "line one line two"},
		{"abcdefghij", 5, "abcd…"},
		{"héllo wörld", 7, "héllo …"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.width); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	got := summary(gateway.Response{
		Provider: "openai", Model: "gpt-4o-mini", Tier: "SIMPLE",
		TokensIn: 12, TokensOut: 30, CostUSD: 0.0000198, LatencyMS: 420,
		Cached: true, Retries: 1, RequestID: "req-1",
	})
	want := "provider=openai model=gpt-4o-mini tier=SIMPLE tokens=12/30 cost=$0.000020 latency=420ms cached retries=1 request_id=req-1"
	if got != want {
		t.Errorf("summary() =\n%s\nwant\n%s", got, want)
	}
}

func TestPrintResponses(t *testing.T) {
	ok := gateway.Response{Text: "Paris", Provider: "gemini", Tier: "SIMPLE"}
	failed := gateway.Response{Error: "all providers failed", ErrorKind: "transient"}

	t.Run("single text", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := printResponses(&out, &errOut, cli.FormatText, []gateway.Response{ok}, true); err != nil {
			t.Fatal(err)
		}
		if out.String() != "Paris\n" {
			t.Errorf("stdout = %q", out.String())
		}
		if !strings.HasPrefix(errOut.String(), "provider=gemini") {
			t.Errorf("stderr = %q", errOut.String())
		}
	})

	t.Run("single failure prints no text", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := printResponses(&out, &errOut, cli.FormatText, []gateway.Response{failed}, true); err != nil {
			t.Fatal(err)
		}
		if out.Len() != 0 {
			t.Errorf("stdout = %q", out.String())
		}
	})

	t.Run("batch csv", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := printResponses(&out, &errOut, cli.FormatCSV, []gateway.Response{ok, failed}, false); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("csv = %q", out.String())
		}
		if !strings.HasPrefix(lines[0], "#,provider,model,tier") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[2], "all providers failed") {
			t.Errorf("row 2 = %q", lines[2])
		}
	})
}

func TestFailures(t *testing.T) {
	if err := failures([]gateway.Response{{Text: "ok"}}); err != nil {
		t.Errorf("failures() = %v, want nil", err)
	}

	err := failures([]gateway.Response{{Error: "boom", ErrorKind: "timeout"}})
	if err == nil || err.Error() != "timeout: boom" {
		t.Errorf("failures() = %v", err)
	}

	err = failures([]gateway.Response{{Text: "ok"}, {Error: "boom", ErrorKind: "timeout"}})
	if err == nil || !strings.Contains(err.Error(), "request 2") {
		t.Errorf("failures() = %v", err)
	}
}
