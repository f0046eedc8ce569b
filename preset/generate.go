package preset

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cwbudde/algo-synth/synth"
)

// Instructions is the system text handed to a generator alongside the
// user's prompt.
const Instructions = `You are a synthesizer preset generator.

Return ONLY valid JSON.

Preset format:
{
  "name": string,
  "params": {
    "gain": number (-24..24),
    "cutoffLow": number (20..20000),
    "cutoffHigh": number (20..20000),
    "wave": number (0=sine, 1=square, 2=triangle, 3=saw),
    "attack": number (0..5000),
    "decay": number (0..5000),
    "sustain": number (0..1),
    "release": number (0..5000),
    "tremoloOn": number (0 or 1),
    "tremoloWave": number (0=sine, 1=square, 2=triangle, 3=saw),
    "tremoloFreq": number (0.1..20),
    "tremoloDepth": number (0..1)
  }
}

Rules:
- Always include ALL parameters
- Avoid extreme values unless explicitly requested
- Values must be realistic for music
- Always set the gain to 0
`

// ErrInvalidModelJSON is the Result.Error text for unparseable output.
const ErrInvalidModelJSON = "Model returned invalid JSON"

// Generator turns a text prompt into preset JSON text. Implementations call
// a remote service and may block; they must honour ctx.
type Generator interface {
	Generate(ctx context.Context, instructions, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, instructions, prompt string) (string, error)

// Generate calls fn.
func (fn GeneratorFunc) Generate(ctx context.Context, instructions, prompt string) (string, error) {
	return fn(ctx, instructions, prompt)
}

// Result is the outcome of one generation job.
type Result struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Preset *File  `json:"data,omitempty"`
}

// Apply writes the generated preset onto dst. A failed result changes
// nothing.
func (r Result) Apply(dst *synth.Params) ApplyReport {
	if !r.OK || r.Preset == nil {
		return ApplyReport{}
	}
	return r.Preset.Apply(dst)
}

// Run calls gen and parses its output. It never returns an error: service
// and parse failures come back as a Result with OK false.
func Run(ctx context.Context, gen Generator, prompt string) Result {
	if gen == nil {
		return Result{Error: "no generator configured"}
	}
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error()}
	}
	text, err := gen.Generate(ctx, Instructions, prompt)
	if err != nil {
		return Result{Error: err.Error()}
	}

	body := stripCodeFence(text)
	var f File
	if err := json.Unmarshal([]byte(body), &f); err != nil || f.Params == nil {
		return Result{Error: ErrInvalidModelJSON, Raw: text}
	}
	return Result{OK: true, Preset: &f}
}

// RunAsync runs the job on its own goroutine and hands the result to done.
// done runs on that goroutine; UI hosts marshal it to their own thread.
func RunAsync(ctx context.Context, gen Generator, prompt string, done func(Result)) {
	go func() {
		r := Run(ctx, gen, prompt)
		if done != nil {
			done(r)
		}
	}()
}

// stripCodeFence removes a surrounding ``` or ```json fence that chat models
// like to add around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
