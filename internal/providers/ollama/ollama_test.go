package ollama

import (
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestSetup_DefaultsAndMapping(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")
	o := OLLAMA_DEFAULT
	o.Model = "deepseek-r1:1.5b"
	if err := o.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	testboil.FailTestIfDiff(t, o.StreamCompleter.URL, ChatURL)
	testboil.FailTestIfDiff(t, o.StreamCompleter.Model, "deepseek-r1:1.5b")
	if o.StreamCompleter.Temperature == nil || *o.StreamCompleter.Temperature != o.Temperature {
		t.Fatalf("Temperature mapping mismatch: got %+v want %v", o.StreamCompleter.Temperature, o.Temperature)
	}
}

func TestSetup_HostOverride(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "k")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	o := OLLAMA_DEFAULT
	if err := o.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	testboil.FailTestIfDiff(t, o.StreamCompleter.URL, "http://gpu-box:11434/v1/chat/completions")
}

func TestSetup_HostWithoutScheme(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "k")
	for _, host := range []string{"127.0.0.1:11434", "127.0.0.1:11434/"} {
		t.Run(host, func(t *testing.T) {
			t.Setenv("OLLAMA_HOST", host)
			o := OLLAMA_DEFAULT
			if err := o.Setup(); err != nil {
				t.Fatalf("Setup() error: %v", err)
			}
			testboil.FailTestIfDiff(t, o.StreamCompleter.URL, "http://127.0.0.1:11434/v1/chat/completions")
		})
	}
}
