package providers

import "testing"

func TestApplyRules(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		provider string
		rules    []Rule
		want     string
	}{
		{
			name:     "no rules",
			text:     "hello world",
			provider: "mock",
			want:     "hello world",
		},
		{
			name:     "global rule applies to any provider",
			text:     "the TTS pipeline",
			provider: "openai",
			rules:    []Rule{{Match: "TTS", Replace: "text to speech"}},
			want:     "the text to speech pipeline",
		},
		{
			name:     "scoped rule applies to its provider",
			text:     "read K8s docs",
			provider: "google",
			rules:    []Rule{{Match: "K8s", Replace: "kubernetes", Provider: "google"}},
			want:     "read kubernetes docs",
		},
		{
			name:     "scoped rule skipped for other providers",
			text:     "read K8s docs",
			provider: "openai",
			rules:    []Rule{{Match: "K8s", Replace: "kubernetes", Provider: "google"}},
			want:     "read K8s docs",
		},
		{
			name:     "rules apply in order",
			text:     "a b",
			provider: "mock",
			rules: []Rule{
				{Match: "a", Replace: "b"},
				{Match: "b", Replace: "c"},
			},
			want: "c c",
		},
		{
			name:     "empty match skipped",
			text:     "unchanged",
			provider: "mock",
			rules:    []Rule{{Match: "", Replace: "x"}},
			want:     "unchanged",
		},
		{
			name:     "all occurrences replaced",
			text:     "API here, API there",
			provider: "mock",
			rules:    []Rule{{Match: "API", Replace: "A P I"}},
			want:     "A P I here, A P I there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyRules(tt.text, tt.provider, tt.rules); got != tt.want {
				t.Errorf("ApplyRules = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleAppliesTo(t *testing.T) {
	global := Rule{Match: "x", Replace: "y"}
	if !global.AppliesTo("anything") {
		t.Error("global rule should apply to every provider")
	}

	scoped := Rule{Match: "x", Replace: "y", Provider: "openai"}
	if !scoped.AppliesTo("openai") {
		t.Error("scoped rule should apply to its own provider")
	}
	if scoped.AppliesTo("google") {
		t.Error("scoped rule should not apply to other providers")
	}
}
