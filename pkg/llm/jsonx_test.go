package llm

import "testing"

func TestRecoverJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced json block", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around the object", `Sure! Here you go: {"a":1} hope that helps`, `{"a":1}`, true},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"empty", "", "", false},
		{"no object at all", "I could not find any events.", "", false},
		{"only a closing brace", "}", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := recoverJSON(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
