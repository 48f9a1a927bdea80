package worker

import "testing"

func TestResolveReconcileScope(t *testing.T) {
	cases := []struct {
		name  string
		scope string
		want  string
	}{
		{name: "empty falls back to all", scope: "", want: "all"},
		{name: "whitespace falls back to all", scope: "   ", want: "all"},
		{name: "lowercased", scope: "Gift_Card", want: "gift_card"},
		{name: "trimmed", scope: " loyalty ", want: "loyalty"},
		{name: "unknown passes through", scope: "bogus", want: "bogus"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveReconcileScope(tc.scope); got != tc.want {
				t.Fatalf("resolveReconcileScope(%q) = %q, want %q", tc.scope, got, tc.want)
			}
		})
	}
}
