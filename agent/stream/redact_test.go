package stream

import "testing"

func TestRedactBeforeStream(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "absolute path",
			in:   "I read /home/user/notes.txt just now",
			want: "I read [redacted] just now",
		},
		{
			name: "home relative path",
			in:   "saved under ~/projects/demo/main.go earlier",
			want: "saved under [redacted] earlier",
		},
		{
			name: "payload fragment",
			in:   `the tool returned {"expression": "2+2", "result": 4} as output`,
			want: "the tool returned [redacted] as output",
		},
		{
			name: "nested payload collapses",
			in:   `raw: {"data": {"temp_c": 21}} end`,
			want: "raw: [redacted] end",
		},
		{
			name: "url path survives",
			in:   "see https://api.example.com/v1/games for details",
			want: "see https://api.example.com/v1/games for details",
		},
		{
			name: "plain text untouched",
			in:   "The Warriors won four of their last five games.",
			want: "The Warriors won four of their last five games.",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := RedactBeforeStream(tc.in)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if again := RedactBeforeStream(got); again != got {
				t.Fatalf("redaction not idempotent: %q then %q", got, again)
			}
		})
	}
}
