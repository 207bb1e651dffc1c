package htmltext

import "testing"

func TestPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text passes through",
			in:   "Eliud Kipchoge on pacing",
			want: "Eliud Kipchoge on pacing",
		},
		{
			name: "tags stripped",
			in:   "<p>Interview with <strong>Eliud Kipchoge</strong></p>",
			want: "Interview with Eliud Kipchoge",
		},
		{
			name: "block boundaries become spaces",
			in:   "<p>Eliud Kipchoge</p><p>Sifan Hassan</p>",
			want: "Eliud Kipchoge Sifan Hassan",
		},
		{
			name: "line breaks become spaces",
			in:   "Show notes<br>with Sifan Hassan",
			want: "Show notes with Sifan Hassan",
		},
		{
			name: "whitespace collapsed",
			in:   "  Eliud\n\tKipchoge  ",
			want: "Eliud Kipchoge",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plain(tt.in); got != tt.want {
				t.Fatalf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
