package jsonx

import "testing"

func TestUnmarshal(t *testing.T) {
	type payload struct {
		Action string `json:"action"`
		Count  int    `json:"count"`
	}

	tests := []struct {
		name    string
		in      string
		want    payload
		wantErr bool
	}{
		{"plain", `{"action":"help","count":2}`, payload{"help", 2}, false},
		{"fenced", "```json\n{\"action\":\"info\",\"count\":1}\n```", payload{"info", 1}, false},
		{"trailing comma", `{"action":"locate","count":3,}`, payload{"locate", 3}, false},
		{"single quotes", `{'action': 'navigate', 'count': 4}`, payload{"navigate", 4}, false},
		{"empty", "   ", payload{}, true},
		{"wrong type", `{"action": 5}`, payload{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := Unmarshal([]byte(tt.in), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{}", "{}"},
		{"```\n{}\n```", "{}"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
