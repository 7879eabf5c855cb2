package crumbz

import "testing"

func TestText(t *testing.T) {
	if got := Text("plain").String(); got != "plain" {
		t.Errorf("Expected 'plain', got %q", got)
	}
}

func TestNilBreadcrumb(t *testing.T) {
	var b Breadcrumb
	if got := b.String(); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestTextfIsLazy(t *testing.T) {
	calls := 0
	arg := stringerFunc(func() string {
		calls++
		return "order-42"
	})

	b := Textf("processing %s", arg)
	if calls != 0 {
		t.Fatalf("Expected no formatting before render, got %d calls", calls)
	}

	if got := b.String(); got != "processing order-42" {
		t.Errorf("Expected 'processing order-42', got %q", got)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

type stringerFunc func() string

func (f stringerFunc) String() string { return f() }

func TestTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		args []any
		want string
	}{
		{"no placeholders", "static", nil, "static"},
		{"positional", "in method 2 with params {0} and {1}", []any{"foo", 3}, "in method 2 with params foo and 3"},
		{"reordered", "{1} before {0}", []any{"a", "b"}, "b before a"},
		{"repeated", "{0}-{0}", []any{"x"}, "x-x"},
		{"missing arg", "value {2}", []any{"a"}, "value {2}"},
		{"not an index", "value {name}", []any{"a"}, "value {name}"},
		{"negative", "value {-1}", []any{"a"}, "value {-1}"},
		{"signed", "value {+0}", []any{"a"}, "value {+0}"},
		{"unterminated", "value {0", []any{"a"}, "value {0"},
		{"empty braces", "value {}", []any{"a"}, "value {}"},
		{"quote", "it''s {0}", []any{"done"}, "it's done"},
		{"single quote kept", "it's", nil, "it's"},
		{"nil arg", "got {0}", []any{nil}, "got <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Template(tt.tmpl, tt.args...).String(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSnapshotStrings(t *testing.T) {
	calls := 0
	snap := Snapshot{Text("a"), func() string {
		calls++
		return "b"
	}, nil}

	got := snap.Strings()
	if !equalStrings(got, []string{"a", "b", ""}) {
		t.Errorf("Expected [a b ''], got %v", got)
	}
	if calls != 1 {
		t.Errorf("Expected each breadcrumb evaluated once, got %d", calls)
	}
}
