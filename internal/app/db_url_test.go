package app

import "testing"

func TestNormalizeDBURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		disable bool
		want    string
	}{
		{
			name: "disabled flag leaves url alone",
			raw:  "postgres://playerdb:pw@localhost:5432/playerdb?sslmode=disable",
			want: "postgres://playerdb:pw@localhost:5432/playerdb?sslmode=disable",
		},
		{
			name:    "injects parameter when enabled",
			raw:     "postgres://playerdb:pw@localhost:5432/playerdb?sslmode=disable",
			disable: true,
			want:    "postgres://playerdb:pw@localhost:5432/playerdb?disable_prepared_binary_result=yes&sslmode=disable",
		},
		{
			name:    "existing parameter wins",
			raw:     "postgres://playerdb:pw@localhost:5432/playerdb?disable_prepared_binary_result=no",
			disable: true,
			want:    "postgres://playerdb:pw@localhost:5432/playerdb?disable_prepared_binary_result=no",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeDBURL(tc.raw, tc.disable); got != tc.want {
				t.Fatalf("unexpected url:\nwant: %s\ngot:  %s", tc.want, got)
			}
		})
	}
}

func TestDBNameFromURL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"url form", "postgres://user:pw@db.internal:5432/playerdb?sslmode=require", "playerdb"},
		{"dsn form", "host=localhost port=5432 dbname=playerdb sslmode=disable", "playerdb"},
		{"missing name falls back", "postgres://user:pw@db.internal:5432/", "postgres"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dbNameFromURL(tc.raw); got != tc.want {
				t.Fatalf("unexpected db name: want %q, got %q", tc.want, got)
			}
		})
	}
}
