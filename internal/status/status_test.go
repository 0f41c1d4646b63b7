package status

import "testing"

func TestBuildFormattedDescriptionFixtures(t *testing.T) {
	cases := []struct {
		name string
		desc any
		want string
	}{
		{
			name: "plain string",
			desc: "Hi",
			want: "Hi",
		},
		{
			name: "colored text",
			desc: map[string]any{"text": "Hi", "color": "red"},
			want: "§cHi",
		},
		{
			name: "bold and colored",
			desc: map[string]any{"text": "Hi", "bold": true, "color": "gold"},
			want: "§l§6Hi",
		},
		{
			name: "extra before text in source order",
			desc: map[string]any{
				"extra": []any{map[string]any{"text": "World", "color": "green"}},
				"text":  "Hello ",
				"color": "red",
			},
			want: "§cHello §aWorld",
		},
		{
			name: "array of components",
			desc: []any{
				map[string]any{"text": "a"},
				map[string]any{"text": "b", "bold": true},
			},
			want: "a§lb",
		},
		{
			name: "unknown hex color falls back to reset",
			desc: map[string]any{"text": "ok", "color": "#ff00ff"},
			want: "§rok",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildFormattedDescription(tc.desc)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsOptOut(t *testing.T) {
	if !IsOptOut("hello §b§d§f§d§b world") {
		t.Fatal("expected sentinel embedded mid-string to be detected")
	}
	if IsOptOut("a perfectly normal MOTD") {
		t.Fatal("expected no false positive")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		json string
		want ServerType
	}{
		{
			name: "paper",
			json: `{"version":{"name":"Paper 1.20.4","protocol":765}}`,
			want: TypePaper,
		},
		{
			name: "neoforge via isModded",
			json: `{"version":{"name":"1.20.4","protocol":765},"isModded":true}`,
			want: TypeNeoForge,
		},
		{
			name: "lexforge via forgeData",
			json: `{"version":{"name":"1.20.4","protocol":765},"forgeData":{"mods":[]}}`,
			want: TypeLexForge,
		},
		{
			name: "plain java",
			json: `{"version":{"name":"1.20.4","protocol":765}}`,
			want: TypeJava,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := Parse([]byte(tc.json))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := resp.Classify(); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParsePlayerSampleAndUUIDValidation(t *testing.T) {
	raw := `{
		"version":{"name":"1.20.4","protocol":765},
		"players":{"online":2,"max":20,"sample":[
			{"id":"4566e69f-c907-48ee-8d71-d7ba5aa00d20","name":"Notch"},
			{"id":"not-a-uuid","name":"Ghost"}
		]},
		"description":"Hi"
	}`
	resp, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Players.Sample) != 2 {
		t.Fatalf("expected 2 sample entries, got %d", len(resp.Players.Sample))
	}
	if _, ok := resp.Players.Sample[0].UUID(); !ok {
		t.Fatal("expected first player's id to parse as a UUID")
	}
	if _, ok := resp.Players.Sample[1].UUID(); ok {
		t.Fatal("expected malformed id to fail UUID parsing, not be fatal")
	}
}

func TestParseModAliasing(t *testing.T) {
	modern := `{"version":{"name":"1.20.4","protocol":765},"forgeData":{"mods":[{"modId":"jei","modmarker":"15.2.0"}]}}`
	resp, err := Parse([]byte(modern))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ForgeData == nil || len(resp.ForgeData.Mods) != 1 {
		t.Fatalf("expected one mod, got %+v", resp.ForgeData)
	}
	if resp.ForgeData.Mods[0].ID != "jei" || resp.ForgeData.Mods[0].Marker != "15.2.0" {
		t.Fatalf("unexpected mod: %+v", resp.ForgeData.Mods[0])
	}

	legacy := `{"version":{"name":"1.7.10","protocol":5},"modList":[{"modid":"jei","version":"2.0"}]}`
	resp, err = Parse([]byte(legacy))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ForgeData == nil || len(resp.ForgeData.Mods) != 1 {
		t.Fatalf("expected one legacy mod, got %+v", resp.ForgeData)
	}
	if resp.ForgeData.Mods[0].ID != "jei" || resp.ForgeData.Mods[0].Marker != "2.0" {
		t.Fatalf("unexpected legacy mod: %+v", resp.ForgeData.Mods[0])
	}
}

func TestParseUnknownFieldsIgnored(t *testing.T) {
	raw := `{"version":{"name":"1.20.4","protocol":765},"somethingWeird":{"nested":true},"players":{"online":0,"max":0}}`
	if _, err := Parse([]byte(raw)); err != nil {
		t.Fatalf("unexpected error parsing unknown fields: %v", err)
	}
}
