package loader

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/sparksaga/data"
)

// corpus copies the embedded content into a MapFS so tests can swap
// individual files.
func corpus(t *testing.T) fstest.MapFS {
	t.Helper()
	m := fstest.MapFS{}
	err := fs.WalkDir(data.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(data.FS, p)
		if err != nil {
			return err
		}
		m[p] = &fstest.MapFile{Data: b}
		return nil
	})
	require.NoError(t, err)
	return m
}

func load(t *testing.T, m fstest.MapFS) (*Store, Logs) {
	t.Helper()
	return Load(context.Background(), FSSource{FS: m}, Options{})
}

func TestLoad_EmbeddedCorpus(t *testing.T) {
	s, logs := load(t, corpus(t))
	require.NotNil(t, s)
	assert.Empty(t, logs, "default corpus should load clean")

	enc, ok := s.Encounter.Get("tutorial_wolf_pack")
	require.True(t, ok)
	assert.Equal(t, 24, enc.Rewards.Experience)
	assert.Equal(t, "hero_party", enc.PlayerPartyID)
	require.Len(t, enc.Enemies, 2)
	require.NotNil(t, enc.Enemies[1].Stats)
	assert.Equal(t, 35, *enc.Enemies[1].Stats.MaxHP)

	sk, ok := s.Skill.Get("power_strike")
	require.True(t, ok)
	assert.Equal(t, "physical", string(sk.Type), "skill type defaults to physical")

	entry, ok := s.EventMap.ByTileEventID[2]
	require.True(t, ok)
	assert.Equal(t, "old_chest", entry.ID)
	assert.False(t, entry.IsRepeatable())

	assert.Equal(t, 0.3, s.Balance.CritChanceMax)
	assert.Contains(t, s.Locales, "ja")
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	m := corpus(t)
	delete(m, "weapon.json")
	delete(m, "i18n/ja.json")

	s, logs := load(t, m)
	assert.Nil(t, s)

	missing := logs.ByCode(CodeFileNotFound)
	require.Len(t, missing, 2)
	ids := []string{missing[0].ID, missing[1].ID}
	assert.ElementsMatch(t, []string{"weapon.json", "i18n/ja.json"}, ids)
	assert.Equal(t, "Failed to load essential data file: weapon.json",
		logs.ByCode(CodeFileNotFound).filter(func(l Log) bool { return l.ID == "weapon.json" })[0].Msg)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		body     string
		wantPath []string
	}{
		{
			name: "bad id and zero power",
			file: "skill.json",
			body: `[{"id":"Bad-ID","name":"x","power":0,"element":"fire"}]`,
			wantPath: []string{
				"skill.json: [0].id",
				"skill.json: [0].power",
			},
		},
		{
			name:     "unknown element",
			file:     "skill.json",
			body:     `[{"id":"zap","name":"Zap","power":3,"element":"plasma"}]`,
			wantPath: []string{"skill.json: [0].element"},
		},
		{
			name: "duplicate id",
			file: "weapon.json",
			body: `[{"id":"stick","name":"Stick","attack":1},
			        {"id":"stick","name":"Stick","attack":2}]`,
			wantPath: []string{"weapon.json: [1].id"},
		},
		{
			name: "duplicate enemy in encounter",
			file: "encounter.json",
			body: `[{"id":"pack","name":"Pack","playerPartyId":"hero_party","enemies":[
			        {"id":"wolf","enemyId":"grey_wolf"},
			        {"id":"wolf","enemyId":"alpha_wolf"}]}]`,
			wantPath: []string{"encounter.json: [0].enemies[1].id"},
		},
		{
			name:     "loot chance above one",
			file:     "loot_table.json",
			body:     `[{"id":"t","entries":[{"item_id":"potion","quantity":1,"chance":1.5}]}]`,
			wantPath: []string{"loot_table.json: [0].entries[0].chance"},
		},
		{
			name:     "crit cap",
			file:     "balance.json",
			body:     `{"physical_damage":{"defense_factor":50},"magical_damage":{"magic_defense_factor":50},"crit_chance_max":0.5}`,
			wantPath: []string{"balance.json: crit_chance_max"},
		},
		{
			name:     "wrong type",
			file:     "armor.json",
			body:     `[{"id":"vest","name":"Vest","defense":"thick"}]`,
			wantPath: []string{"defense"},
		},
		{
			name:     "conversation without target",
			file:     "event-map.json",
			body:     `[{"id":"talk","tileEventId":1,"type":"conversation"}]`,
			wantPath: []string{"event-map.json: [0].conversationId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := corpus(t)
			m[tt.file] = &fstest.MapFile{Data: []byte(tt.body)}

			s, logs := load(t, m)
			assert.Nil(t, s)

			errs := logs.ByCode(CodeSchemaValidation)
			require.Len(t, errs, len(tt.wantPath), "logs: %v", logs)
			for i, want := range tt.wantPath {
				assert.Contains(t, errs[i].Msg, want)
				assert.Equal(t, tt.file, errs[i].ID)
			}
		})
	}
}

func TestLoad_MalformedJSONIsUnexpected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `[{"id" 1}]`},
		{"truncated", `[{"id":`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := corpus(t)
			m["quest.json"] = &fstest.MapFile{Data: []byte(tt.body)}

			s, logs := load(t, m)
			assert.Nil(t, s)
			require.Len(t, logs.ByCode(CodeUnexpected), 1, "logs: %v", logs)
			assert.Equal(t, "quest.json", logs.ByCode(CodeUnexpected)[0].ID)
			assert.Empty(t, logs.ByCode(CodeSchemaValidation))
		})
	}
}

func TestLoad_DanglingReferencesWarn(t *testing.T) {
	m := corpus(t)
	m["enemy.json"] = &fstest.MapFile{Data: []byte(`[
		{"id":"grey_wolf","name":"Grey Wolf","level":1,
		 "stats":{"maxHp":10},"skills":["ghost_bite"]},
		{"id":"alpha_wolf","name":"Alpha","level":1,"stats":{"maxHp":10}}
	]`)}
	m["weapon.json"] = &fstest.MapFile{Data: []byte(`[
		{"id":"bronze_sword","name":"Bronze Sword","attack":5,"op":["cursed"]},
		{"id":"oak_staff","name":"Oak Staff","attack":2}
	]`)}
	m["er.json"] = &fstest.MapFile{Data: []byte(`{"effects":{"1":[{"target_id":"nothing_here","effect_type":"price_modifier"}]}}`)}

	s, logs := load(t, m)
	require.NotNil(t, s, "warnings never block loading")
	assert.False(t, logs.HasFatal())

	skill := logs.ByCode(CodeDanglingSkill)
	require.Len(t, skill, 1)
	assert.Equal(t, "grey_wolf", skill[0].ID)
	assert.Contains(t, skill[0].Msg, "ghost_bite")

	affix := logs.ByCode(CodeDanglingAffixKey)
	require.Len(t, affix, 1)
	assert.Equal(t, "bronze_sword", affix[0].ID)

	er := logs.ByCode(CodeDanglingERTarget)
	require.Len(t, er, 1)
	assert.Equal(t, "1", er[0].ID)

	assert.Len(t, logs.Warnings(), 3)
}

func TestLoad_LocaleParity(t *testing.T) {
	m := corpus(t)
	m["i18n/ja.json"] = &fstest.MapFile{Data: []byte(`{"title.name":"スパークサーガ"}`)}

	s, logs := load(t, m)
	require.NotNil(t, s)

	miss := logs.ByCode(CodeMissingPrefix + "menu.close")
	require.Len(t, miss, 1)
	assert.Equal(t, Warn, miss[0].Level)
	assert.Equal(t, "ja", miss[0].ID)
	assert.Empty(t, logs.ByCode(CodeMissingPrefix+"title.name"))

	assert.Equal(t, "Menu", s.Text("ja", "i18n.menu.title"), "falls back to the reference locale")
	assert.Equal(t, "[MISSING:nope]", s.Text("ja", "nope"))
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, logs := Load(ctx, FSSource{FS: corpus(t)}, Options{})
	assert.Nil(t, s)
	assert.True(t, logs.HasFatal())
}

func TestLogsErr(t *testing.T) {
	var logs Logs
	assert.NoError(t, logs.Err())

	logs.warn(CodeDanglingItem, "x", "only a warning")
	assert.NoError(t, logs.Err())

	logs.fatal(CodeFileNotFound, "a.json", "Failed to load essential data file: a.json")
	logs.fatal(CodeFileNotFound, "b.json", "Failed to load essential data file: b.json")
	err := logs.Err()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "a.json") && strings.Contains(err.Error(), "b.json"))
}

func TestIndexName(t *testing.T) {
	tests := map[string]string{
		"status-effect": "statusEffects",
		"event-map":     "eventMap",
		"i18n/ja":       "i18n_ja",
		"loot_table":    "loot_table",
		"skill":         "skill",
	}
	for stem, want := range tests {
		assert.Equal(t, want, IndexName(stem), stem)
	}
}

func TestStoreIndexAndLocale(t *testing.T) {
	s, logs := load(t, corpus(t))
	require.False(t, logs.HasFatal())

	for _, stem := range ContentFiles {
		_, ok := s.Index(IndexName(stem))
		assert.True(t, ok, stem)
	}
	_, ok := s.Index("i18n_ja")
	assert.True(t, ok)
	_, ok = s.Index("i18n_fr")
	assert.False(t, ok)

	assert.Equal(t, "ja", s.MatchLocale("ja-JP"))
	assert.Equal(t, "en", s.MatchLocale("en-GB"))
	assert.Equal(t, "en", s.MatchLocale(""))
	assert.Equal(t, "Potion", s.ItemName("potion"))
	assert.Equal(t, "Bronze Sword", s.ItemName("bronze_sword"))
	assert.Equal(t, "mystery", s.ItemName("mystery"))
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(Content{})
	assert.Equal(t, "en", s.ReferenceLocale)
	assert.NotNil(t, s.Locales)
	assert.Empty(t, s.EventMap.ByTileEventID)
}
