package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/inkreader/backend/models"
)

func TestExportDumpCarriesSettings(t *testing.T) {
	dump := ExportDump{
		ExportedAt: time.Now(),
		Manga:      []models.Manga{{Title: "Solo Leveling", Slug: "solo-leveling"}},
		Chapters:   []models.Chapter{{ChapterNumber: 1}},
		Settings: []SettingsExport{
			{Email: "reader@example.com", Settings: models.DefaultSettings()},
		},
	}

	raw, err := json.Marshal(dump)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"exportedAt", "manga", "chapters", "settings"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("dump missing %q", key)
		}
	}

	var settings []SettingsExport
	if err := json.Unmarshal(decoded["settings"], &settings); err != nil {
		t.Fatal(err)
	}
	if len(settings) != 1 || settings[0].Email != "reader@example.com" {
		t.Errorf("settings = %+v", settings)
	}
	if settings[0].Settings.ReadingMode != models.ReadingModePaged {
		t.Errorf("readingMode = %q", settings[0].Settings.ReadingMode)
	}
}
