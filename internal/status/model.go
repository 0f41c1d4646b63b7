// Package status parses a Minecraft server's status JSON document into a
// typed model, classifies the server implementation, renders its
// description component tree to a legacy-formatted string, and detects
// the opt-out sentinel.
package status

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Response is the parsed form of a server's status JSON document
// (spec §3). Unknown fields are ignored by encoding/json by default.
type Response struct {
	Version              Version
	Players              Players
	DescriptionRaw       any
	DescriptionFormatted string
	Favicon              *string
	PreventsChatReports  *bool
	EnforcesSecureChat   *bool
	Modded               *bool
	ForgeData            *ForgeData
}

// Version is the required version sub-document.
type Version struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// Players is the required players sub-document.
type Players struct {
	Online int32    `json:"online"`
	Max    int32    `json:"max"`
	Sample []Player `json:"sample"`
}

// Player is one entry in players.sample.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UUID parses Player.ID as a canonical UUID. spec §3: "malformed IDs are
// skipped, not fatal" — callers check ok before persisting.
func (p Player) UUID() (uuid.UUID, bool) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// Mod is one forge/neoforge mod entry, accepting both the modern
// (mods/modId/modmarker) and legacy (modList/modid/version) key
// spellings (spec §3/§9 — aliasing happens at deserialization).
type Mod struct {
	ID     string `json:"id"`
	Marker string `json:"marker"`
}

// ForgeData is the optional forgeData/modList document.
type ForgeData struct {
	Mods []Mod `json:"mods"`
}

// rawResponse mirrors the wire document with every field optional so we
// can tell "absent" from "present but zero value" where spec §3 requires
// it (prevents_chat_reports, enforces_secure_chat, modded are *bool).
type rawResponse struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Online int32 `json:"online"`
		Max    int32 `json:"max"`
		Sample []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"sample"`
	} `json:"players"`
	Description           json.RawMessage `json:"description"`
	Favicon               *string         `json:"favicon"`
	PreventsChatReports   *bool           `json:"preventsChatReports"`
	EnforcesSecureChat    *bool           `json:"enforcesSecureChat"`
	Modded                *bool           `json:"isModded"`
	ForgeData             *rawForgeData   `json:"forgeData"`
	// legacy FML/Forge alias
	ModList *rawModList `json:"modList"`
}

type rawForgeData struct {
	Mods []rawMod `json:"mods"`
}

// rawModList is the legacy shape: a bare array of mods at the top level
// under the "modList" key instead of a nested "forgeData.mods".
type rawModList = []rawMod

type rawMod struct {
	// modern
	ID     string `json:"modId"`
	Marker string `json:"modmarker"`
	// legacy aliases
	LegacyID      string `json:"modid"`
	LegacyVersion string `json:"version"`
}

func (m rawMod) resolve() Mod {
	id := m.ID
	if id == "" {
		id = m.LegacyID
	}
	marker := m.Marker
	if marker == "" {
		marker = m.LegacyVersion
	}
	return Mod{ID: id, Marker: marker}
}

// Parse deserializes the raw status JSON into a Response, computes the
// formatted description and classification-relevant fields. Unknown
// fields are ignored; the modern/legacy mod key aliases are resolved
// here so nothing downstream branches on wire format version.
func Parse(data []byte) (Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return Response{}, fmt.Errorf("status: %w", err)
	}

	resp := Response{
		Version: Version{Name: raw.Version.Name, Protocol: raw.Version.Protocol},
		Players: Players{Online: raw.Players.Online, Max: raw.Players.Max},
		Favicon: raw.Favicon,
		PreventsChatReports: raw.PreventsChatReports,
		EnforcesSecureChat:  raw.EnforcesSecureChat,
		Modded:              raw.Modded,
	}

	for _, p := range raw.Players.Sample {
		resp.Players.Sample = append(resp.Players.Sample, Player{ID: p.ID, Name: p.Name})
	}

	switch {
	case raw.ForgeData != nil:
		mods := make([]Mod, 0, len(raw.ForgeData.Mods))
		for _, m := range raw.ForgeData.Mods {
			mods = append(mods, m.resolve())
		}
		resp.ForgeData = &ForgeData{Mods: mods}
	case raw.ModList != nil:
		mods := make([]Mod, 0, len(*raw.ModList))
		for _, m := range *raw.ModList {
			mods = append(mods, m.resolve())
		}
		resp.ForgeData = &ForgeData{Mods: mods}
	}

	if len(raw.Description) > 0 {
		var desc any
		if err := json.Unmarshal(raw.Description, &desc); err != nil {
			return Response{}, fmt.Errorf("status: description: %w", err)
		}
		resp.DescriptionRaw = desc
		resp.DescriptionFormatted = BuildFormattedDescription(desc)
	}

	return resp, nil
}
