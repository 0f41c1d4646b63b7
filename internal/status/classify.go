package status

import "strings"

// ServerType is the inferred server software (spec §3).
type ServerType string

const (
	TypeJava       ServerType = "Java"
	TypeNeoForge   ServerType = "NeoForge"
	TypeLexForge   ServerType = "LexForge"
	TypePaper      ServerType = "Paper"
	TypeSpigot     ServerType = "Spigot"
	TypeBukkit     ServerType = "Bukkit"
	TypePurpur     ServerType = "Purpur"
	TypeFolia      ServerType = "Folia"
	TypePufferfish ServerType = "Pufferfish"
	TypeVelocity   ServerType = "Velocity"
	TypeLeaves     ServerType = "Leaves"
	TypeWaterfall  ServerType = "Waterfall"
	TypeBungeecord ServerType = "Bungeecord"
	TypeThermos    ServerType = "Thermos"
)

// knownFamilies maps the first whitespace token of version.name to its
// server family with a single map lookup; the entries are listed
// alphabetically for readability.
var knownFamilies = map[string]ServerType{
	"Bukkit":     TypeBukkit,
	"Bungeecord": TypeBungeecord,
	"Folia":      TypeFolia,
	"Leaves":     TypeLeaves,
	"Paper":      TypePaper,
	"Pufferfish": TypePufferfish,
	"Purpur":     TypePurpur,
	"Spigot":     TypeSpigot,
	"Thermos":    TypeThermos,
	"Velocity":   TypeVelocity,
	"Waterfall":  TypeWaterfall,
}

// Classify implements spec §4.3's get_type: modded wins over forge data,
// which wins over the first token of version.name, defaulting to Java.
func (r Response) Classify() ServerType {
	if r.Modded != nil && *r.Modded {
		return TypeNeoForge
	}
	if r.ForgeData != nil {
		return TypeLexForge
	}
	token, _, _ := strings.Cut(strings.TrimSpace(r.Version.Name), " ")
	if t, ok := knownFamilies[token]; ok {
		return t
	}
	return TypeJava
}
