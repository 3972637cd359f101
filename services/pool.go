package services

import (
	"strings"

	"github.com/Dosada05/smash-arena/models"
)

type poolEntry struct {
	Name     string
	Username string
}

// parsePoolImport reads one player per line in the form "Name, @username".
// The username part is optional; blank lines and lines without a name are
// ignored.
func parsePoolImport(text string) []poolEntry {
	var entries []poolEntry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		var username string
		if len(parts) > 1 {
			username = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(parts[1]), "@", ""))
		}
		entries = append(entries, poolEntry{Name: name, Username: username})
	}
	return entries
}

// inPool reports whether a player with the same name or username is already
// listed. Both comparisons ignore case.
func inPool(pool []models.PoolPlayer, name, username string) bool {
	for _, p := range pool {
		if strings.EqualFold(p.Name, name) {
			return true
		}
		if username != "" && p.Username != nil && strings.EqualFold(*p.Username, username) {
			return true
		}
	}
	return false
}

func fillRegistered(player *models.PoolPlayer, user *models.User) {
	id := user.ID
	username := user.Username
	player.UserID = &id
	player.Username = &username
	player.Name = user.Name
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
