package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/camy47/pokesocial/internal/config"
	"github.com/camy47/pokesocial/internal/core/domain"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const creatureJSON = `{
	"id": 25,
	"name": "pikachu",
	"height": 4,
	"weight": 60,
	"sprites": {"front_default": "https://sprites.example/25.png"},
	"types": [{"slot": 1, "type": {"name": "electric"}}]
}`

const personJSON = `{"results": [{"login": {"username": "bluefrog42"}, "picture": {"large": "https://img.example/l.jpg"}}]}`

func setupCLI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pokemon/"):
			w.Write([]byte(creatureJSON))
		case strings.HasPrefix(r.URL.Path, "/people"):
			w.Write([]byte(personJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	logger = zap.NewNop()
	cfg = &config.Config{
		DataFile:          filepath.Join(dir, "storage.json"),
		PokeAPIBaseURL:    srv.URL,
		RandomUserBaseURL: srv.URL + "/people",
		DisableGeo:        true,
		BatchSize:         2,
		RefreshInterval:   time.Minute,
	}
	t.Cleanup(func() { cfg = nil })
	return dir
}

func newCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestCatchWithoutEncounter(t *testing.T) {
	setupCLI(t)
	var out bytes.Buffer
	err := runCatch(newCmd(&out), nil)
	assert.ErrorIs(t, err, domain.ErrNoPendingEncounter)
}

func TestEncounterCatchLikeRelease(t *testing.T) {
	dir := setupCLI(t)
	var out bytes.Buffer

	require.NoError(t, runEncounter(newCmd(&out), nil))
	assert.Contains(t, out.String(), "A wild Pikachu appeared! (#25)")

	out.Reset()
	require.NoError(t, runCatch(newCmd(&out), nil))
	assert.Contains(t, out.String(), "Just caught a wild Pikachu in Unknown Location!")

	out.Reset()
	require.NoError(t, runFeed(newCmd(&out), nil))
	assert.Contains(t, out.String(), "bluefrog42")
	assert.Contains(t, out.String(), "(yours)")

	exportPath := filepath.Join(dir, "out", "export.json")
	out.Reset()
	require.NoError(t, runExport(newCmd(&out), []string{exportPath}))
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var export domain.Export
	require.NoError(t, json.Unmarshal(data, &export))
	require.Len(t, export.CaughtPokemon, 1)
	assert.Equal(t, 1, export.UserProfile.Stats.Caught)
	id := export.CaughtPokemon[0].ID

	out.Reset()
	require.NoError(t, runLike(newCmd(&out), []string{id}))
	assert.Contains(t, out.String(), "Liked Pikachu")
	out.Reset()
	require.NoError(t, runLike(newCmd(&out), []string{id}))
	assert.Contains(t, out.String(), "Unliked Pikachu")

	out.Reset()
	require.NoError(t, runRelease(newCmd(&out), []string{id}))
	assert.Contains(t, out.String(), "You now have 0 Pokémon")

	out.Reset()
	require.NoError(t, runRelease(newCmd(&out), []string{id}))
	assert.Contains(t, out.String(), "No post")
}

func TestFeedRejectsUnknownTab(t *testing.T) {
	setupCLI(t)
	feedTab = "explore"
	t.Cleanup(func() { feedTab = string(domain.TabHome) })

	var out bytes.Buffer
	assert.Error(t, runFeed(newCmd(&out), nil))
}

func TestProfileSet(t *testing.T) {
	setupCLI(t)
	var out bytes.Buffer
	profileSetCmd.SetOut(&out)
	profileSetCmd.SetContext(context.Background())
	require.NoError(t, profileSetCmd.Flags().Set("bio", "Cerulean gym"))
	t.Cleanup(func() {
		setBio = ""
		profileSetCmd.Flags().Lookup("bio").Changed = false
	})

	require.NoError(t, runProfileSet(profileSetCmd, nil))
	assert.Contains(t, out.String(), "Ash_Ketchum\nCerulean gym")

	out.Reset()
	require.NoError(t, runProfile(newCmd(&out), nil))
	assert.Contains(t, out.String(), "Cerulean gym")
}

func TestAvatarFromImageFile(t *testing.T) {
	dir := setupCLI(t)
	var out bytes.Buffer

	avatarImage = filepath.Join(dir, "missing.png")
	t.Cleanup(func() { avatarImage = "" })
	assert.Error(t, runAvatar(newCmd(&out), nil))
}

func TestCommandsStartOnTornStoreFile(t *testing.T) {
	setupCLI(t)
	require.NoError(t, os.WriteFile(cfg.DataFile, []byte(`{"caughtPokemon": "[{\"id\":`), 0644))

	var out bytes.Buffer
	require.NoError(t, runProfile(newCmd(&out), nil))
	assert.Contains(t, out.String(), "Caught 0")
	assert.FileExists(t, cfg.DataFile+".corrupt")

	out.Reset()
	require.NoError(t, runEncounter(newCmd(&out), nil))
	out.Reset()
	require.NoError(t, runCatch(newCmd(&out), nil))
	assert.Contains(t, out.String(), "Pikachu")
}

func TestFeedShowsRenamedOwner(t *testing.T) {
	setupCLI(t)
	var out bytes.Buffer
	require.NoError(t, runEncounter(newCmd(&out), nil))
	require.NoError(t, runCatch(newCmd(&out), nil))

	profileSetCmd.SetOut(&out)
	profileSetCmd.SetContext(context.Background())
	require.NoError(t, profileSetCmd.Flags().Set("username", "Misty"))
	t.Cleanup(func() {
		setUsername = ""
		profileSetCmd.Flags().Lookup("username").Changed = false
	})
	require.NoError(t, runProfileSet(profileSetCmd, nil))

	feedTab = string(domain.TabProfile)
	t.Cleanup(func() { feedTab = string(domain.TabHome) })
	out.Reset()
	require.NoError(t, runFeed(newCmd(&out), nil))
	assert.Contains(t, out.String(), "Misty · Unknown Location  (yours)")
	assert.NotContains(t, out.String(), "Ash_Ketchum")
}
