// Package games ships the built-in game plugins. Every plugin generates its
// content deterministically from the session seed, so identical requests
// replay identically regardless of host or wall clock.
package games

import (
	"math/rand"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/internal/semantics"
	"github.com/verbamind/verbamind/pkg/utils"
)

// wordPools holds the seed vocabulary plugins draw targets and themes from.
// Small on purpose: gameplay vocabulary comes from the player, not the pool.
var wordPools = map[string][]string{
	"en": {
		"ocean", "river", "mountain", "forest", "storm", "cloud", "fire",
		"stone", "light", "shadow", "music", "silence", "journey", "bridge",
		"memory", "dream", "winter", "summer", "garden", "harvest", "city",
		"village", "machine", "engine", "signal", "pattern", "puzzle",
		"mirror", "window", "thread", "fabric", "anchor", "compass", "spark",
		"ember", "tide", "horizon", "valley", "meadow", "lantern",
	},
}

// pool returns the vocabulary for a language, falling back to English.
func pool(language string) []string {
	if words, ok := wordPools[language]; ok {
		return words
	}
	return wordPools["en"]
}

// pickWords draws n distinct words from the language pool.
func pickWords(rng *rand.Rand, language string, n int) []string {
	src := pool(language)
	perm := rng.Perm(len(src))
	picked := make([]string, n)
	for i := 0; i < n; i++ {
		picked[i] = src[perm[i]]
	}
	return picked
}

// actionWord extracts the single word carried by a player action. Action
// types the caller does not play report ok=false and are ignored; a playable
// type with a missing payload is a bad action.
func actionWord(action engine.Action) (word string, ok bool, err error) {
	switch action.Type {
	case engine.ActionSubmitWord:
		if action.Text == "" {
			return "", false, utils.NewAppError(utils.ErrCodeBadAction, "submit_word requires text")
		}
		return action.Text, true, nil
	case engine.ActionTap:
		if action.WordID == "" {
			return "", false, utils.NewAppError(utils.ErrCodeBadAction, "tap requires word_id")
		}
		return action.WordID, true, nil
	}
	return "", false, nil
}

// RegisterAll installs the built-in plugins into the catalog.
func RegisterAll(catalog *engine.Catalog, scorer *semantics.Scorer) error {
	plugins := []engine.Plugin{
		NewEcho(scorer),
		NewBridge(scorer),
		NewStorm(scorer),
		NewChain(),
	}
	for _, p := range plugins {
		if err := catalog.Register(p); err != nil {
			return err
		}
	}
	return nil
}
