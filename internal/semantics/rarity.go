package semantics

import (
	"context"
	"math"
	"strings"

	"github.com/verbamind/verbamind/internal/embedding"
	"github.com/verbamind/verbamind/internal/vectormath"
	"github.com/verbamind/verbamind/pkg/utils"
)

// RarityResult scores how uncommon a word is, optionally gated by a V/C
// letter pattern.
type RarityResult struct {
	Rarity       int  `json:"rarity"` // 0-100
	PatternMatch bool `json:"pattern_match"`
}

const patternBonus = 1.2

// Rarity computes a word's rarity on a 0-100 scale. Frequency metadata
// drives the base score; words without frequency fall back to a length table.
// A non-empty pattern of V (vowel) and C (consonant) characters gates the
// score: mismatches zero it, matches multiply the base by 1.2.
func (s *Scorer) Rarity(ctx context.Context, word, pattern, language string) (RarityResult, error) {
	word = strings.ToLower(word)

	base := rarityFromLength(word)
	emb, err := s.embeddings.Get(ctx, word, language)
	if err != nil && !embedding.IsNotFound(err) {
		return RarityResult{}, err
	}
	if err == nil && emb.Frequency > 0 {
		base = rarityFromFrequency(emb.Frequency)
	}

	if pattern == "" {
		return RarityResult{Rarity: vectormath.RoundHalfAwayFromZero(base)}, nil
	}

	matched, err := MatchesPattern(word, pattern)
	if err != nil {
		return RarityResult{}, err
	}
	if !matched {
		return RarityResult{Rarity: 0, PatternMatch: false}, nil
	}

	boosted := vectormath.Clamp(base*patternBonus, 0, 100)
	return RarityResult{Rarity: vectormath.RoundHalfAwayFromZero(boosted), PatternMatch: true}, nil
}

func rarityFromFrequency(freq float64) float64 {
	return vectormath.Clamp(100*(1-math.Log10(freq+1)/6), 0, 100)
}

func rarityFromLength(word string) float64 {
	switch n := len(word); {
	case n <= 3:
		return 20
	case n <= 5:
		return 30
	case n <= 7:
		return 50
	case n <= 10:
		return 70
	default:
		return 90
	}
}

// MatchesPattern checks a lowercased word against a V/C pattern. The pattern
// language is ASCII-only: V matches a/e/i/o/u, C matches any other ASCII
// letter. A pattern containing anything but V or C is invalid.
func MatchesPattern(word, pattern string) (bool, error) {
	pattern = strings.ToUpper(pattern)
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != 'V' && pattern[i] != 'C' {
			return false, utils.NewAppError(utils.ErrCodeInvalidPattern,
				"pattern may only contain V and C", pattern)
		}
	}

	if len(word) != len(pattern) {
		return false, nil
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false, nil
		}
		isVowel := ch == 'a' || ch == 'e' || ch == 'i' || ch == 'o' || ch == 'u'
		if pattern[i] == 'V' && !isVowel {
			return false, nil
		}
		if pattern[i] == 'C' && isVowel {
			return false, nil
		}
	}
	return true, nil
}
