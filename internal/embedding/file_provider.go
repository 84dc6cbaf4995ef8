package embedding

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/verbamind/verbamind/internal/vectormath"
)

// FileProviderOptions controls how a vector text file is ingested.
type FileProviderOptions struct {
	// MaxWords caps how many entries are kept in memory; 0 means unlimited.
	MaxWords int
	// Normalize re-normalizes every vector on load.
	Normalize bool
	Logger    *logrus.Logger
}

// FileProvider serves embeddings for a single language from an in-memory
// table loaded from a text file. Format: one `word v1 v2 ... vD` entry per
// line, optionally preceded by a `"<count> <dim>"` header. Malformed lines
// are skipped and counted.
type FileProvider struct {
	language  string
	dimension int
	words     map[string]*WordEmbedding
}

// NewFileProvider streams the file at path into memory, enforcing the
// configured dimension.
func NewFileProvider(path, language string, dimension int, opts FileProviderOptions) (*FileProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding file: %w", err)
	}
	defer f.Close()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &FileProvider{
		language:  language,
		dimension: dimension,
		words:     make(map[string]*WordEmbedding),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	skipped := 0
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// A "<count> <dim>" header is allowed on the first line.
		if first {
			first = false
			if len(fields) == 2 {
				if _, err := strconv.Atoi(fields[0]); err == nil {
					if d, err := strconv.Atoi(fields[1]); err == nil {
						if d != dimension {
							return nil, fmt.Errorf("embedding file dimension %d does not match configured %d", d, dimension)
						}
						continue
					}
				}
			}
		}

		if len(fields) != dimension+1 {
			skipped++
			continue
		}

		word := strings.ToLower(fields[0])
		vector := make([]float64, dimension)
		ok := true
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vector[i] = v
		}
		if !ok {
			skipped++
			continue
		}

		if opts.Normalize {
			vector = vectormath.Normalize(vector)
		}

		p.words[word] = &WordEmbedding{
			Word:     word,
			Language: language,
			Vector:   vector,
		}

		if opts.MaxWords > 0 && len(p.words) >= opts.MaxWords {
			logger.Warnf("Embedding file truncated at %d words (MaxWords cap)", opts.MaxWords)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read embedding file: %w", err)
	}

	if skipped > 0 {
		logger.Warnf("Skipped %d malformed embedding lines in %s", skipped, path)
	}
	logger.Infof("Loaded %d embeddings (%s, dim=%d) from %s", len(p.words), language, dimension, path)

	return p, nil
}

// Dimension returns the vector dimension this provider was loaded with.
func (p *FileProvider) Dimension() int {
	return p.dimension
}

// Len returns the number of loaded words.
func (p *FileProvider) Len() int {
	return len(p.words)
}

func (p *FileProvider) Get(ctx context.Context, word, language string) (*WordEmbedding, error) {
	if language != p.language {
		return nil, ErrNotFound(word, language)
	}
	emb, ok := p.words[strings.ToLower(word)]
	if !ok {
		return nil, ErrNotFound(word, language)
	}
	return emb, nil
}

func (p *FileProvider) Has(ctx context.Context, word, language string) (bool, error) {
	if language != p.language {
		return false, nil
	}
	_, ok := p.words[strings.ToLower(word)]
	return ok, nil
}
