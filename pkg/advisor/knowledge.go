package advisor

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileKnowledge searches standards documents loaded from a YAML file.
type FileKnowledge struct {
	docs []Document
}

// NewFileKnowledge wraps docs.
func NewFileKnowledge(docs []Document) *FileKnowledge {
	return &FileKnowledge{docs: docs}
}

// LoadFileKnowledge reads a YAML list of documents.
func LoadFileKnowledge(filename string) (*FileKnowledge, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read knowledge file %s", filename)
	}
	var docs []Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrapf(err, "failed to parse knowledge file %s", filename)
	}
	return NewFileKnowledge(docs), nil
}

// Query implements KnowledgeSearch. Documents without keywords always match;
// the others match when a keyword occurs in text, best matches first.
func (k *FileKnowledge) Query(_ context.Context, text string) ([]Document, error) {
	query := strings.ToLower(text)
	type scored struct {
		doc   Document
		score int
	}
	var hits []scored
	for _, doc := range k.docs {
		if len(doc.Keywords) == 0 {
			hits = append(hits, scored{doc: doc})
			continue
		}
		score := 0
		for _, kw := range doc.Keywords {
			if kw != "" && strings.Contains(query, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	result := make([]Document, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.doc)
	}
	return result, nil
}
