package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityTypeEmail       EntityType = "email"
	EntityTypeURL         EntityType = "url"
	EntityTypePhone       EntityType = "phone"
	EntityTypeDate        EntityType = "date"
	EntityTypeMoney       EntityType = "money"
	EntityTypeNamedEntity EntityType = "named_entity"
	EntityTypeKeyPhrase   EntityType = "key_phrase"
)

// Entity is a typed, positioned token extracted from text. Start and End are
// byte offsets into the source text; positionless entities (key phrases)
// carry -1 for both. IDs are assigned in extraction order and are only unique
// within one Extract call.
type Entity struct {
	ID     string     `json:"id"`
	Type   EntityType `json:"type"`
	Value  string     `json:"value"`
	Start  int        `json:"start"`
	End    int        `json:"end"`
	Source string     `json:"source,omitempty"`
}

// RelationType classifies a relationship between two entities.
type RelationType string

const (
	RelationCoOccurs RelationType = "co_occurs"
	RelationRelated  RelationType = "related"
	RelationCustom   RelationType = "custom"
)

// Relationship links two entities by id. It is undirected in meaning though
// stored as an ordered pair; self-loops are never produced.
type Relationship struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Type   RelationType `json:"type"`
	Weight float64      `json:"weight"`
}

// coOccurrenceWindow is the maximum character distance between two entity
// start offsets for a co-occurrence relationship.
const coOccurrenceWindow = 100

const defaultMaxKeyPhrases = 10

type pattern struct {
	entityType EntityType
	re         *regexp.Regexp
}

// Extractor extracts entities and relationships from plain text using a fixed
// pattern table and frequency heuristics. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	// order matters: pattern groups are emitted in table order
	patterns      []pattern
	capitalized   *regexp.Regexp
	keyword       *regexp.Regexp
	maxKeyPhrases int
}

// NewExtractor creates an Extractor with the default pattern table.
func NewExtractor() *Extractor {
	return &Extractor{
		patterns: []pattern{
			{EntityTypeEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
			{EntityTypeURL, regexp.MustCompile(`https?://\S+`)},
			{EntityTypePhone, regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
			{EntityTypeDate, regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)},
			{EntityTypeMoney, regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?`)},
		},
		capitalized:   regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`),
		keyword:       regexp.MustCompile(`\b[a-z]{4,}\b`),
		maxKeyPhrases: defaultMaxKeyPhrases,
	}
}

// Extract returns the entities found in text, ordered as: pattern matches
// grouped in table order, then capitalized named entities, then key phrases.
// It never fails; text with no matches yields an empty slice.
func (e *Extractor) Extract(text string) []Entity {
	entities := []Entity{}
	entityID := 0

	nextID := func() string {
		id := fmt.Sprintf("entity_%d", entityID)
		entityID++
		return id
	}

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			entities = append(entities, Entity{
				ID:    nextID(),
				Type:  p.entityType,
				Value: text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	seen := map[string]struct{}{}
	for _, loc := range e.capitalized.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		if len(value) <= 2 {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		entities = append(entities, Entity{
			ID:    nextID(),
			Type:  EntityTypeNamedEntity,
			Value: value,
			Start: loc[0],
			End:   loc[1],
		})
	}

	for _, phrase := range e.keyPhrases(text) {
		entities = append(entities, Entity{
			ID:    nextID(),
			Type:  EntityTypeKeyPhrase,
			Value: phrase,
			Start: -1,
			End:   -1,
		})
	}

	return entities
}

// keyPhrases returns the most frequent lowercase alphabetic tokens of length
// >= 4 that are not stop words, most frequent first, ties broken by first
// encounter in the text.
func (e *Extractor) keyPhrases(text string) []string {
	words := e.keyword.FindAllString(strings.ToLower(text), -1)

	type wordFreq struct {
		word  string
		count int
	}

	counts := map[string]*wordFreq{}
	var order []*wordFreq
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		wf, ok := counts[w]
		if !ok {
			wf = &wordFreq{word: w}
			counts[w] = wf
			order = append(order, wf)
		}
		wf.count++
	}

	// stable sort keeps first-encounter order for equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	n := e.maxKeyPhrases
	if n > len(order) {
		n = len(order)
	}
	phrases := make([]string, 0, n)
	for _, wf := range order[:n] {
		phrases = append(phrases, wf.word)
	}
	return phrases
}

// ExtractRelationships emits a co-occurrence relationship for every pair of
// entities whose start offsets lie within the co-occurrence window. The pass
// is quadratic in entity count; callers bound input size per document.
func (e *Extractor) ExtractRelationships(entities []Entity, text string) []Relationship {
	relationships := []Relationship{}

	for i := range entities {
		for j := i + 1; j < len(entities); j++ {
			distance := entities[i].Start - entities[j].Start
			if distance < 0 {
				distance = -distance
			}
			if distance < coOccurrenceWindow {
				relationships = append(relationships, Relationship{
					Source: entities[i].ID,
					Target: entities[j].ID,
					Type:   RelationCoOccurs,
					Weight: 1,
				})
			}
		}
	}

	return relationships
}
