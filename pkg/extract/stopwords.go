package extract

// stopWords are excluded from key phrase extraction.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "and": {}, "a": {},
	"an": {}, "as": {}, "are": {}, "was": {}, "were": {}, "been": {}, "be": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {},
	"must": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"them": {}, "their": {}, "what": {}, "who": {}, "when": {}, "where": {},
	"why": {}, "how": {}, "all": {}, "each": {}, "every": {}, "both": {},
	"few": {}, "more": {}, "most": {}, "other": {}, "some": {}, "such": {},
	"no": {}, "nor": {}, "not": {}, "only": {}, "own": {}, "same": {},
	"so": {}, "than": {}, "too": {}, "very": {}, "from": {}, "with": {},
	"about": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "to": {}, "up": {}, "down": {},
	"in": {}, "out": {}, "off": {}, "over": {}, "under": {}, "again": {},
	"further": {}, "then": {}, "once": {},
}
