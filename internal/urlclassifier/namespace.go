package urlclassifier

import "strings"

// Classifier binds the URL heuristics to the owned-storage namespace,
// the URL prefix under which the pipeline's own uploads are served.
type Classifier struct {
	namespace string
}

// New returns a Classifier for the given owned-storage namespace.
// An empty namespace means nothing is considered owned.
func New(namespace string) *Classifier {
	namespace = strings.TrimSpace(namespace)
	if namespace != "" && !strings.HasSuffix(namespace, "/") {
		namespace += "/"
	}
	return &Classifier{namespace: namespace}
}

// Namespace returns the owned-storage URL prefix.
func (c *Classifier) Namespace() string {
	return c.namespace
}

// IsOwned reports whether raw points inside owned storage.
func (c *Classifier) IsOwned(raw string) bool {
	if c.namespace == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(raw), c.namespace)
}

func (c *Classifier) Classify(raw string) Kind {
	return Classify(raw)
}

func (c *Classifier) Explain(raw string) string {
	return Explain(raw)
}

// Eligible reports whether a media slot holding raw should be migrated:
// not hosted, not already owned, and recognised as an image.
func (c *Classifier) Eligible(raw string, hosted bool) bool {
	if hosted || strings.TrimSpace(raw) == "" || c.IsOwned(raw) {
		return false
	}
	return Classify(raw) == ValidImage
}
