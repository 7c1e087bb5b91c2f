package embed

import "strings"

// EmbeddableProperties defines which node properties should be embedded.
// Text from these properties is concatenated for embedding generation.
var EmbeddableProperties = []string{
	"content",
	"text",
	"title",
	"name",
	"description",
}

// ExtractEmbeddableText extracts and concatenates embeddable text from node properties.
//
// This function looks for specific property names that typically contain textual
// content suitable for embedding generation. The text is concatenated with spaces.
//
// Embeddable properties (in order):
//   - content: Main textual content
//   - text: Alternative text field
//   - title: Document/node title
//   - name: Entity name
//   - description: Descriptive text
//
// Parameters:
//   - properties: Map of node properties
//
// Returns:
//   - Concatenated text string, or empty string if no embeddable text found
//
// Example:
//
//	properties := map[string]any{
//		"title":       "Machine Learning Basics",
//		"content":     "ML is a subset of AI that focuses on...",
//		"description": "An introductory guide to ML concepts",
//		"author":      "Dr. Smith",     // Not embeddable
//		"created_at":  time.Now(),      // Not embeddable
//		"tags":        []string{"AI"},  // Not embeddable (not string)
//	}
//
//	text := embed.ExtractEmbeddableText(properties)
//	// Result: "ML is a subset of AI that focuses on... Machine Learning Basics An introductory guide to ML concepts"
func ExtractEmbeddableText(properties map[string]any) string {
	var parts []string

	for _, prop := range EmbeddableProperties {
		if val, ok := properties[prop]; ok {
			switch v := val.(type) {
			case string:
				if v != "" {
					parts = append(parts, v)
				}
			}
		}
	}

	return strings.Join(parts, " ")
}
