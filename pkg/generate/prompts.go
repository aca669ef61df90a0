package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/mindgraph/pkg/genai"
)

// LongTopic is the length in characters above which a topic is summarized
// into a short root name instead of being used verbatim.
const LongTopic = 80

// MaxDocumentChars bounds the document text placed in a prompt.
const MaxDocumentChars = 60000

const mindMapSystem = `You build mind maps. Reply with one JSON object and nothing else: ` +
	`{"root":{"name":"...","children":[{"name":"...","children":[...]}]}}. ` +
	`Use at most three levels below the root and keep every name short (a few words).`

const logicSystem = `You extract procedures as flowcharts. Reply with one JSON object and nothing else: ` +
	`{"nodes":[{"id":"...","label":"...","shape":"rect|diamond|ellipse"}],"links":[{"source":"...","target":"...","label":"..."}]}. ` +
	`Find the single dominant process, workflow or decision procedure. Use ellipse for start and end, ` +
	`diamond for decisions and rect for steps. Label the links leaving a decision (for example "Yes" and "No"). ` +
	`Every link must connect existing node ids. ` +
	`If there is no process, reply with {"nodes":[],"links":[]}.`

// mindMapMessages builds the prompt for one of three cases: a document with
// a focus topic, a document alone, or a topic alone.
func mindMapMessages(topic, document string) []genai.Message {
	topic = strings.TrimSpace(topic)
	document = truncate(strings.TrimSpace(document), MaxDocumentChars)

	var user string
	switch {
	case document != "" && topic != "":
		user = fmt.Sprintf("Create a mind map of the document below, focused on %q. "+
			"Use the focus as the root name.\n\nDocument:\n%s", topic, document)
	case document != "":
		user = "Summarize the main ideas of the document below as a mind map. " +
			"Name the root after the document's subject.\n\nDocument:\n" + document
	case utf8.RuneCountInString(topic) > LongTopic:
		user = "Create a mind map of the topic below. The topic is long: use a concise summary " +
			"of it (at most six words) as the root name.\n\nTopic:\n" + topic
	default:
		user = fmt.Sprintf("Create a mind map of the topic %q. Use the topic as the root name.", topic)
	}
	return []genai.Message{genai.System(mindMapSystem), genai.User(user)}
}

func logicMessages(topic, document string) []genai.Message {
	topic = strings.TrimSpace(topic)
	document = truncate(strings.TrimSpace(document), MaxDocumentChars)

	var user string
	switch {
	case document != "" && topic != "":
		user = fmt.Sprintf("Extract the main procedure about %q from the document below.\n\nDocument:\n%s", topic, document)
	case document != "":
		user = "Extract the main procedure described in the document below.\n\nDocument:\n" + document
	default:
		user = "Extract the main procedure involved in the topic below.\n\nTopic:\n" + topic
	}
	return []genai.Message{genai.System(logicSystem), genai.User(user)}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// promptText flattens messages for cache keys.
func promptText(msgs []genai.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
