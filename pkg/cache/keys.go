package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// Key types, the first segment of every key.
const (
	KeyTypeCompletion = "completion"
	KeyTypeDocument   = "document"
)

// CompletionKeyOpts identifies one AI request.
type CompletionKeyOpts struct {
	Kind        string // "mindmap" or "logic"
	Provider    string
	Model       string
	Temperature float64
	Prompt      string // every message, concatenated
	Schema      string // schema name
}

// Keyer builds cache keys.
type Keyer interface {
	// CompletionKey identifies the reply to one AI request.
	CompletionKey(opts CompletionKeyOpts) string

	// DocumentKey identifies the text extracted from a document.
	DocumentKey(filename string, data []byte) string
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CompletionKey returns "completion:<kind>:<hash>".
func (DefaultKeyer) CompletionKey(o CompletionKeyOpts) string {
	temp := strconv.FormatFloat(o.Temperature, 'f', -1, 64)
	return digest(KeyTypeCompletion+":"+o.Kind, o.Provider, o.Model, temp, o.Schema, Hash([]byte(o.Prompt)))
}

// DocumentKey returns "document:<hash>". The filename extension is part
// of the key because it picks the parser.
func (DefaultKeyer) DocumentKey(filename string, data []byte) string {
	ext := strings.ToLower(filename)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i:]
	} else {
		ext = ""
	}
	return digest(KeyTypeDocument, ext, Hash(data))
}

// KeyType returns the key type segment of key, skipping any scope prefix.
func KeyType(key string) string {
	segs := strings.Split(key, ":")
	for _, s := range segs {
		if s == KeyTypeCompletion || s == KeyTypeDocument {
			return s
		}
	}
	return segs[0]
}

// digest joins kind and the SHA-256 of the JSON-encoded parts.
func digest(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data. Document bodies and prompts are
// hashed before they enter a key so keys stay short.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
