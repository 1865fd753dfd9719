package polyglot

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a result cache key from a job kind, a text hash and the
// languages involved. Language order is significant.
func CacheKey(kind JobKind, hash string, langs ...string) string {
	return string(kind) + ":" + hash + ":" + strings.Join(langs, ",")
}

// AnalysisCacheKey keys an analysis by both the selection and its context,
// since the same fragment analyzes differently in different surroundings.
func AnalysisCacheKey(sel Selection, inputLang, outputLang string) string {
	return CacheKey(KindAnalysis, HashText(sel.Text)+"."+HashText(sel.Context), inputLang, outputLang)
}
