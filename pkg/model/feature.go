package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FeatureMap maps feature names to values computed at one reference instant
type FeatureMap map[string]Float

// Get returns the value for name, Missing if absent
func (fm FeatureMap) Get(name string) Float {
	if v, ok := fm[name]; ok {
		return v
	}
	return Missing
}

// GenerateFeatureSetID creates a deterministic identifier for an ordered
// feature-name list. Bundles trained on one set can be checked against
// the set a calculator produces at prediction time.
func GenerateFeatureSetID(names []string) string {
	hash := sha256.Sum256([]byte(strings.Join(names, "|")))
	return hex.EncodeToString(hash[:8])
}
