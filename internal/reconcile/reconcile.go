// Package reconcile reports where the per-pass identity key (name, identifier,
// role) and the loader's identifier-only key disagree. It never merges anything.
package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/identity"
)

// Kind classifies a reconciliation gap.
type Kind string

const (
	// KindSharedIdentifier: several identities carry one identifier and will
	// collapse into a single user when loaded.
	KindSharedIdentifier Kind = "shared_identifier"
	// KindMaskedVariant: a masked identifier is compatible with an unmasked one.
	KindMaskedVariant Kind = "masked_variant"
	// KindNearDuplicateName: same identifier and role with nearly equal names.
	KindNearDuplicateName Kind = "near_duplicate_name"
)

// NameDistanceThreshold is the largest edit distance, relative to the longer
// name, at which two names count as near duplicates.
const NameDistanceThreshold = 0.25

const maskChar = '*'

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex   = regexp.MustCompile(`\D+`)
)

// Gap is one finding.
type Gap struct {
	Kind        Kind     `json:"kind"`
	Identifiers []string `json:"identifiers"`
	IdentityIDs []int    `json:"identityIds"`
	Names       []string `json:"names"`
	Detail      string   `json:"detail,omitempty"`
}

// Report lists every gap found among a set of identities.
type Report struct {
	Identities int   `json:"identities"`
	Gaps       []Gap `json:"gaps"`
}

// Count returns the number of gaps of the given kind.
func (r Report) Count(kind Kind) int {
	n := 0
	for _, gap := range r.Gaps {
		if gap.Kind == kind {
			n++
		}
	}
	return n
}

// EntriesFromTransactions rebuilds the identity entries of a serialized pass
// from the participants' UserIDs. The first participant seen for an ID wins.
func EntriesFromTransactions(txs []domain.Transaction) []identity.Entry {
	seen := make(map[int]struct{})
	var entries []identity.Entry
	for _, tx := range txs {
		for _, p := range tx.Participants {
			if _, ok := seen[p.UserID]; ok {
				continue
			}
			seen[p.UserID] = struct{}{}
			entries = append(entries, identity.Entry{
				ID:  p.UserID,
				Key: identity.Key{Name: p.Name, Identifier: p.PhoneNumber, Role: p.UserType},
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Analyze inspects entries and lists shared identifiers, masked variants and
// near-duplicate names, in that order.
func Analyze(entries []identity.Entry) Report {
	report := Report{Identities: len(entries), Gaps: []Gap{}}

	byIdentifier := make(map[string][]identity.Entry)
	var identifiers []string
	for _, entry := range entries {
		if _, ok := byIdentifier[entry.Identifier]; !ok {
			identifiers = append(identifiers, entry.Identifier)
		}
		byIdentifier[entry.Identifier] = append(byIdentifier[entry.Identifier], entry)
	}
	sort.Strings(identifiers)

	for _, id := range identifiers {
		group := byIdentifier[id]
		if len(group) > 1 {
			report.Gaps = append(report.Gaps, sharedIdentifierGap(id, group))
		}
	}

	for _, masked := range identifiers {
		if !isMasked(masked) {
			continue
		}
		for _, plain := range identifiers {
			if isMasked(plain) || !maskMatches(masked, plain) {
				continue
			}
			group := append(append([]identity.Entry{}, byIdentifier[masked]...), byIdentifier[plain]...)
			report.Gaps = append(report.Gaps, Gap{
				Kind:        KindMaskedVariant,
				Identifiers: []string{masked, plain},
				IdentityIDs: entryIDs(group),
				Names:       distinctNames(group),
			})
		}
	}

	for _, id := range identifiers {
		group := byIdentifier[id]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Role != b.Role {
					continue
				}
				ratio, ok := nameDistance(a.Name, b.Name)
				if !ok || ratio > NameDistanceThreshold {
					continue
				}
				report.Gaps = append(report.Gaps, Gap{
					Kind:        KindNearDuplicateName,
					Identifiers: []string{id},
					IdentityIDs: []int{a.ID, b.ID},
					Names:       []string{a.Name, b.Name},
					Detail:      fmt.Sprintf("distance ratio %.2f", ratio),
				})
			}
		}
	}

	return report
}

func sharedIdentifierGap(identifier string, group []identity.Entry) Gap {
	roles := make(map[string]struct{})
	for _, entry := range group {
		roles[string(entry.Role)] = struct{}{}
	}
	detail := "names differ"
	if len(distinctNames(group)) == 1 {
		detail = "roles differ"
	} else if len(roles) > 1 {
		detail = "names and roles differ"
	}
	return Gap{
		Kind:        KindSharedIdentifier,
		Identifiers: []string{identifier},
		IdentityIDs: entryIDs(group),
		Names:       distinctNames(group),
		Detail:      detail,
	}
}

// nameDistance returns the Levenshtein distance between two distinct names
// relative to the longer one. Identical names after cleanup report false.
func nameDistance(a, b string) (float64, bool) {
	a, b = sanitizeName(a), sanitizeName(b)
	if a == b {
		return 0, false
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0, false
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest), true
}

// sanitizeName lowercases and collapses whitespace.
func sanitizeName(name string) string {
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return strings.ToLower(strings.TrimSpace(name))
}

func isMasked(identifier string) bool {
	return strings.ContainsRune(identifier, maskChar)
}

// maskMatches reports whether the visible digits of masked are consistent
// with plain. Equal lengths compare position by position; otherwise the
// visible prefix and suffix must line up.
func maskMatches(masked, plain string) bool {
	plain = nonDigitRegex.ReplaceAllString(plain, "")
	if plain == "" {
		return false
	}

	if len(masked) == len(plain) {
		visible := 0
		for i := 0; i < len(masked); i++ {
			if masked[i] == maskChar {
				continue
			}
			if masked[i] != plain[i] {
				return false
			}
			visible++
		}
		return visible > 0
	}

	first := strings.IndexRune(masked, maskChar)
	last := strings.LastIndexByte(masked, maskChar)
	prefix, suffix := masked[:first], masked[last+1:]
	if prefix == "" && suffix == "" {
		return false
	}
	if len(prefix)+len(suffix) > len(plain) {
		return false
	}
	return strings.HasPrefix(plain, prefix) && strings.HasSuffix(plain, suffix)
}

func entryIDs(entries []identity.Entry) []int {
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	sort.Ints(ids)
	return ids
}

func distinctNames(entries []identity.Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		names = append(names, entry.Name)
	}
	return names
}
