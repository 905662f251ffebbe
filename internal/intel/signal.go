// Package intel consumes off-chain intelligence feeds. Parsing never does
// network access; callers (or the Crawler collaborator) provide raw text
// payloads and the helpers extract indicators and normalize the shape for
// the correlation engine.
package intel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// DefaultSummaryLimit caps the compact summary kept per signal.
const DefaultSummaryLimit = 280

var (
	addressPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)
	linkPattern    = regexp.MustCompile(`(?i)https?://[\w./-]+`)
)

// ParseIntel converts raw intel text into a normalized signal: every
// base58-shaped indicator and link in the payload, plus a single-line
// summary truncated to DefaultSummaryLimit.
func ParseIntel(source, payload string) models.IntelSignal {
	compact := strings.ReplaceAll(strings.TrimSpace(payload), "\n", " ")
	if len(compact) > DefaultSummaryLimit {
		compact = compact[:DefaultSummaryLimit-3] + "..."
	}
	return models.IntelSignal{
		Source:    source,
		Addresses: addressPattern.FindAllString(payload, -1),
		Links:     linkPattern.FindAllString(payload, -1),
		Summary:   compact,
	}
}

// MergeIntel combines signals into one consolidated view. Addresses and
// links keep first-seen order with duplicates removed, so the merge is
// deterministic for a fixed ingestion order.
func MergeIntel(signals []models.IntelSignal) models.IntelSignal {
	var (
		addresses []string
		links     []string
		summaries []string
		seenAddr  = make(map[string]struct{})
		seenLink  = make(map[string]struct{})
	)
	for _, signal := range signals {
		for _, addr := range signal.Addresses {
			if _, ok := seenAddr[addr]; !ok {
				seenAddr[addr] = struct{}{}
				addresses = append(addresses, addr)
			}
		}
		for _, link := range signal.Links {
			if _, ok := seenLink[link]; !ok {
				seenLink[link] = struct{}{}
				links = append(links, link)
			}
		}
		summaries = append(summaries, fmt.Sprintf("[%s] %s", signal.Source, signal.Summary))
	}
	return models.IntelSignal{
		Source:    "merged",
		Addresses: addresses,
		Links:     links,
		Summary:   strings.Join(summaries, " | "),
	}
}

// FilterByAddress returns the signals mentioning address.
func FilterByAddress(signals []models.IntelSignal, address string) []models.IntelSignal {
	var matched []models.IntelSignal
	for _, signal := range signals {
		for _, addr := range signal.Addresses {
			if addr == address {
				matched = append(matched, signal)
				break
			}
		}
	}
	return matched
}
