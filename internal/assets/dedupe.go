package assets

import (
	"encoding/json"
	"fmt"
	"sort"

	"sessionhub-backend/internal/models"
)

// DeckExportTemplate is the export-style reference for a Drive presentation:
// derivable from just the document id, it requests a pptx export directly.
const DeckExportTemplate = "https://docs.google.com/presentation/d/%s/export/pptx"

// MergeCandidates collapses per-slot candidate entries into exactly one
// entry per slot. Candidates may mix a row's fresh build with entries
// already partly resolved by an earlier background pass. The result is
// deterministic: identical candidate sets merge identically regardless of
// input order. Output is sorted by slot for stable persistence.
func MergeCandidates(candidates map[models.AssetSlot][]models.AssetEntry) []models.AssetEntry {
	out := make([]models.AssetEntry, 0, len(candidates))
	for slot, entries := range candidates {
		if len(entries) == 0 {
			continue
		}
		merged := mergeSlot(entries)
		merged.PresentationType = slot
		out = append(out, merged)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PresentationType < out[j].PresentationType
	})
	return out
}

// mergeSlot picks the winning candidate by priority, borrows a usable
// access URL from a losing candidate when the winner lacks one, and
// applies the post-merge normalizations.
func mergeSlot(entries []models.AssetEntry) models.AssetEntry {
	ranked := make([]models.AssetEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return better(ranked[i], ranked[j])
	})

	winner := ranked[0]
	if winner.URL == nil || *winner.URL == "" {
		for _, e := range ranked[1:] {
			if e.URL != nil && *e.URL != "" {
				u := *e.URL
				winner.URL = &u
				break
			}
		}
	}

	return normalize(winner)
}

// better reports whether a should win over b. Ties break on a canonical
// serialization so the merge is order-independent.
func better(a, b models.AssetEntry) bool {
	sa, sb := priority(a), priority(b)
	if sa != sb {
		return sa > sb
	}
	return entryKey(a) < entryKey(b)
}

// priority: resolved > has export reference > bare URL.
func priority(e models.AssetEntry) int {
	if e.Resolved() {
		return 3
	}
	if hasExportReference(e) {
		return 2
	}
	return 1
}

// hasExportReference reports whether the entry carries a known export URL
// or an id a deck export reference could be synthesized from.
func hasExportReference(e models.AssetEntry) bool {
	if e.ExportURL != nil && *e.ExportURL != "" {
		return true
	}
	return e.PresentationType.IsDeck() && e.DriveID != nil && *e.DriveID != ""
}

func entryKey(e models.AssetEntry) string {
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(b)
}

// normalize strips transient provider fields, canonicalizes the provider
// view link into drive_url, and synthesizes the deck export reference for
// entries that hold an id but neither a storage path nor an access URL.
func normalize(e models.AssetEntry) models.AssetEntry {
	e.IconLink = ""

	if (e.DriveURL == nil || *e.DriveURL == "") && e.WebViewLink != nil && *e.WebViewLink != "" {
		u := *e.WebViewLink
		e.DriveURL = &u
	}
	e.WebViewLink = nil

	missingLocation := e.GCSPath == nil || *e.GCSPath == ""
	missingAccess := e.URL == nil || *e.URL == ""
	if e.PresentationType.IsDeck() && missingLocation && missingAccess &&
		e.DriveID != nil && *e.DriveID != "" && (e.ExportURL == nil || *e.ExportURL == "") {
		export := fmt.Sprintf(DeckExportTemplate, *e.DriveID)
		e.ExportURL = &export
	}

	// An oversized entry must stay reachable before resolution.
	if e.TooLargeToExport && (e.URL == nil || *e.URL == "") {
		switch {
		case e.ExportURL != nil && *e.ExportURL != "":
			u := *e.ExportURL
			e.URL = &u
		case e.DriveURL != nil && *e.DriveURL != "":
			u := *e.DriveURL
			e.URL = &u
		}
	}

	return e
}
