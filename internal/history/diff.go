package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/brandscout/internal/model"
)

// Chunk is one changed line group.
type Chunk struct {
	Type    string `json:"type"` // "added" | "removed"
	Content string `json:"content"`
}

type Diff struct {
	BaseID  string  `json:"base_id"`
	HeadID  string  `json:"head_id"`
	Added   int     `json:"added"`
	Removed int     `json:"removed"`
	Chunks  []Chunk `json:"chunks"`
}

// Diff compares two stored scrapes by their asset listings.
func (s *Store) Diff(ctx context.Context, baseID, headID string) (*Diff, error) {
	base, err := s.Get(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("base %s: %w", baseID, err)
	}
	head, err := s.Get(ctx, headID)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", headID, err)
	}
	d := DiffResults(base.Result, head.Result)
	d.BaseID, d.HeadID = baseID, headID
	return d, nil
}

// DiffResults computes a line diff between the listings of two results.
func DiffResults(base, head *model.ScrapeResult) *Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Listing(base), Listing(head))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := &Diff{Chunks: []Chunk{}}
	for _, d := range diffs {
		var typ string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			typ = "added"
		case diffmatchpatch.DiffDelete:
			typ = "removed"
		default:
			continue
		}
		n := strings.Count(d.Text, "\n")
		if typ == "added" {
			out.Added += n
		} else {
			out.Removed += n
		}
		out.Chunks = append(out.Chunks, Chunk{Type: typ, Content: d.Text})
	}
	return out
}

// Listing renders a result as stable newline-terminated lines.
func Listing(r *model.ScrapeResult) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	ad := r.AgencyDetails
	fmt.Fprintf(&b, "agency.name %s\n", ad.Name)
	fmt.Fprintf(&b, "agency.email %s\n", ad.Email)
	fmt.Fprintf(&b, "agency.phone %s\n", ad.Phone)
	fmt.Fprintf(&b, "agency.website %s\n", ad.Website)
	for _, l := range r.Logos {
		fmt.Fprintf(&b, "logo %s %q %.2f\n", l.URL, l.Name, l.Confidence)
	}
	for _, f := range r.Fonts {
		fmt.Fprintf(&b, "font %q %s %s %.2f\n", f.Name, f.Format, f.URL, f.Confidence)
	}
	return b.String()
}
