package classify

import (
	"net/url"
	"strings"

	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/utils"
)

// Classifier turns raw candidates into typed, deduplicated brand assets.
// It is pure and safe for concurrent use as long as its rule tables are not
// mutated.
type Classifier struct {
	ImageRules []ImageRule
	FontRules  []FontRule
	IsIconFont func(name string) bool
}

// New returns a Classifier with the default rule tables.
func New() *Classifier {
	return &Classifier{
		ImageRules: DefaultImageRules,
		FontRules:  DefaultFontRules,
		IsIconFont: IsIconFont,
	}
}

// Result is the classifier output plus counters for logging.
type Result struct {
	Logos []model.BrandAsset
	Fonts []model.BrandAsset

	DroppedImages int
	DroppedFonts  int
	IconFonts     int
	Duplicates    int
}

// Classify resolves candidate URLs against pageURL and applies the rule
// tables. Candidates whose URL cannot be resolved are dropped.
func (c *Classifier) Classify(pageURL *url.URL, images []model.RawImageCandidate, fonts []model.RawFontCandidate) *Result {
	res := &Result{
		Logos: []model.BrandAsset{},
		Fonts: []model.BrandAsset{},
	}

	seenLogos := make(map[string]struct{})
	for _, img := range images {
		asset, ok := c.classifyImage(pageURL, img)
		if !ok {
			res.DroppedImages++
			continue
		}
		if _, dup := seenLogos[asset.URL]; dup {
			res.Duplicates++
			continue
		}
		seenLogos[asset.URL] = struct{}{}
		res.Logos = append(res.Logos, asset)
	}

	seenFonts := make(map[string]struct{})
	for _, f := range fonts {
		asset, ok := c.classifyFont(pageURL, f)
		if !ok {
			res.DroppedFonts++
			continue
		}
		if c.IsIconFont != nil && c.IsIconFont(asset.Name) {
			res.IconFonts++
			continue
		}
		if _, dup := seenFonts[asset.Name]; dup {
			res.Duplicates++
			continue
		}
		seenFonts[asset.Name] = struct{}{}
		res.Fonts = append(res.Fonts, asset)
	}

	return res
}

func (c *Classifier) classifyImage(pageURL *url.URL, img model.RawImageCandidate) (model.BrandAsset, bool) {
	for _, rule := range c.ImageRules {
		if !rule.Match(img) {
			continue
		}
		if rule.Drop {
			return model.BrandAsset{}, false
		}
		abs, err := utils.Resolve(pageURL, img.SourceURL)
		if err != nil || utils.IsDataURL(abs) {
			return model.BrandAsset{}, false
		}
		name := strings.TrimSpace(img.AltText)
		if name == "" {
			name = logoNameFallback
		}
		return model.BrandAsset{
			Type:       model.AssetLogo,
			URL:        abs,
			Name:       name,
			Confidence: rule.Confidence,
		}, true
	}
	return model.BrandAsset{}, false
}

func (c *Classifier) classifyFont(pageURL *url.URL, f model.RawFontCandidate) (model.BrandAsset, bool) {
	for _, rule := range c.FontRules {
		if !rule.Match(f) {
			continue
		}
		if rule.Drop {
			return model.BrandAsset{}, false
		}
		abs, err := utils.Resolve(pageURL, f.URL)
		if err != nil || utils.IsDataURL(abs) {
			return model.BrandAsset{}, false
		}
		resolved := f
		resolved.URL = abs
		return model.BrandAsset{
			Type:       model.AssetFont,
			URL:        abs,
			Name:       rule.AssetName(resolved),
			Confidence: rule.Confidence,
			Format:     rule.Format(resolved),
		}, true
	}
	return model.BrandAsset{}, false
}
