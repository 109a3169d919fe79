// Package extract turns a raw resolver payload into a normalized
// MediaDescriptor. The first provider entry that yields an acceptable
// link wins; providers are never merged.
package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"mediadrop/internal/core/domain"
)

// Candidate link keys in priority order: unwatermarked-video keys
// first, then generic download/url keys, then the audio key.
var linkKeys = []string{"no_watermark", "no_watermark_hd", "video_url", "download_url", "url", "mp3"}

// Links carrying a short-lived token and shorter than this are treated
// as ephemeral CDN links and skipped. The threshold is inherited
// behavior; do not tune it.
const ephemeralLinkMinLen = 60

var imageExtensions = []string{".jpg", ".png", ".webp"}

type topLevel struct {
	Success          *bool           `json:"success"`
	Platform         string          `json:"platform"`
	CleanDownloadURL string          `json:"clean_download_url"`
	AllResults       json.RawMessage `json:"all_results"`
	Results          json.RawMessage `json:"results"`
	Data             json.RawMessage `json:"data"`
}

// providerEntry is one provider's section of the results mapping.
// A nil fields map means the section was not a structured object.
type providerEntry struct {
	provider string
	fields   map[string]any
}

func (e providerEntry) failed() bool {
	return e.str("status") == "failed"
}

func (e providerEntry) str(key string) string {
	switch v := e.fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Extract returns the descriptor for the request, or nil when no
// provider yields an acceptable link and no top-level fallback link
// exists. The returned descriptor always has a non-empty Link.
func Extract(raw []byte) *domain.MediaDescriptor {
	var top topLevel
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}

	platform := platformLabel(top.Platform)
	title := ""
	attribution := "Unknown"

	for _, e := range providerEntries(top) {
		if e.fields == nil || e.failed() {
			continue
		}
		if t := e.str("title"); t != "" {
			title = t
		}
		if a := e.str("author"); a != "" {
			attribution = a
		} else if a := e.str("uploader"); a != "" {
			attribution = a
		}
		for _, key := range linkKeys {
			link := e.str(key)
			if !acceptLink(link) {
				continue
			}
			return &domain.MediaDescriptor{
				Link:          link,
				Type:          mediaTypeFor(key, top.Platform),
				Title:         orDefault(title, platform),
				Attribution:   attribution,
				PlatformLabel: platform,
				Thumbnail:     firstNonEmpty(e.str("thumbnail"), e.str("cover")),
				DurationRaw:   e.str("duration"),
			}
		}
	}

	if top.CleanDownloadURL != "" {
		return &domain.MediaDescriptor{
			Link:          top.CleanDownloadURL,
			Type:          mediaTypeFor("", top.Platform),
			Title:         orDefault(title, platform),
			Attribution:   attribution,
			PlatformLabel: platform,
		}
	}
	return nil
}

// providerEntries locates the per-provider results mapping, preferring
// all_results over results, with a flat data object treated as a single
// provider entry. Iteration order is the response's declared order.
func providerEntries(top topLevel) []providerEntry {
	switch {
	case isObject(top.AllResults):
		return orderedEntries(top.AllResults)
	case isObject(top.Results):
		return orderedEntries(top.Results)
	case isObject(top.Data):
		fields := map[string]any{}
		dec := json.NewDecoder(bytes.NewReader(top.Data))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil
		}
		return []providerEntry{{provider: "data", fields: fields}}
	default:
		return nil
	}
}

// orderedEntries walks a JSON object with a token decoder so provider
// order survives; unmarshalling into a Go map would shuffle it.
func orderedEntries(raw json.RawMessage) []providerEntry {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var entries []providerEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil
		}
		fields, _ := val.(map[string]any)
		entries = append(entries, providerEntry{provider: key, fields: fields})
	}
	return entries
}

func acceptLink(link string) bool {
	if link == "" || !strings.HasPrefix(link, "http") {
		return false
	}
	if strings.Contains(link, "token=") && len(link) < ephemeralLinkMinLen {
		return false
	}
	lower := strings.ToLower(link)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return false
		}
	}
	return true
}

func mediaTypeFor(selectedKey, platform string) domain.MediaType {
	if selectedKey == "mp3" || strings.Contains(strings.ToLower(platform), "spotify") {
		return domain.MediaAudio
	}
	return domain.MediaVideo
}

func platformLabel(platform string) string {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return "Media"
	}
	r, size := utf8.DecodeRuneInString(platform)
	return string(unicode.ToUpper(r)) + strings.ToLower(platform[size:])
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
