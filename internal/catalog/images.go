package catalog

import (
	"errors"
	"net/url"
	"strings"

	"github.com/JonMunkholm/CatalogImport/internal/extract"
)

// ContentKeyPlaceholder marks where the content key goes in a URL template.
const ContentKeyPlaceholder = "{contentKey}"

// ErrInvalidURLTemplate is returned by NewTemplateURL for templates without
// a ContentKeyPlaceholder.
var ErrInvalidURLTemplate = errors.New("image url template must contain " + ContentKeyPlaceholder)

// URLFunc derives a display image URL from a managed-content key. It must be
// deterministic and give distinct URLs for distinct keys.
type URLFunc func(contentKey string) string

// NewTemplateURL returns a URLFunc that substitutes the path-escaped content
// key into every ContentKeyPlaceholder of tmpl.
//
//	urlFor, _ := catalog.NewTemplateURL("https://cdn.example.com/media/{contentKey}")
//	urlFor("K 1") // https://cdn.example.com/media/K%201
func NewTemplateURL(tmpl string) (URLFunc, error) {
	if !strings.Contains(tmpl, ContentKeyPlaceholder) {
		return nil, ErrInvalidURLTemplate
	}
	return func(contentKey string) string {
		return strings.ReplaceAll(tmpl, ContentKeyPlaceholder, url.PathEscape(contentKey))
	}, nil
}

// Image is the resolved display image for one product.
type Image struct {
	URL string `json:"imageUrl"`
}

// ImageMapping maps product ids to their resolved image. A product without an
// entry has no image.
type ImageMapping map[string]Image

// URL returns the image URL for productID. A missing entry and an entry with
// an empty URL both report false.
func (m ImageMapping) URL(productID string) (string, bool) {
	img, ok := m[productID]
	if !ok || img.URL == "" {
		return "", false
	}
	return img.URL, true
}

// BuildImageMapping joins product media to managed content through the
// electronic media id and derives one image URL per product.
//
// Rows are applied in input order and later rows overwrite earlier ones, so
// when a product has several media rows the last resolvable one wins. The
// same holds for duplicate managed-content ids. Media rows whose id has no
// managed content are skipped and leave any earlier entry in place.
func BuildImageMapping(media []extract.ProductMediaRow, content []extract.ManagedContentRow, urlFor URLFunc) ImageMapping {
	keys := make(map[string]string, len(content))
	for _, c := range content {
		keys[c.ID] = c.ContentKey
	}

	images := make(ImageMapping)
	for _, m := range media {
		key, ok := keys[m.ElectronicMediaID]
		if !ok {
			continue
		}
		images[m.ProductID] = Image{URL: urlFor(key)}
	}

	return images
}
