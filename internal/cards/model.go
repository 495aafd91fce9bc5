package cards

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// CardRef is the minimal identity of a card; always available.
type CardRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SetRef names the expansion a card belongs to.
type SetRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ImageSet is the canonical image shape. Catalog data also carries a flat
// image_url; both decode into this.
type ImageSet struct {
	Small string `json:"small,omitempty"`
	Large string `json:"large,omitempty"`
}

// Card is the full catalog detail of one card.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Rarity   string   `json:"rarity,omitempty"`
	Color    string   `json:"color,omitempty"`
	CardType string   `json:"cardType,omitempty"`
	Cost     string   `json:"cost,omitempty"`
	Level    string   `json:"level,omitempty"`
	AP       string   `json:"ap,omitempty"`
	HP       string   `json:"hp,omitempty"`
	Zone     string   `json:"zone,omitempty"`
	Trait    string   `json:"trait,omitempty"`
	Link     string   `json:"link,omitempty"`
	Effect   string   `json:"effect,omitempty"`
	Set      SetRef   `json:"set"`
	Images   ImageSet `json:"images"`
}

// Ref returns the card's identity.
func (c Card) Ref() CardRef {
	return CardRef{ID: c.ID, Name: c.Name}
}

// ImageURL returns the best image for large display, falling back to small.
func (c Card) ImageURL() string {
	if c.Images.Large != "" {
		return c.Images.Large
	}
	return c.Images.Small
}

// wireCard accepts every field shape observed in catalog data.
type wireCard struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	Rarity   flexString `json:"rarity"`
	Color    flexString `json:"color"`
	CardType flexString `json:"cardType"`
	Cost     flexString `json:"cost"`
	Level    flexString `json:"level"`
	AP       flexString `json:"ap"`
	HP       flexString `json:"hp"`
	Zone     flexString `json:"zone"`
	Trait    flexString `json:"trait"`
	Link     flexString `json:"link"`
	Effect   flexString `json:"effect"`
	Set      *SetRef    `json:"set"`
	SetName  string     `json:"set_name"`
	Images   *ImageSet  `json:"images"`
	ImageURL string     `json:"image_url"`
}

// UnmarshalJSON normalizes the two image shapes and loosely typed fields.
// When both images and image_url are present the structured form wins.
func (c *Card) UnmarshalJSON(b []byte) error {
	var w wireCard
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Card{
		ID:       string(w.ID),
		Name:     w.Name,
		Rarity:   string(w.Rarity),
		Color:    string(w.Color),
		CardType: string(w.CardType),
		Cost:     string(w.Cost),
		Level:    string(w.Level),
		AP:       string(w.AP),
		HP:       string(w.HP),
		Zone:     string(w.Zone),
		Trait:    string(w.Trait),
		Link:     string(w.Link),
		Effect:   string(w.Effect),
	}
	if w.Set != nil {
		c.Set = *w.Set
	}
	if c.Set.Name == "" {
		c.Set.Name = w.SetName
	}
	c.Images = normalizeImages(w.Images, w.ImageURL)
	return nil
}

func normalizeImages(structured *ImageSet, flat string) ImageSet {
	var out ImageSet
	if structured != nil {
		out = *structured
	}
	if out.Small == "" && out.Large == "" {
		return ImageSet{Small: flat, Large: flat}
	}
	// a half-filled structured set borrows its other size
	if out.Small == "" {
		out.Small = out.Large
	}
	if out.Large == "" {
		out.Large = out.Small
	}
	return out
}

// flexString decodes a JSON string, number, bool, list of strings or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case b[0] == '[':
		var parts []flexString
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		ss := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				ss = append(ss, string(p))
			}
		}
		*f = flexString(strings.Join(ss, " / "))
	case b[0] == 't' || b[0] == 'f':
		v, err := strconv.ParseBool(string(b))
		if err != nil {
			return err
		}
		*f = flexString(strconv.FormatBool(v))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}
