// Package memory defines the card and deck types of the memory game.
// Nothing in it knows about timers or transport.
package memory

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// DuplicateSuffix marks the second card of a pair.
const DuplicateSuffix = "-copy"

// DefaultImageURLTemplate is formatted with the base card number.
const DefaultImageURLTemplate = "https://picsum.photos/200/300?random=%d"

// Pairs is the number of base images in a deck.
const Pairs = 8

// Image is the definition a pair of cards is built from.
type Image struct {
	ID  string
	URL string
}

type Card struct {
	ID       string `json:"id"`
	ImageRef string `json:"imageRef"`
}

// BaseID returns the card identity with the duplicate marker removed.
func (c Card) BaseID() string {
	return BaseID(c.ID)
}

type Deck []Card

var ErrInvalidImages = errors.New("invalid images")

func BaseID(id string) string {
	return strings.TrimSuffix(id, DuplicateSuffix)
}

// Match reports whether two cards belong to the same pair.
func Match(a, b Card) bool {
	return a.BaseID() == b.BaseID()
}

// ErrInvalidTemplate is returned for an image URL template that is neither a
// fixed URL nor a URL with a single %d verb.
var ErrInvalidTemplate = errors.New("invalid image URL template")

// ValidateImageURLTemplate checks that urlTemplate formats cleanly with one
// card number. Escaped percent signs are allowed.
func ValidateImageURLTemplate(urlTemplate string) error {
	verbs := strings.ReplaceAll(urlTemplate, "%%", "")
	if n := strings.Count(verbs, "%"); n > 1 || n != strings.Count(verbs, "%d") {
		return fmt.Errorf("%w: %q", ErrInvalidTemplate, urlTemplate)
	}
	return nil
}

// DefaultImages returns the eight base images, numbered from 1.
// An empty template falls back to DefaultImageURLTemplate.
func DefaultImages(urlTemplate string) ([]Image, error) {
	if urlTemplate == "" {
		urlTemplate = DefaultImageURLTemplate
	}
	if err := ValidateImageURLTemplate(urlTemplate); err != nil {
		return nil, err
	}

	formatted := strings.Contains(strings.ReplaceAll(urlTemplate, "%%", ""), "%d")
	images := make([]Image, 0, Pairs)
	for i := 1; i <= Pairs; i++ {
		url := urlTemplate
		if formatted {
			url = fmt.Sprintf(urlTemplate, i)
		}
		images = append(images, Image{ID: fmt.Sprint(i), URL: url})
	}
	return images, nil
}

// Shuffle permutes cards in place with a Fisher–Yates shuffle.
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// BuildDeck creates one card per image plus its tagged duplicate and shuffles them.
func BuildDeck(images []Image, rng *rand.Rand) (Deck, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrInvalidImages)
	}

	seen := make(map[string]struct{}, len(images))
	deck := make(Deck, 0, 2*len(images))
	for _, img := range images {
		if img.ID == "" || strings.HasSuffix(img.ID, DuplicateSuffix) {
			return nil, fmt.Errorf("%w: bad id %q", ErrInvalidImages, img.ID)
		}
		if _, ok := seen[img.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidImages, img.ID)
		}
		seen[img.ID] = struct{}{}
		deck = append(deck, Card{ID: img.ID, ImageRef: img.URL})
	}
	for _, img := range images {
		deck = append(deck, Card{ID: img.ID + DuplicateSuffix, ImageRef: img.URL})
	}

	Shuffle(deck, rng)
	return deck, nil
}

// FormatClock renders seconds as MM:SS. Negative values render as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// NewRand returns a PCG generator seeded from crypto/rand.
func NewRand() (*rand.Rand, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	)), nil
}
